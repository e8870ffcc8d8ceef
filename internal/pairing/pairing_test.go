package pairing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/scan"
)

func classifier() Classifier {
	return Classifier{
		Raw:  scan.NewExtSet([]string{".nef", ".cr2", ".raw"}),
		JPEG: scan.NewExtSet([]string{".jpg", ".jpeg"}),
	}
}

func files(paths ...string) []domain.ImageFile {
	out := make([]domain.ImageFile, 0, len(paths))
	for _, p := range paths {
		out = append(out, domain.NewImageFile(p, 0))
	}
	return out
}

func TestPair_JPEGSortsBeforeRaw(t *testing.T) {
	// 排序后为 [A.jpg, A.raw, B.jpg]
	got, err := Pair(files("/r/A.raw", "/j/B.jpg", "/j/A.jpg"), classifier())
	require.NoError(t, err)
	assert.Equal(t, []domain.PairPlan{
		{RawPath: "/r/A.raw", JPEGPath: "/j/A.jpg"},
		{JPEGPath: "/j/B.jpg"},
	}, got)
}

func TestPair_RawSortsBeforeJPEG(t *testing.T) {
	// 大写扩展名：'N' < 'j'，排序后为 [A.NEF, A.jpg, B.jpg]
	got, err := Pair(files("/j/A.jpg", "/j/B.jpg", "/r/A.NEF"), classifier())
	require.NoError(t, err)
	assert.Equal(t, []domain.PairPlan{
		{RawPath: "/r/A.NEF", JPEGPath: "/j/A.jpg"},
		{JPEGPath: "/j/B.jpg"},
	}, got)
}

func TestPair_ScenarioIMG1IMG2(t *testing.T) {
	got, err := Pair(files("/n/IMG1.NEF", "/j/IMG1.JPG", "/j/IMG2.JPG"), classifier())
	require.NoError(t, err)
	assert.Equal(t, []domain.PairPlan{
		{RawPath: "/n/IMG1.NEF", JPEGPath: "/j/IMG1.JPG"},
		{JPEGPath: "/j/IMG2.JPG"},
	}, got)
}

func TestPair_SingletonsOfBothKinds(t *testing.T) {
	got, err := Pair(files("/n/A.NEF", "/j/B.JPG", "/n/C.NEF"), classifier())
	require.NoError(t, err)
	assert.Equal(t, []domain.PairPlan{
		{RawPath: "/n/A.NEF"},
		{JPEGPath: "/j/B.JPG"},
		{RawPath: "/n/C.NEF"},
	}, got)
}

func TestPair_Empty(t *testing.T) {
	got, err := Pair(nil, classifier())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPair_UnsupportedFormat(t *testing.T) {
	for _, p := range []string{"/x/A.txt", "/x/noext"} {
		_, err := Pair(files("/j/A.JPG", p), classifier())
		var ue *UnsupportedFormatError
		require.True(t, errors.As(err, &ue), "%s: 实际 %T %v", p, err, err)
		assert.Equal(t, p, ue.Path)
	}
}

func TestPair_UnsupportedFormatAsPartner(t *testing.T) {
	_, err := Pair(files("/j/A.JPG", "/x/A.TXT"), classifier())
	var ue *UnsupportedFormatError
	require.True(t, errors.As(err, &ue), "实际 %T %v", err, err)
	assert.Equal(t, "/x/A.TXT", ue.Path)
}

func TestPair_DuplicateBasenameSameKind(t *testing.T) {
	_, err := Pair(files("/j/A.JPG", "/j/A.JPEG"), classifier())
	var de *DuplicateBasenameError
	require.True(t, errors.As(err, &de), "实际 %T %v", err, err)
	assert.Equal(t, "A", de.Stem)
	assert.Equal(t, domain.KindJPEG, de.Kind)
}

func TestPair_DuplicateBasenameAfterPair(t *testing.T) {
	cases := []struct {
		name  string
		paths []string
		kind  domain.Kind
	}{
		{name: "jpeg 与 jpg", paths: []string{"/r/A.NEF", "/j/A.jpeg", "/j/A.jpg"}, kind: domain.KindJPEG},
		{name: "两个 raw 夹着 JPEG", paths: []string{"/r/A.CR2", "/j/A.JPG", "/r/A.NEF"}, kind: domain.KindRaw},
		{name: "输入顺序颠倒", paths: []string{"/j/A.jpg", "/j/A.jpeg", "/r/A.NEF"}, kind: domain.KindJPEG},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plans, err := Pair(files(tc.paths...), classifier())
			var de *DuplicateBasenameError
			require.True(t, errors.As(err, &de), "实际 plans=%v err=%T %v", plans, err, err)
			assert.Nil(t, plans)
			assert.Equal(t, "A", de.Stem)
			assert.Equal(t, tc.kind, de.Kind)
		})
	}
}

func TestPair_DoesNotMutateInput(t *testing.T) {
	in := files("/j/B.JPG", "/j/A.JPG")
	_, err := Pair(in, classifier())
	require.NoError(t, err)
	assert.Equal(t, "B.JPG", in[0].Name)
}
