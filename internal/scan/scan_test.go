package scan

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFolder_FiltersHiddenDirsAndForeignExt(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/p/NEF/IMG2.NEF")
	touch(t, fs, "/p/NEF/IMG1.nef")
	touch(t, fs, "/p/NEF/._IMG1.NEF")
	touch(t, fs, "/p/NEF/notes.txt")
	touch(t, fs, "/p/NEF/sub/IMG3.NEF")

	got, err := ScanFolder(fs, "/p/NEF", NewExtSet([]string{"NEF"}))
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	for _, f := range got {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"IMG1.nef", "IMG2.NEF"}, names)
	assert.Equal(t, filepath.Join("/p/NEF", "IMG1.nef"), got[0].Path)
}

func TestScanFolder_MissingDir(t *testing.T) {
	_, err := ScanFolder(afero.NewMemMapFs(), "/nope", NewExtSet([]string{".jpg"}))
	require.Error(t, err)
}

func TestScanPairFolders_SameDirScannedPerKind(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/p/all/A.NEF")
	touch(t, fs, "/p/all/A.JPG")
	touch(t, fs, "/p/all/B.JPG")

	got, err := ScanPairFolders(fs, "/p/all", NewExtSet([]string{".nef"}), "/p/all", NewExtSet([]string{".jpg", ".jpeg"}))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestScanPairFolders_OverlappingExtSetsDeduplicated(t *testing.T) {
	fs := afero.NewMemMapFs()
	touch(t, fs, "/p/all/A.JPG")

	got, err := ScanPairFolders(fs, "/p/all", NewExtSet([]string{".jpg"}), "/p/all", NewExtSet([]string{".jpg"}))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestExtSet_Normalize(t *testing.T) {
	s := NewExtSet([]string{"NEF", " .Cr2 ", "", ".dng"})
	assert.Equal(t, []string{".cr2", ".dng", ".nef"}, s.Sorted())
	assert.True(t, s.Match("x.CR2"))
	assert.False(t, s.Match("noext"))
}

func touch(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, []byte("x"), 0o644))
}
