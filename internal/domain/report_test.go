package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	zone := time.FixedZone("X", 8*3600)
	r := SessionReport{
		SessionID:  "s",
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, zone),
		FinishedAt: time.Date(2026, 2, 9, 10, 5, 0, 0, zone),
		Items: []ReportItem{
			{Seq: 2, Action: ActionDeleteBoth, Files: []FileResult{
				{Status: FileStatusMoved}, {Status: FileStatusSkipped},
			}},
			{Seq: 1, Action: ActionKeepJPEG, Files: []FileResult{
				{Status: FileStatusMoved}, {Status: FileStatusMoved},
			}},
			{Seq: 3, Action: ActionKeepRaw, Files: []FileResult{{Status: FileStatusMoved}}},
		},
	}

	r.Finalize()

	require.Len(t, r.Items, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{r.Items[0].Seq, r.Items[1].Seq, r.Items[2].Seq})
	assert.Equal(t, ReportSummary{KeptRaw: 1, KeptJPEG: 1, DeletedBoth: 1, FilesMoved: 4, FilesSkipped: 1}, r.Summary)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"started_at":"2026-02-09T02:00:00Z"`)
}

func TestSessionReport_MarshalEmptyItems(t *testing.T) {
	b, err := json.Marshal(SessionReport{})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"items":[]`)
}

func TestFileResultFromOutcome(t *testing.T) {
	ok := FileResultFromOutcome(MoveOutcome{Src: "a", Dst: "b", State: MoveSucceeded, Attempts: 1})
	assert.Equal(t, FileStatusMoved, ok.Status)
	assert.Empty(t, ok.Error)

	skipped := FileResultFromOutcome(MoveOutcome{Src: "a", Dst: "b", State: MoveAbandoned, Attempts: 2, Err: errors.New("denied")})
	assert.Equal(t, FileStatusSkipped, skipped.Status)
	assert.Equal(t, "denied", skipped.Error)
	assert.Equal(t, 2, skipped.Attempts)
}

func TestImageFile_StemAndExt(t *testing.T) {
	f := NewImageFile("/x/NEF/IMG1.NEF", 0)
	assert.Equal(t, "IMG1.NEF", f.Name)
	assert.Equal(t, "IMG1", f.Stem())
	assert.Equal(t, ".NEF", f.Ext())

	g := NewImageFile("/x/noext", 0)
	assert.Equal(t, "noext", g.Stem())
	assert.Equal(t, "", g.Ext())
}

func TestCaptureMeta_Summary(t *testing.T) {
	m := CaptureMeta{Shutter: "1/250s", Aperture: "f/2.8", ISO: "ISO400", FocalLength: "50mm"}
	assert.Equal(t, "1/250s f/2.8 ISO400 50mm", m.Summary())
	assert.False(t, m.HasCaptureTime())
	assert.Equal(t, "", CaptureMeta{}.Summary())
}
