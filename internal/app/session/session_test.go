package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/rawcull/internal/config"
	"github.com/John-Robertt/rawcull/internal/cull"
	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/infra/fsx"
	"github.com/John-Robertt/rawcull/internal/testsupport"
)

var startedAt = time.Date(2025, 3, 4, 21, 30, 0, 0, time.UTC)

type recordObserver struct {
	mu sync.Mutex

	startCalls int
	phases     []string
	durs       []time.Duration
	built      int
	disposed   []string
}

func (o *recordObserver) OnStart(config.EffectiveConfig) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.startCalls++
}

func (o *recordObserver) OnPhaseDone(name string, _ map[string]any, dur time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
	o.durs = append(o.durs, dur)
}

func (o *recordObserver) OnBuildStart(int) {}

func (o *recordObserver) OnPairBuilt(int, int, *cull.Pair) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.built++
}

func (o *recordObserver) OnPairSkipped(int, int, domain.PairPlan, error) {}

func (o *recordObserver) OnDisposed(d cull.Disposition, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disposed = append(o.disposed, d.Action)
}

// newShoot 在临时目录里准备 NEF/IMG1.NEF、JPG/IMG1.JPG、JPG/IMG2.JPG。
func newShoot(t *testing.T) (string, config.EffectiveConfig) {
	t.Helper()
	root := t.TempDir()
	raw := testsupport.BuildRaw(testsupport.RawFixture{
		DateTimeOriginal: "2025:03:04 12:00:00",
		ISO:              200,
		Thumbnail:        testsupport.JPEG(8, 6),
	})
	writeFile(t, filepath.Join(root, "NEF", "IMG1.NEF"), raw)
	writeFile(t, filepath.Join(root, "JPG", "IMG1.JPG"), testsupport.JPEG(32, 24))
	writeFile(t, filepath.Join(root, "JPG", "IMG2.JPG"), testsupport.JPEG(32, 24))

	eff, err := config.LoadEffective(root, config.CLIArgs{})
	require.NoError(t, err)
	return root, eff
}

func testDeps(obs Observer) Deps {
	return Deps{
		Clock:    clockwork.NewFakeClockAt(startedAt),
		NewID:    func() string { return "sess-1" },
		Prompter: cull.SkipAll{},
		Observer: obs,
	}
}

func TestOpen_DisposeAndReport(t *testing.T) {
	root, eff := newShoot(t)
	obs := &recordObserver{}

	s, err := Open(context.Background(), eff, testDeps(obs))
	require.NoError(t, err)
	for _, d := range []string{"SEL_NEF", "SEL_JPG", "DEL"} {
		fi, err := os.Stat(filepath.Join(root, d))
		require.NoError(t, err)
		assert.True(t, fi.IsDir(), d)
	}

	seq := s.Sequence()
	require.Equal(t, 2, seq.OriginalCount())
	assert.Equal(t, "IMG1.JPG | IMG1.NEF", seq.Current().Title())
	assert.Equal(t, "ISO200", seq.Current().Meta.ISO)

	d := seq.KeepJPEG(context.Background())
	require.Len(t, d.Moves, 2)
	assert.FileExists(t, filepath.Join(root, "SEL_JPG", "IMG_250304_120000.JPG"))
	assert.FileExists(t, filepath.Join(root, "DEL", "IMG_250304_120000.NEF"))
	assert.Equal(t, 1, seq.CurrentCount())

	path, err := s.Close()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "DEL", "rawcull-report-20250304-213000.json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "sess-1", got["session_id"])
	assert.EqualValues(t, 2, got["original_count"])
	assert.EqualValues(t, 1, got["remaining_count"])
	items := got["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, domain.ActionKeepJPEG, item["action"])
	assert.Len(t, item["files"].([]any), 2)

	assert.Equal(t, 1, obs.startCalls)
	assert.Equal(t, []string{"prepare", "scan", "build"}, obs.phases)
	assert.Equal(t, []time.Duration{0, 0, 0}, obs.durs, "阶段耗时也来自注入的时钟（假时钟不走）")
	assert.Equal(t, 2, obs.built)
	assert.Equal(t, []string{domain.ActionKeepJPEG}, obs.disposed)

	again, err := s.Close()
	require.NoError(t, err)
	assert.Empty(t, again, "重复 Close 不再写报告")
}

func TestClose_NoDispositionNoReport(t *testing.T) {
	root, eff := newShoot(t)

	s, err := Open(context.Background(), eff, testDeps(nil))
	require.NoError(t, err)
	path, err := s.Close()
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(filepath.Join(root, "DEL"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "rawcull-report-")
	}
}

func TestClose_ReportDisabled(t *testing.T) {
	_, eff := newShoot(t)
	eff.Report = false

	s, err := Open(context.Background(), eff, testDeps(nil))
	require.NoError(t, err)
	s.Sequence().DeleteBoth(context.Background())
	path, err := s.Close()
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Len(t, s.Report().Items, 1, "报告内容仍然被记录")
}

func TestOpen_SecondSessionIsLocked(t *testing.T) {
	_, eff := newShoot(t)

	first, err := Open(context.Background(), eff, testDeps(nil))
	require.NoError(t, err)

	_, err = Open(context.Background(), eff, testDeps(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked), "实际：%v", err)

	_, err = first.Close()
	require.NoError(t, err)

	third, err := Open(context.Background(), eff, testDeps(nil))
	require.NoError(t, err, "释放后可以再次打开")
	_, _ = third.Close()
}

func TestOpen_OutputFolderIsFile(t *testing.T) {
	root, eff := newShoot(t)
	writeFile(t, filepath.Join(root, "SEL_NEF"), []byte("not a dir"))

	_, err := Open(context.Background(), eff, testDeps(nil))
	require.Error(t, err)
	assert.True(t, fsx.IsPathTypeConflict(err), "实际：%v", err)
}

func TestOpen_BuildErrorReleasesLock(t *testing.T) {
	root, eff := newShoot(t)
	writeFile(t, filepath.Join(root, "JPG", "IMG1.JPEG"), testsupport.JPEG(4, 4))

	_, err := Open(context.Background(), eff, testDeps(nil))
	require.Error(t, err, "同一 basename 的两个 JPEG")

	require.NoError(t, os.Remove(filepath.Join(root, "JPG", "IMG1.JPEG")))
	s, err := Open(context.Background(), eff, testDeps(nil))
	require.NoError(t, err)
	_, _ = s.Close()
}

func TestBuild_InMemoryWithoutSideEffects(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/shoot/JPG/A.jpg", testsupport.JPEG(4, 4), 0o644))
	require.NoError(t, fs.MkdirAll("/shoot/NEF", 0o755))

	eff, err := config.LoadEffective("/shoot", config.CLIArgs{Root: "/shoot"})
	require.NoError(t, err)

	deps := testDeps(nil)
	deps.Fs = fs
	seq, err := Build(context.Background(), eff, deps)
	require.NoError(t, err)
	assert.Equal(t, 1, seq.OriginalCount())

	ok, err := afero.DirExists(fs, "/shoot/DEL")
	require.NoError(t, err)
	assert.False(t, ok, "Build 不创建输出目录")
}

func TestReportName(t *testing.T) {
	loc := time.FixedZone("X", 8*3600)
	assert.Equal(t, "rawcull-report-20250304-213000.json", ReportName(time.Date(2025, 3, 5, 5, 30, 0, 0, loc)))
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}
