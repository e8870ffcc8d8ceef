// Package session 把配置、扫描、序列构建与报告串成一次整理会话。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/John-Robertt/rawcull/internal/config"
	"github.com/John-Robertt/rawcull/internal/cull"
	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/infra/fsx"
	"github.com/John-Robertt/rawcull/internal/meta"
	"github.com/John-Robertt/rawcull/internal/pairing"
	"github.com/John-Robertt/rawcull/internal/preview"
	"github.com/John-Robertt/rawcull/internal/scan"
)

// LockFileName 放在删除目录下；同一棵目录树同一时间只允许一个会话。
const LockFileName = ".rawcull.lock"

// ErrLocked 表示已有其他会话持有锁。
var ErrLocked = errors.New("另一个 rawcull 会话正在使用该目录")

// Deps 是会话的外部依赖；零值字段使用默认实现。
type Deps struct {
	Fs    afero.Fs
	Clock clockwork.Clock
	NewID func() string

	Meta     cull.MetadataReader
	Thumbs   cull.ThumbnailDecoder
	Prompter cull.Prompter
	Observer Observer

	// SkipLock 用于内存文件系统：flock 只能作用于真实文件。
	SkipLock bool
}

func (d Deps) withDefaults(eff config.EffectiveConfig) Deps {
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Meta == nil {
		d.Meta = meta.NewReader(d.Fs)
	}
	if d.Thumbs == nil {
		d.Thumbs = preview.NewDecoder(d.Fs, eff.PreviewMaxEdge)
	}
	return d
}

// Build 扫描输入目录并构建序列，不创建输出目录、不加锁（scan 命令使用）。
func Build(ctx context.Context, eff config.EffectiveConfig, deps Deps) (*cull.Sequence, error) {
	deps = deps.withDefaults(eff)
	return build(ctx, eff, deps, deps.Observer)
}

func build(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer) (*cull.Sequence, error) {
	rawExts := scan.NewExtSet(eff.RawExtensions)
	jpegExts := scan.NewExtSet(eff.JPEGExtensions)

	started := deps.Clock.Now()
	files, err := scan.ScanPairFolders(deps.Fs, eff.RawFolder, rawExts, eff.JPEGFolder, jpegExts)
	if err != nil {
		return nil, fmt.Errorf("扫描失败：%w", err)
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, deps.Clock.Since(started))
	}

	started = deps.Clock.Now()
	opts := cull.Options{
		Fs:         deps.Fs,
		Files:      files,
		Classifier: pairing.Classifier{Raw: rawExts, JPEG: jpegExts},
		Folders: cull.Folders{
			KeepRaw:    eff.KeepRawFolder,
			KeepJPEG:   eff.KeepJPEGFolder,
			DeleteRaw:  eff.DeleteRawFolder,
			DeleteJPEG: eff.DeleteJPEGFolder,
		},
		Meta:     deps.Meta,
		Thumbs:   deps.Thumbs,
		Prompter: deps.Prompter,
	}
	if obs != nil {
		opts.Observer = obs
	}
	seq, err := cull.Build(ctx, opts)
	if err != nil {
		return nil, err
	}
	seq.SetClock(deps.Clock.Now)
	if obs != nil {
		obs.OnPhaseDone("build", map[string]any{"pairs": seq.OriginalCount()}, deps.Clock.Since(started))
	}
	return seq, nil
}

// Session 是一次交互式整理会话。
type Session struct {
	ID string

	eff   config.EffectiveConfig
	fs    afero.Fs
	clock clockwork.Clock
	lock  *flock.Flock
	seq   *cull.Sequence

	mu     sync.Mutex
	report domain.SessionReport
	closed bool
}

// Open 准备输出目录、加锁并构建序列。
//
// 失败时不会留下锁；空序列不是错误（由调用方决定如何提示）。
func Open(ctx context.Context, eff config.EffectiveConfig, deps Deps) (*Session, error) {
	deps = deps.withDefaults(eff)

	s := &Session{
		ID:    deps.NewID(),
		eff:   eff,
		fs:    deps.Fs,
		clock: deps.Clock,
	}
	if deps.Observer != nil {
		deps.Observer.OnStart(eff)
	}

	started := deps.Clock.Now()
	for _, dir := range eff.OutputFolders() {
		if err := fsx.EnsureDir(deps.Fs, dir); err != nil {
			return nil, fmt.Errorf("准备输出目录 %q 失败：%w", dir, err)
		}
	}
	if deps.Observer != nil {
		deps.Observer.OnPhaseDone("prepare", map[string]any{"dirs": len(eff.OutputFolders())}, deps.Clock.Since(started))
	}

	if !deps.SkipLock {
		lockPath := filepath.Join(eff.DeleteFolder, LockFileName)
		lk := flock.New(lockPath)
		ok, err := lk.TryLock()
		if err != nil {
			return nil, fmt.Errorf("获取会话锁失败：%w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w（%s）", ErrLocked, lockPath)
		}
		s.lock = lk
	}

	s.report = domain.SessionReport{
		SessionID:  s.ID,
		RawFolder:  eff.RawFolder,
		JPEGFolder: eff.JPEGFolder,
		StartedAt:  s.clock.Now(),
		Items:      make([]domain.ReportItem, 0, 64),
	}

	seq, err := build(ctx, eff, deps, &recorder{s: s, next: deps.Observer})
	if err != nil {
		s.unlock()
		return nil, err
	}
	s.seq = seq
	s.report.OriginalCount = seq.OriginalCount()

	log.Info().Str("session", s.ID).Int("pairs", seq.OriginalCount()).Msg("会话已就绪")
	return s, nil
}

// Sequence 返回会话的序列；导航与处置都直接在它上面进行。
func (s *Session) Sequence() *cull.Sequence { return s.seq }

func (s *Session) Config() config.EffectiveConfig { return s.eff }

// Report 返回当前报告的快照（未 Finalize）。
func (s *Session) Report() domain.SessionReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.report
	r.Items = append([]domain.ReportItem(nil), s.report.Items...)
	return r
}

// Close 结束会话：需要时写报告，然后释放锁。可重复调用。
//
// 返回写入的报告路径；没有写报告时为空。
func (s *Session) Close() (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", nil
	}
	s.closed = true
	r := s.report
	s.mu.Unlock()
	defer s.unlock()

	if !s.eff.Report || len(r.Items) == 0 {
		return "", nil
	}

	r.FinishedAt = s.clock.Now()
	if s.seq != nil {
		r.RemainingCount = s.seq.CurrentCount()
	}
	r.Finalize()

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("生成报告失败：%w", err)
	}
	b = append(b, '\n')

	name := ReportName(r.StartedAt)
	if err := fsx.WriteFileAtomicReplace(s.fs, s.eff.DeleteFolder, name, b); err != nil {
		return "", fmt.Errorf("写入报告失败：%w", err)
	}
	path := filepath.Join(s.eff.DeleteFolder, name)
	log.Info().Str("report", path).Int("items", len(r.Items)).Msg("报告已写入")
	return path, nil
}

// ReportName 返回报告文件名：rawcull-report-<YYYYMMDD-HHMMSS>.json（UTC）。
func ReportName(startedAt time.Time) string {
	return "rawcull-report-" + startedAt.UTC().Format("20060102-150405") + ".json"
}

func (s *Session) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		log.Warn().Err(err).Msg("释放会话锁失败")
	}
	s.lock = nil
}

func (s *Session) record(d cull.Disposition) {
	item := domain.ReportItem{
		Seq:    d.Seq,
		Title:  d.Title,
		Action: d.Action,
		At:     d.At,
		Files:  make([]domain.FileResult, 0, len(d.Moves)),
	}
	for _, m := range d.Moves {
		item.Files = append(item.Files, domain.FileResultFromOutcome(m))
	}

	s.mu.Lock()
	s.report.Items = append(s.report.Items, item)
	s.mu.Unlock()
}

// recorder 把处置事件记入报告，再转发给调用方的 Observer。
type recorder struct {
	s    *Session
	next Observer
}

func (r *recorder) OnStart(eff config.EffectiveConfig) {
	if r.next != nil {
		r.next.OnStart(eff)
	}
}

func (r *recorder) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	if r.next != nil {
		r.next.OnPhaseDone(name, fields, dur)
	}
}

func (r *recorder) OnBuildStart(total int) {
	if r.next != nil {
		r.next.OnBuildStart(total)
	}
}

func (r *recorder) OnPairBuilt(idx, total int, p *cull.Pair) {
	if r.next != nil {
		r.next.OnPairBuilt(idx, total, p)
	}
}

func (r *recorder) OnPairSkipped(idx, total int, plan domain.PairPlan, err error) {
	if r.next != nil {
		r.next.OnPairSkipped(idx, total, plan, err)
	}
}

func (r *recorder) OnDisposed(d cull.Disposition, remaining int) {
	r.s.record(d)
	if r.next != nil {
		r.next.OnDisposed(d, remaining)
	}
}
