package cull

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/John-Robertt/rawcull/internal/domain"
	"github.com/John-Robertt/rawcull/internal/relocate"
)

const none = -1

// node 是 arena 中的一个槽位；prev/next 为下标，none 表示不存在。
// removed 的槽位是墓碑，不再参与链接。
type node struct {
	pair    *Pair
	prev    int
	next    int
	removed bool
}

// Sequence 是有序、双向链接的配对序列，带当前位置游标。
//
// 所有导航与处置都在 mu 下串行执行。
type Sequence struct {
	mu sync.Mutex

	nodes  []node
	head   int
	cursor int

	originalCount int
	currentCount  int
	disposals     int

	folders  Folders
	mover    relocate.Mover
	prompter Prompter
	observer Observer
	now      func() time.Time
}

// Disposition 是一次处置的结果。
type Disposition struct {
	Seq    int // 本次会话内第几次处置（从 1 开始）
	Action string
	Title  string
	At     time.Time
	Moves  []domain.MoveOutcome
}

func (s *Sequence) append(p *Pair) {
	idx := len(s.nodes)
	s.nodes = append(s.nodes, node{pair: p, prev: none, next: none})
	if s.head == none {
		s.head = idx
		s.cursor = idx
	} else {
		// 构建期间没有移除，上一个槽位就是尾部。
		tail := idx - 1
		s.nodes[tail].next = idx
		s.nodes[idx].prev = tail
	}
	s.currentCount++
}

func (s *Sequence) releaseAll() {
	for i := range s.nodes {
		if s.nodes[i].pair != nil {
			s.nodes[i].pair.release()
		}
	}
}

// Folders 返回处置目标目录。
func (s *Sequence) Folders() Folders { return s.folders }

// SetClock 替换处置时间的来源（测试与报告使用）。
func (s *Sequence) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// OriginalCount 返回构建完成时链入的配对数，之后不再变化。
func (s *Sequence) OriginalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.originalCount
}

// CurrentCount 返回尚未处置的配对数。
func (s *Sequence) CurrentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCount
}

// Current 返回游标处的配对；序列为空时返回 nil。
func (s *Sequence) Current() *Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == none {
		return nil
	}
	return s.nodes[s.cursor].pair
}

// Position 返回游标在剩余序列中的位置（从 1 开始）；空序列返回 0。
func (s *Sequence) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == none {
		return 0
	}
	pos := 1
	for i := s.nodes[s.cursor].prev; i != none; i = s.nodes[i].prev {
		pos++
	}
	return pos
}

// Pairs 按顺序返回仍在序列中的配对。
func (s *Sequence) Pairs() []*Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Pair, 0, s.currentCount)
	for i := s.head; i != none; i = s.nodes[i].next {
		out = append(out, s.nodes[i].pair)
	}
	return out
}

// HasNext 报告游标之后是否还有配对。
func (s *Sequence) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor != none && s.nodes[s.cursor].next != none
}

// HasPrev 报告游标之前是否还有配对。
func (s *Sequence) HasPrev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor != none && s.nodes[s.cursor].prev != none
}

// Advance 移到下一个配对并返回它；已在末尾时游标不变（不回绕）。
// 空序列上调用会 panic。
func (s *Sequence) Advance() *Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == none {
		precondition("Advance", "序列为空")
	}
	if n := s.nodes[s.cursor].next; n != none {
		s.cursor = n
	}
	return s.nodes[s.cursor].pair
}

// Retreat 移到上一个配对并返回它；已在开头时游标不变。
// 空序列上调用会 panic。
func (s *Sequence) Retreat() *Pair {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor == none {
		precondition("Retreat", "序列为空")
	}
	if p := s.nodes[s.cursor].prev; p != none {
		s.cursor = p
	}
	return s.nodes[s.cursor].pair
}

type moveReq struct {
	src string
	dir string
}

// KeepRaw 保留 raw：raw 移入 keep-raw，JPEG（若有）移入 delete-jpeg，然后移除当前节点。
func (s *Sequence) KeepRaw(ctx context.Context) Disposition {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.mustCurrent("KeepRaw")
	if !p.HasRaw() {
		precondition("KeepRaw", "当前配对没有 raw 文件")
	}
	reqs := []moveReq{{src: p.rawPath, dir: s.folders.KeepRaw}}
	if p.HasJPEG() {
		reqs = append(reqs, moveReq{src: p.jpegPath, dir: s.folders.DeleteJPEG})
	}
	return s.dispose(ctx, domain.ActionKeepRaw, p, reqs)
}

// KeepJPEG 保留 JPEG：JPEG 移入 keep-jpeg，raw（若有）移入 delete-raw，然后移除当前节点。
func (s *Sequence) KeepJPEG(ctx context.Context) Disposition {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.mustCurrent("KeepJPEG")
	if !p.HasJPEG() {
		precondition("KeepJPEG", "当前配对没有 JPEG 文件")
	}
	reqs := []moveReq{{src: p.jpegPath, dir: s.folders.KeepJPEG}}
	if p.HasRaw() {
		reqs = append(reqs, moveReq{src: p.rawPath, dir: s.folders.DeleteRaw})
	}
	return s.dispose(ctx, domain.ActionKeepJPEG, p, reqs)
}

// DeleteBoth 把存在的文件都移入删除目录，然后移除当前节点。
func (s *Sequence) DeleteBoth(ctx context.Context) Disposition {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.mustCurrent("DeleteBoth")
	reqs := make([]moveReq, 0, 2)
	if p.HasRaw() {
		reqs = append(reqs, moveReq{src: p.rawPath, dir: s.folders.DeleteRaw})
	}
	if p.HasJPEG() {
		reqs = append(reqs, moveReq{src: p.jpegPath, dir: s.folders.DeleteJPEG})
	}
	return s.dispose(ctx, domain.ActionDeleteBoth, p, reqs)
}

func (s *Sequence) mustCurrent(op string) *Pair {
	if s.cursor == none {
		precondition(op, "序列为空")
	}
	return s.nodes[s.cursor].pair
}

// dispose 必须在持锁时调用。单个文件被跳过不影响其余文件，节点总会被移除。
func (s *Sequence) dispose(ctx context.Context, action string, p *Pair, reqs []moveReq) Disposition {
	p.release()

	decide := func(ctx context.Context, f relocate.Failure) relocate.Decision {
		return s.prompter.OnMoveFailure(ctx, f)
	}

	s.disposals++
	d := Disposition{
		Seq:    s.disposals,
		Action: action,
		Title:  p.Title(),
		Moves:  make([]domain.MoveOutcome, 0, len(reqs)),
	}
	for _, r := range reqs {
		d.Moves = append(d.Moves, s.mover.Move(ctx, r.src, filepath.Clean(r.dir), p.Meta.CaptureTime, decide))
	}
	d.At = s.clock()

	s.removeCurrent()
	log.Info().Str("action", action).Str("title", d.Title).Int("remaining", s.currentCount).Msg("已处置")
	s.observer.OnDisposed(d, s.currentCount)
	return d
}

func (s *Sequence) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// removeCurrent 把游标处节点从链上摘除：游标优先移到后继，没有后继时退到前驱。
func (s *Sequence) removeCurrent() {
	i := s.cursor
	n := &s.nodes[i]

	if n.prev != none {
		s.nodes[n.prev].next = n.next
	}
	if n.next != none {
		s.nodes[n.next].prev = n.prev
	}
	if s.head == i {
		s.head = n.next
	}
	if n.next != none {
		s.cursor = n.next
	} else {
		s.cursor = n.prev
	}
	s.currentCount--

	n.prev, n.next = none, none
	n.pair = nil
	n.removed = true
}
