// Package canvas mirrors the shared multi-page canvas and requests its
// mutation. The remote collaboration engine owns the canonical scene, tool,
// and undo/redo state; this store is a mirror, not an independent log.
// Every mutating operation is a request to the authority, and the mirror
// updates only when the confirming room-state snapshot arrives.
package canvas

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"classsync/internal/rolegate"
	"classsync/pkg/ports"
	"classsync/pkg/types"
)

// Session is the canvas state store. It is bound to a room handle only while
// the session is connected; operations against an unbound store fail with
// types.ErrNotConnected. Role-gate denials stay silent, every other failure
// is surfaced through the onError reporter.
type Session struct {
	gate    rolegate.Gate
	onError func(error)

	mu      sync.RWMutex
	room    ports.CollabRoom
	role    types.Role
	scenes  []types.Scene
	index   int
	tool    types.ToolState
	canUndo bool
	canRedo bool
}

// NewSession creates an unbound canvas session. onError may be nil; when set
// it observes every operational failure (not role-gate denials, which are
// silent no-ops).
func NewSession(gate rolegate.Gate, onError func(error)) *Session {
	return &Session{gate: gate, onError: onError}
}

// Bind attaches the connected room handle and the local role. Called by the
// connection manager when the session reaches connected.
func (s *Session) Bind(room ports.CollabRoom, role types.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = room
	s.role = role
}

// Unbind detaches the room handle. Mirrored state is cleared: the next
// connection replaces it wholesale from the first snapshot anyway.
func (s *Session) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = nil
	s.role = ""
	s.scenes = nil
	s.index = 0
	s.tool = types.ToolState{}
	s.canUndo = false
	s.canRedo = false
}

// ApplySnapshot replaces the entire mirror from one consistent remote
// snapshot. This is the only mutation path for mirrored fields.
func (s *Session) ApplySnapshot(st types.RoomState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scenes = append([]types.Scene(nil), st.Scenes...)
	s.index = st.SceneIndex
	if s.index < 0 {
		s.index = 0
	}
	if len(s.scenes) > 0 && s.index >= len(s.scenes) {
		s.index = len(s.scenes) - 1
	}
	s.tool = st.Tool
	s.canUndo = st.CanUndo
	s.canRedo = st.CanRedo
}

// Scenes returns the mirrored scene list in order.
func (s *Session) Scenes() []types.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Scene(nil), s.scenes...)
}

// SceneNames returns the mirrored scene names in order.
func (s *Session) SceneNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Map(s.scenes, func(sc types.Scene, _ int) string { return sc.Name })
}

// SceneIndex returns the mirrored active scene index.
func (s *Session) SceneIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// SceneCount returns the mirrored scene count.
func (s *Session) SceneCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scenes)
}

// Tool returns the mirrored shared tool state.
func (s *Session) Tool() types.ToolState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tool
}

// CanUndo and CanRedo mirror the authority's history flags; they are never
// computed locally.
func (s *Session) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canUndo
}

func (s *Session) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canRedo
}

// report surfaces an operational failure to the reporter before returning it.
func (s *Session) report(err error) error {
	if err != nil && s.onError != nil {
		s.onError(err)
	}
	return err
}

// ChangeTool requests switching the shared tool. Role-gated; denial is a
// silent no-op. The mirror is not touched: the confirming snapshot wins, so
// concurrent changes from other participants resolve by remote event order.
func (s *Session) ChangeTool(ctx context.Context, tool string) error {
	return s.requestTool(ctx, func(t *types.ToolState) { t.Tool = tool })
}

// ChangeColor requests switching the shared stroke color.
func (s *Session) ChangeColor(ctx context.Context, color string) error {
	return s.requestTool(ctx, func(t *types.ToolState) { t.StrokeColor = color })
}

// ChangeStrokeWidth requests switching the shared stroke width.
func (s *Session) ChangeStrokeWidth(ctx context.Context, width int) error {
	return s.requestTool(ctx, func(t *types.ToolState) { t.StrokeWidth = width })
}

func (s *Session) requestTool(ctx context.Context, mutate func(*types.ToolState)) error {
	s.mu.RLock()
	room := s.room
	role := s.role
	requested := s.tool
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if !s.gate.CanMutateCanvas(role) {
		return nil
	}

	// A second change before the first confirmation supersedes it: each
	// request carries the full desired tool state, nothing is queued.
	mutate(&requested)
	return s.report(room.SetTool(ctx, requested))
}

// NextPage requests advancing the active scene. No-op at the last page.
func (s *Session) NextPage(ctx context.Context) error {
	s.mu.RLock()
	room := s.room
	index := s.index
	count := len(s.scenes)
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if index >= count-1 {
		return nil
	}
	return s.report(room.SetScene(ctx, index+1))
}

// PreviousPage requests going back one scene. No-op at the first page.
func (s *Session) PreviousPage(ctx context.Context) error {
	s.mu.RLock()
	room := s.room
	index := s.index
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if index <= 0 {
		return nil
	}
	return s.report(room.SetScene(ctx, index-1))
}

// AddPage requests appending a scene and advancing to it. Role-gated.
func (s *Session) AddPage(ctx context.Context, name string) error {
	s.mu.RLock()
	room := s.room
	role := s.role
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if !s.gate.CanMutateCanvas(role) {
		return nil
	}
	return s.report(room.AddScene(ctx, name))
}

// Undo requests one undo step. Role-gated; a no-op while the mirrored
// CanUndo flag is false.
func (s *Session) Undo(ctx context.Context) error {
	s.mu.RLock()
	room := s.room
	role := s.role
	can := s.canUndo
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if !s.gate.CanMutateCanvas(role) {
		return nil
	}
	if !can {
		return nil
	}
	return s.report(room.Undo(ctx))
}

// Redo requests one redo step. Role-gated; a no-op while the mirrored
// CanRedo flag is false.
func (s *Session) Redo(ctx context.Context) error {
	s.mu.RLock()
	room := s.room
	role := s.role
	can := s.canRedo
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if !s.gate.CanMutateCanvas(role) {
		return nil
	}
	if !can {
		return nil
	}
	return s.report(room.Redo(ctx))
}

// ClearCurrentPage requests erasing the active scene. Role-gated.
func (s *Session) ClearCurrentPage(ctx context.Context) error {
	s.mu.RLock()
	room := s.room
	role := s.role
	index := s.index
	count := len(s.scenes)
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if !s.gate.CanMutateCanvas(role) {
		return nil
	}
	if count == 0 {
		return s.report(ErrNoScenes)
	}
	return s.report(room.ClearScene(ctx, index))
}

// ClearAllPages requests erasing every scene, then restores the original
// active index so the view does not silently end up on a different page.
func (s *Session) ClearAllPages(ctx context.Context) error {
	s.mu.RLock()
	room := s.room
	role := s.role
	original := s.index
	count := len(s.scenes)
	s.mu.RUnlock()

	if room == nil {
		return s.report(types.ErrNotConnected)
	}
	if !s.gate.CanMutateCanvas(role) {
		return nil
	}
	if count == 0 {
		return s.report(ErrNoScenes)
	}

	for i := 0; i < count; i++ {
		if err := room.ClearScene(ctx, i); err != nil {
			return s.report(err)
		}
	}
	return s.report(room.SetScene(ctx, original))
}

// ExportSnapshot fetches rendered previews for the given pages. All fetches
// run concurrently; the caller receives the full ordered result set only
// once every page resolved, or an error for the whole export.
func (s *Session) ExportSnapshot(ctx context.Context, pages []int) ([][]byte, error) {
	s.mu.RLock()
	room := s.room
	count := len(s.scenes)
	s.mu.RUnlock()

	if room == nil {
		return nil, s.report(types.ErrNotConnected)
	}
	for _, p := range pages {
		if p < 0 || p >= count {
			return nil, s.report(ErrSceneOutOfRange)
		}
	}

	results := make([][]byte, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		g.Go(func() error {
			img, err := room.ScenePreview(gctx, page)
			if err != nil {
				return err
			}
			results[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, s.report(err)
	}
	return results, nil
}
