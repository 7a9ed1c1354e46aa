package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blockcms/internal/component"
	"github.com/google/uuid"
)

var (
	ErrBlockNotFound = errors.New("content block not found")
	ErrUnknownType   = errors.New("unknown component type")
)

// Catalog is the part of the registry an edit session needs.
type Catalog interface {
	Lookup(blockType string) (component.Definition, bool)
	DefaultData(blockType string) (map[string]any, bool)
}

// EditFunc transforms one block's data under its definition.
type EditFunc func(def component.Definition, data map[string]any) (map[string]any, error)

// Session is one administrator's in-memory draft of a page's block list.
// Blocks whose type is missing from the catalog are kept and saved back
// untouched, but cannot be edited.
type Session struct {
	mu      sync.Mutex
	id      string
	pageID  uint
	catalog Catalog
	blocks  []component.Block
	pending SelectionTarget
	touched time.Time
	now     func() time.Time
	saves   SaveTracker
}

// NewSession starts a draft seeded with a deep copy of blocks.
func NewSession(id string, pageID uint, catalog Catalog, blocks []component.Block) *Session {
	return &Session{
		id:      id,
		pageID:  pageID,
		catalog: catalog,
		blocks:  cloneBlocks(blocks),
		touched: time.Now(),
		now:     time.Now,
	}
}

// ID returns the draft identifier.
func (s *Session) ID() string { return s.id }

// PageID returns the page the draft was opened from, or 0 for a new page.
func (s *Session) PageID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pageID
}

// BindPage records the page a new draft was first saved into.
func (s *Session) BindPage(pageID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageID = pageID
}

// Blocks returns a deep copy of the current block list.
func (s *Session) Blocks() []component.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBlocks(s.blocks)
}

// Block returns a copy of one block.
func (s *Session) Block(id string) (component.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return component.Block{}, false
	}
	return cloneBlock(s.blocks[idx]), true
}

// AddBlock appends a block of blockType seeded from its default data.
func (s *Session) AddBlock(blockType string) (component.Block, error) {
	data, ok := s.catalog.DefaultData(blockType)
	if !ok {
		return component.Block{}, fmt.Errorf("%w: %s", ErrUnknownType, blockType)
	}
	block := component.Block{ID: uuid.NewString(), Type: blockType, Data: data}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, block)
	s.touch()
	return cloneBlock(block), nil
}

// RemoveBlock deletes a block. A pending selection aimed at it is dropped.
func (s *Session) RemoveBlock(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	s.blocks = append(s.blocks[:idx:idx], s.blocks[idx+1:]...)
	if s.pending.BlockID == id {
		s.pending = SelectionTarget{}
	}
	s.touch()
	return nil
}

// MoveBlock shifts a block by delta positions (-1 up, +1 down). Moves past
// either end are ignored and report false.
func (s *Session) MoveBlock(id string, delta int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	target := idx + delta
	if delta == 0 || target < 0 || target >= len(s.blocks) {
		return false, nil
	}
	block := s.blocks[idx]
	rest := append(s.blocks[:idx:idx], s.blocks[idx+1:]...)
	s.blocks = append(rest[:target:target], append([]component.Block{block}, rest[target:]...)...)
	s.touch()
	return true, nil
}

// Edit applies fn to one block's data. If fn fails the block is unchanged.
// Element removal and reordering go through RemoveElement and MoveElement so
// a pending selection keeps pointing at the same element.
func (s *Session) Edit(id string, fn EditFunc) (component.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit(id, fn)
}

// RemoveElement deletes the element at index from the array at pointer.
func (s *Session) RemoveElement(id, pointer string, index int) (component.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var path Path
	block, err := s.edit(id, func(def component.Definition, data map[string]any) (map[string]any, error) {
		parsed, err := ParsePointer(def, pointer)
		if err != nil {
			return nil, err
		}
		path = parsed
		return RemoveElement(def, data, parsed, index)
	})
	if err != nil {
		return component.Block{}, err
	}
	s.reindexPending(id, path, func(i int) (int, bool) {
		switch {
		case i == index:
			return 0, false
		case i > index:
			return i - 1, true
		default:
			return i, true
		}
	})
	return block, nil
}

// MoveElement relocates an element of the array at pointer from one index to
// another.
func (s *Session) MoveElement(id, pointer string, from, to int) (component.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var path Path
	block, err := s.edit(id, func(def component.Definition, data map[string]any) (map[string]any, error) {
		parsed, err := ParsePointer(def, pointer)
		if err != nil {
			return nil, err
		}
		path = parsed
		return MoveElement(def, data, parsed, from, to)
	})
	if err != nil {
		return component.Block{}, err
	}
	s.reindexPending(id, path, func(i int) (int, bool) {
		switch {
		case i == from:
			return to, true
		case from < to && i > from && i <= to:
			return i - 1, true
		case to < from && i >= to && i < from:
			return i + 1, true
		default:
			return i, true
		}
	})
	return block, nil
}

func (s *Session) edit(id string, fn EditFunc) (component.Block, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return component.Block{}, fmt.Errorf("%w: %s", ErrBlockNotFound, id)
	}
	block := s.blocks[idx]
	def, ok := s.catalog.Lookup(block.Type)
	if !ok {
		return component.Block{}, fmt.Errorf("%w: %s", ErrUnknownType, block.Type)
	}
	data := block.Data
	if data == nil {
		data = map[string]any{}
	}
	updated, err := fn(def, data)
	if err != nil {
		return component.Block{}, err
	}
	s.blocks[idx].Data = updated
	s.touch()
	return cloneBlock(s.blocks[idx]), nil
}

// reindexPending keeps the pending target on the same element after an
// array edit, and drops it when that element is removed.
func (s *Session) reindexPending(blockID string, array Path, remap func(int) (int, bool)) {
	target := s.pending
	if !target.Pending() || target.BlockID != blockID {
		return
	}
	full := target.FieldPath()
	depth := len(array)
	if len(full) <= depth || !full[:depth].Equal(array) || !full[depth].IsIndex {
		return
	}
	next, ok := remap(full[depth].Index)
	if !ok {
		s.pending = SelectionTarget{}
		return
	}
	if target.Kind == TargetArrayElement && len(target.Path) == depth {
		target.Index = next
	} else {
		path := append(Path(nil), target.Path...)
		path[depth] = Index(next)
		target.Path = path
	}
	s.pending = target
}

// SetPending records where the next media pick goes. The target must resolve
// to an image or URL field of an existing block.
func (s *Session) SetPending(target SelectionTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !target.Pending() {
		s.pending = SelectionTarget{}
		return nil
	}
	idx := s.indexOf(target.BlockID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBlockNotFound, target.BlockID)
	}
	def, ok := s.catalog.Lookup(s.blocks[idx].Type)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, s.blocks[idx].Type)
	}
	field, err := FieldAt(def, target.FieldPath())
	if err != nil {
		return err
	}
	if field.Type != component.FieldImage && field.Type != component.FieldURL {
		return fmt.Errorf("%w: %s is %s", ErrNotEditable, target.FieldPath(), field.Type)
	}
	s.pending = target
	s.touch()
	return nil
}

// Pending returns the current selection target.
func (s *Session) Pending() SelectionTarget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// CancelSelection clears the pending target.
func (s *Session) CancelSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = SelectionTarget{}
}

// SelectMedia writes url into the pending target and clears it.
func (s *Session) SelectMedia(url string) (component.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.pending
	if !target.Pending() {
		return component.Block{}, ErrNoSelectionTarget
	}
	block, err := s.edit(target.BlockID, func(def component.Definition, data map[string]any) (map[string]any, error) {
		return ApplySelection(def, data, target, url)
	})
	if err != nil {
		return component.Block{}, err
	}
	s.pending = SelectionTarget{}
	return block, nil
}

// Save hands a snapshot of the blocks to persist under the save state
// machine. The draft is left as it was whether or not persist succeeds.
func (s *Session) Save(ctx context.Context, persist func(context.Context, []component.Block) error) error {
	blocks := s.Blocks()
	return s.saves.Run(ctx, "saved", func(ctx context.Context) error {
		return persist(ctx, blocks)
	})
}

// SaveState reports the save state machine.
func (s *Session) SaveState() (SaveState, Outcome, string) {
	return s.saves.State()
}

func (s *Session) lastTouched() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) touch() {
	s.touched = s.now()
}

func (s *Session) indexOf(id string) int {
	for i, block := range s.blocks {
		if block.ID == id {
			return i
		}
	}
	return -1
}

func cloneBlock(block component.Block) component.Block {
	return component.Block{
		ID:   block.ID,
		Type: block.Type,
		Data: component.CloneMap(block.Data),
	}
}

func cloneBlocks(blocks []component.Block) []component.Block {
	out := make([]component.Block, len(blocks))
	for i, block := range blocks {
		out[i] = cloneBlock(block)
	}
	return out
}
