// Package academy holds the learner-facing state machines: the module
// selector, the per-module container with its three tabs, and the quiz.
//
// All types here are single-viewer state and are not safe for concurrent use;
// callers serialize access (see package session).
package academy

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/p-n-ai/f1-academy/internal/content"
)

// Selector is the top-level view state: which module is open and which
// modules have been completed in this session.
type Selector struct {
	catalog   *content.Catalog
	opts      ContainerOptions
	completed map[int]struct{}

	activeID int
	active   *Container
}

// NewSelector creates a selector on the home screen with nothing completed.
func NewSelector(catalog *content.Catalog, opts ContainerOptions) *Selector {
	return &Selector{
		catalog:   catalog,
		opts:      opts,
		completed: make(map[int]struct{}),
	}
}

// Modules returns the fixed module list in display order.
func (s *Selector) Modules() []content.Module {
	return s.catalog.Modules()
}

// SelectModule opens a module. Opening a different module unmounts the
// current one; re-selecting the open module keeps its state.
func (s *Selector) SelectModule(id int) error {
	m, ok := s.catalog.Module(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownModule, id)
	}
	if s.active != nil && s.activeID == id {
		return nil
	}
	s.unmount()

	var bundle *content.Bundle
	if b, ok := s.catalog.Bundle(id); ok {
		bundle = &b
	}
	s.activeID = id
	s.active = NewContainer(m, bundle, func() { s.completeFromQuiz(id) }, s.opts)
	return nil
}

// MarkComplete adds id to the completion set. It is idempotent.
func (s *Selector) MarkComplete(id int) error {
	if _, ok := s.catalog.Module(id); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownModule, id)
	}
	if _, done := s.completed[id]; done {
		return nil
	}
	s.completed[id] = struct{}{}
	slog.Debug("module completed", "module_id", id)
	return nil
}

// GoHome closes the open module, discarding its state.
func (s *Selector) GoHome() {
	s.unmount()
}

// Active returns the open module's container.
func (s *Selector) Active() (*Container, bool) {
	return s.active, s.active != nil
}

// ActiveID returns the open module's ID, or 0 on the home screen.
func (s *Selector) ActiveID() int {
	if s.active == nil {
		return 0
	}
	return s.activeID
}

// IsCompleted reports whether a module's quiz was completed in this session.
func (s *Selector) IsCompleted(id int) bool {
	_, ok := s.completed[id]
	return ok
}

// CompletedIDs returns the completion set in ascending order.
func (s *Selector) CompletedIDs() []int {
	ids := make([]int, 0, len(s.completed))
	for id := range s.completed {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Progress returns the number of completed modules and the module count.
func (s *Selector) Progress() (done, total int) {
	return len(s.completed), s.catalog.Len()
}

// Close releases the open container. The selector stays usable.
func (s *Selector) Close() {
	s.unmount()
}

func (s *Selector) completeFromQuiz(id int) {
	// id comes from the catalog, so this cannot fail.
	_ = s.MarkComplete(id)
}

func (s *Selector) unmount() {
	if s.active != nil {
		s.active.Close()
	}
	s.active = nil
	s.activeID = 0
}
