package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Phase is the state of the drag gesture.
type Phase int

const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// Gesture is the in-flight drag, if any. Origin is the category shelf the
// drag started on, or empty for status and unassigned shelves.
type Gesture struct {
	Phase  Phase
	BookID string
	Origin string
}

// TargetKind distinguishes drop targets.
type TargetKind string

const (
	TargetCategory     TargetKind = "category"
	TargetStatus       TargetKind = "status"
	TargetRemoveOrigin TargetKind = "remove-origin"
	TargetRemoveAll    TargetKind = "remove-all"
)

// Target is a place a dragged book can be dropped. ID is the category ID or
// status for category and status targets.
type Target struct {
	Kind TargetKind
	ID   string
}

// String renders the target in the form ParseTarget accepts.
func (t Target) String() string {
	switch t.Kind {
	case TargetRemoveOrigin:
		return "remove:origin"
	case TargetRemoveAll:
		return "remove:all"
	default:
		return string(t.Kind) + ":" + t.ID
	}
}

// ParseTarget reads "category:<id>", "status:<status>", "remove:origin" or
// "remove:all".
func ParseTarget(s string) (Target, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return Target{}, fmt.Errorf("%w: target %q", types.ErrInvalidTransition, s)
	}
	switch kind {
	case "category":
		return Target{Kind: TargetCategory, ID: id}, nil
	case "status":
		if !types.IsValidStatus(id) {
			return Target{}, fmt.Errorf("%w: %q", types.ErrInvalidState, id)
		}
		return Target{Kind: TargetStatus, ID: id}, nil
	case "remove":
		switch id {
		case "origin":
			return Target{Kind: TargetRemoveOrigin}, nil
		case "all":
			return Target{Kind: TargetRemoveAll}, nil
		}
	}
	return Target{}, fmt.Errorf("%w: target %q", types.ErrInvalidTransition, s)
}

// StartDrag moves the gesture from Idle to Dragging. origin is the category
// shelf the book was picked up from, or empty. The book must be in the
// snapshot and, when origin is set, belong to that category.
func (e *Engine) StartDrag(bookID, origin string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gesture.Phase == Dragging {
		return fmt.Errorf("%w: already dragging %s", types.ErrInvalidTransition, e.gesture.BookID)
	}
	book, ok := e.model.Book(bookID)
	if !ok {
		return fmt.Errorf("dragging book %s: %w", bookID, types.ErrNotFound)
	}
	if origin != "" {
		if _, ok := e.model.Category(origin); !ok || !book.HasCategory(origin) {
			return fmt.Errorf("%w: %s is not on shelf %s", types.ErrInvalidCategory, bookID, origin)
		}
	}
	e.gesture = Gesture{Phase: Dragging, BookID: bookID, Origin: origin}
	e.log.Debug("drag started", bookField(bookID), categoryField(origin))
	return nil
}

// CancelDrag abandons the gesture without touching the store. It reports
// whether a drag was in flight.
func (e *Engine) CancelDrag() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	was := e.gesture.Phase == Dragging
	e.gesture = Gesture{}
	return was
}

// Gesture returns the current gesture.
func (e *Engine) Gesture() Gesture {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gesture
}

// DropTargets lists the targets valid for the current gesture, or nil when
// idle. The remove-origin target is offered only for category-originated drags.
func (e *Engine) DropTargets() []Target {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture.Phase != Dragging {
		return nil
	}
	var targets []Target
	for _, s := range types.Statuses {
		targets = append(targets, Target{Kind: TargetStatus, ID: s})
	}
	for _, c := range e.model.Categories() {
		targets = append(targets, Target{Kind: TargetCategory, ID: c.CategoryID})
	}
	if e.gesture.Origin != "" {
		targets = append(targets, Target{Kind: TargetRemoveOrigin})
	}
	return append(targets, Target{Kind: TargetRemoveAll})
}

// Drop resolves the gesture on target and returns it to Idle whatever the
// outcome. Dropping while idle fails with ErrInvalidTransition.
func (e *Engine) Drop(ctx context.Context, target Target) (Outcome, error) {
	e.mu.Lock()
	g := e.gesture
	e.gesture = Gesture{}
	book, ok := e.model.Book(g.BookID)
	e.mu.Unlock()

	if g.Phase != Dragging {
		return Failed, fmt.Errorf("%w: no drag in flight", types.ErrInvalidTransition)
	}
	if !ok {
		return Failed, fmt.Errorf("dropping book %s: %w", g.BookID, types.ErrNotFound)
	}
	e.log.Debug("drop", bookField(g.BookID), categoryField(g.Origin), zapTarget(target))

	switch target.Kind {
	case TargetCategory:
		return e.addToCategory(ctx, book, target.ID)
	case TargetStatus:
		return e.setStatus(ctx, book, target.ID)
	case TargetRemoveOrigin:
		if g.Origin == "" {
			return Failed, fmt.Errorf("%w: drag did not start on a category shelf", types.ErrInvalidTransition)
		}
		return e.removeFromCategory(ctx, book, g.Origin, removeOriginPrompt(book.BookID, g.Origin))
	case TargetRemoveAll:
		return e.removeFromAll(ctx, book)
	default:
		return Failed, fmt.Errorf("%w: target %q", types.ErrInvalidTransition, target.Kind)
	}
}

// DropOnCategory drops the dragged book on a category shelf header.
func (e *Engine) DropOnCategory(ctx context.Context, categoryID string) (Outcome, error) {
	return e.Drop(ctx, Target{Kind: TargetCategory, ID: categoryID})
}

// DropOnStatus drops the dragged book on a status shelf header.
func (e *Engine) DropOnStatus(ctx context.Context, status string) (Outcome, error) {
	return e.Drop(ctx, Target{Kind: TargetStatus, ID: status})
}

// DropRemoveFromOrigin drops the dragged book on the "remove from this
// category" target.
func (e *Engine) DropRemoveFromOrigin(ctx context.Context) (Outcome, error) {
	return e.Drop(ctx, Target{Kind: TargetRemoveOrigin})
}

// DropRemoveFromAll drops the dragged book on the "remove from all
// categories" target.
func (e *Engine) DropRemoveFromAll(ctx context.Context) (Outcome, error) {
	return e.Drop(ctx, Target{Kind: TargetRemoveAll})
}
