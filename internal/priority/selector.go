package priority

import (
	"context"
	"errors"
	"sync"

	"taskspace/internal/model"
)

var (
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrUpdateInProgress = errors.New("priority update already in progress")
)

// FallbackMessage is shown when a failed update carries no message.
const FallbackMessage = "Failed to update priority"

// TaskUpdater persists a full task.
type TaskUpdater interface {
	Update(ctx context.Context, task *model.Task) error
}

// Notifier displays a transient message to the user.
type Notifier interface {
	Notify(message string)
}

// OptionView is an Option as rendered for one task.
type OptionView struct {
	Value    model.Priority `json:"value"`
	Label    string         `json:"label"`
	Icon     string         `json:"icon"`
	Selected bool           `json:"selected"`
}

// Selector holds the popover state for changing one task's priority.
type Selector struct {
	updater  TaskUpdater
	notifier Notifier
	icons    IconProvider

	mu      sync.Mutex
	task    model.Task
	open    bool
	pending bool
}

// NewSelector builds a closed selector for task. A nil notifier drops messages.
func NewSelector(task *model.Task, updater TaskUpdater, notifier Notifier) *Selector {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Selector{
		task:     *task,
		updater:  updater,
		notifier: notifier,
		icons:    DefaultIcons,
	}
}

// WithIcons replaces the icon provider.
func (s *Selector) WithIcons(icons IconProvider) *Selector {
	s.icons = icons
	return s
}

func (s *Selector) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

func (s *Selector) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func (s *Selector) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Pending reports whether an update is in flight. Options are not selectable
// while it is true.
func (s *Selector) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Refresh swaps in the task as re-read after an update.
func (s *Selector) Refresh(task *model.Task) {
	s.mu.Lock()
	s.task = *task
	s.mu.Unlock()
}

// Options renders the option list; only the task's current priority is selected.
func (s *Selector) Options() []OptionView {
	s.mu.Lock()
	current := s.task.Priority
	s.mu.Unlock()

	views := make([]OptionView, len(Options))
	for i, o := range Options {
		views[i] = OptionView{
			Value:    o.Value,
			Label:    o.Label,
			Icon:     s.icons.Icon(o.Value),
			Selected: o.Value == current,
		}
	}
	return views
}

// Select sends the task with priority p to the updater. On success the
// selector closes; on failure the error message is passed to the notifier,
// the selector stays open and the error is returned. The local task is not
// changed either way.
func (s *Selector) Select(ctx context.Context, p model.Priority) error {
	if !p.Valid() {
		return ErrInvalidPriority
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrUpdateInProgress
	}
	s.pending = true
	updated := s.task
	s.mu.Unlock()

	updated.Priority = p
	err := s.updater.Update(ctx, &updated)

	s.mu.Lock()
	s.pending = false
	if err == nil {
		s.open = false
	}
	s.mu.Unlock()

	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = FallbackMessage
		}
		s.notifier.Notify(msg)
		return err
	}
	return nil
}

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}
