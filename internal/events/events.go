// Package events announces habit and completion changes to other services.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type Type string

const (
	HabitCreated       Type = "habit.created"
	HabitDeleted       Type = "habit.deleted"
	CompletionRecorded Type = "completion.recorded"
	CompletionRemoved  Type = "completion.removed"
)

type Event struct {
	Type           Type      `json:"type"`
	HabitID        string    `json:"habit_id"`
	HabitName      string    `json:"habit_name,omitempty"`
	IsPhotoAllowed bool      `json:"is_photo_allowed"`
	Date           string    `json:"date,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func ForHabit(t Type, h models.Habit, at time.Time) Event {
	return Event{Type: t, HabitID: h.ID, HabitName: h.Name, IsPhotoAllowed: h.IsPhotoAllowed, OccurredAt: at}
}

func ForCompletion(t Type, h models.Habit, day, at time.Time) Event {
	e := ForHabit(t, h, at)
	e.Date = utils.FormatDate(day)
	return e
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// New returns an AMQP publisher when url is set and a no-op one otherwise.
func New(url, queue string) (Publisher, error) {
	if url == "" {
		return Noop{}, nil
	}
	return NewAMQP(url, queue)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
