package cache

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type Memory struct {
	mu      sync.RWMutex
	entries map[string]map[string]models.HabitStats
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]map[string]models.HabitStats)}
}

func (m *Memory) Get(_ context.Context, habitID string, day time.Time) (models.HabitStats, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.entries[habitID][utils.FormatDate(day)]
	return st, ok, nil
}

func (m *Memory) Set(_ context.Context, st models.HabitStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.entries[st.HabitID]
	if !ok {
		days = make(map[string]models.HabitStats)
		m.entries[st.HabitID] = days
	}
	days[utils.FormatDate(st.AsOf)] = st
	return nil
}

func (m *Memory) Invalidate(_ context.Context, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, habitID)
	return nil
}

func (m *Memory) Close() error { return nil }
