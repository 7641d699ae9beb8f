// Package storage defines the persistence contract for habits and completion
// reports and selects a backend from a DSN.
package storage

import (
	"strings"

	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

// MemoryDSN selects the in-process store.
const MemoryDSN = "memory"

var (
	_ Provider = (*sqlite.Store)(nil)
	_ Provider = (*postgres.Store)(nil)
	_ Provider = (*memory.Store)(nil)
)

// New returns an unopened provider: a PostgreSQL store for postgres:// URLs,
// the memory store for MemoryDSN, and a SQLite file otherwise.
func New(dsn string) Provider {
	switch {
	case postgres.IsConnString(dsn):
		return postgres.New(dsn)
	case strings.EqualFold(dsn, MemoryDSN):
		return memory.NewStore()
	default:
		return sqlite.NewStore(dsn)
	}
}
