package scan

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one orchestrator invocation across one or more target
// directories. It exists only in memory plus as a foreign key on file rows
// and scan_logs entries; there is no sessions table.
type Session struct {
	ID        string
	StartedAt time.Time
	Component string
}

// NewSession mints a session with a fresh UUID.
func NewSession() Session {
	return Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Component: "file_scanner",
	}
}
