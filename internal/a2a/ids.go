package a2a

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a fresh hex identifier for messages, tasks, contexts, and
// streams. Dashes are stripped to match the identifiers the rest of the
// protocol ecosystem emits.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
