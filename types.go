package zipstream

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Outcome describes how a download ended.
type Outcome string

const (
	// OutcomeCompleted means the archiver exited on its own with status 0
	// after the whole output was relayed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeAborted means the transfer stopped early (client gone, write
	// failure, stall) and the archiver was killed.
	OutcomeAborted Outcome = "aborted"
	// OutcomeAnomaly means the output was relayed to the end but the archiver
	// exited with a non-zero status. The client may hold a corrupt archive.
	OutcomeAnomaly Outcome = "anomaly"
)

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeCompleted, OutcomeAborted, OutcomeAnomaly:
		return true
	default:
		return false
	}
}

func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(s)
	if !o.IsValid() {
		return "", fmt.Errorf("invalid outcome: %s (valid outcomes: completed, aborted, anomaly)", s)
	}
	return o, nil
}

// Download is the record of a single archive transfer.
type Download struct {
	ID         uuid.UUID `json:"id"`
	Archive    string    `json:"archive"`
	Outcome    Outcome   `json:"outcome"`
	BytesSent  int64     `json:"bytes_sent"`
	Chunks     int64     `json:"chunks"`
	ExitCode   int       `json:"exit_code"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration returns how long the transfer took.
func (d Download) Duration() time.Duration {
	return d.FinishedAt.Sub(d.StartedAt)
}

type ListQuery struct {
	Archive string
	Limit   int
	Cursor  string
}

type ListResult struct {
	Items      []Download `json:"items"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// StreamConfig controls the relay loop of an Archive.
type StreamConfig struct {
	// ChunkSize is the maximum number of bytes read from the archiver per chunk.
	ChunkSize int
	// Delay is a pause after every chunk write. Zero disables throttling.
	Delay time.Duration
	// Grace is how long Close waits for the archiver to exit after its
	// output reached end-of-stream before killing it.
	Grace time.Duration
}

const (
	DefaultChunkSize = 50_000
	DefaultGrace     = 2 * time.Second
)

func (c StreamConfig) withDefaults() StreamConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Delay < 0 {
		c.Delay = 0
	}
	if c.Grace <= 0 {
		c.Grace = DefaultGrace
	}
	return c
}

// Tables holds configurable table names for download history storage.
type Tables struct {
	Downloads string `mapstructure:"downloads"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Downloads == "" {
		return errors.New("validate tables: downloads table name cannot be empty")
	}

	if !IsValidTableName(t.Downloads) {
		return fmt.Errorf("validate tables: invalid downloads table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Downloads)
	}

	return nil
}
