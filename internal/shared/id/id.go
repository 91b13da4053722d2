// Package id generates the prefixed, time-sortable identifiers used across
// sketchbox: preview runs, history entries, streams and trace spans.
//
// Every ID has the form prefix_ULID. ULIDs sort by creation time, and the
// generator uses monotonic entropy so IDs minted within one millisecond
// still sort in order.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one program handed to a runner
type RunID string

// PreviewID identifies a headless preview request
type PreviewID string

// HistoryID identifies a stored run in the local history
type HistoryID string

// StreamID identifies a live preview stream connection
type StreamID string

// RequestID identifies an inbound API request
type RequestID string

// TraceID and SpanID identify tracing spans
type (
	TraceID string
	SpanID  string
)

const (
	RunPrefix     = "run"
	PreviewPrefix = "prv"
	HistoryPrefix = "hist"
	StreamPrefix  = "strm"
	RequestPrefix = "req"
	TracePrefix   = "trc"
	SpanPrefix    = "spn"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader, time.Now)
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source
// and clock, for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     now,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

func NewRunID() RunID         { return RunID(Default().GenerateWithPrefix(RunPrefix)) }
func NewPreviewID() PreviewID { return PreviewID(Default().GenerateWithPrefix(PreviewPrefix)) }
func NewHistoryID() HistoryID { return HistoryID(Default().GenerateWithPrefix(HistoryPrefix)) }
func NewStreamID() StreamID   { return StreamID(Default().GenerateWithPrefix(StreamPrefix)) }
func NewRequestID() RequestID { return RequestID(Default().GenerateWithPrefix(RequestPrefix)) }
func NewTraceID() TraceID     { return TraceID(Default().GenerateWithPrefix(TracePrefix)) }
func NewSpanID() SpanID       { return SpanID(Default().GenerateWithPrefix(SpanPrefix)) }

func (id RunID) String() string     { return string(id) }
func (id PreviewID) String() string { return string(id) }
func (id HistoryID) String() string { return string(id) }
func (id StreamID) String() string  { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id TraceID) String() string   { return string(id) }
func (id SpanID) String() string    { return string(id) }

// Split separates a prefixed ID into its prefix and ULID.
func Split(id string) (string, ulid.ULID, error) {
	prefix, rest, ok := strings.Cut(id, "_")
	if !ok {
		rest, prefix = id, ""
	}
	u, err := ulid.ParseStrict(rest)
	if err != nil {
		return "", ulid.ULID{}, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return prefix, u, nil
}

// IsValid reports whether id is a ULID, with or without a prefix.
func IsValid(id string) bool {
	_, _, err := Split(id)
	return err == nil
}

// HasPrefix reports whether id is valid and carries prefix.
func HasPrefix(id, prefix string) bool {
	p, _, err := Split(id)
	return err == nil && p == prefix
}

// Timestamp extracts the creation time from a prefixed or bare ID.
func Timestamp(id string) (time.Time, error) {
	_, u, err := Split(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
