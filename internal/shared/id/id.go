// Package id provides ULID-based identifiers for the embed host.
//
// IDs are prefixed by kind (ws_*, emb_*) so they stay readable in logs. The
// workspace ID doubles as the directory name handed to the foreign process,
// and therefore as the fragment its window title is matched against, so it
// must be unique and contain no path separators.
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

// WorkspaceID identifies an ephemeral workspace directory
type WorkspaceID string

// EmbedID identifies a single embed attempt, for log correlation
type EmbedID string

const (
	WorkspacePrefix = "ws"
	EmbedPrefix     = "emb"
	TracePrefix     = "trc"
	SpanPrefix      = "spn"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source,
// useful for deterministic tests
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewWorkspaceID generates a new workspace ID
func NewWorkspaceID() WorkspaceID {
	return WorkspaceID(Default().GenerateWithPrefix(WorkspacePrefix))
}

// NewEmbedID generates a new embed attempt ID
func NewEmbedID() EmbedID {
	return EmbedID(Default().GenerateWithPrefix(EmbedPrefix))
}

// NewTraceID generates an ID for one traced HTTP request
func NewTraceID() string {
	return Default().GenerateWithPrefix(TracePrefix)
}

// NewSpanID generates an ID for a span within a trace
func NewSpanID() string {
	return Default().GenerateWithPrefix(SpanPrefix)
}

func (id WorkspaceID) String() string { return string(id) }
func (id EmbedID) String() string     { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time of a prefixed or bare ID
func Timestamp(id string) (time.Time, error) {
	if i := strings.IndexByte(id, '_'); i >= 0 {
		id = id[i+1:]
	}
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
