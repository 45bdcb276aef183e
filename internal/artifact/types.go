// Package artifact reads and writes the files plansync produces: the
// rendered roadmap and JSON reports. JSON artifacts carry a _plansync
// provenance block whose checksum covers the rest of the document.

package artifact

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
)

// Kind selects how an artifact is serialized.
type Kind string

const (
	// KindDocument is written byte for byte so it stays comparable with a
	// fresh render.
	KindDocument Kind = "document"
	// KindJSON is a JSON object that gains a provenance block on write.
	KindJSON Kind = "json"
)

// MetadataKey is the JSON key holding artifact provenance.
const MetadataKey = "_plansync"

// Ref identifies an artifact and where it lives.
type Ref struct {
	ID   string
	Kind Kind
	Path string
}

// Validate ensures the reference is well-formed.
func (r Ref) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("artifact: id is required")
	case r.Kind != KindDocument && r.Kind != KindJSON:
		return fmt.Errorf("artifact: unknown kind %q for %s", r.Kind, r.ID)
	case r.Path == "":
		return fmt.Errorf("artifact: path missing for %s", r.ID)
	}
	return nil
}

// RenderedPlan is the Markdown rendering of a roadmap document.
func RenderedPlan(path string) Ref {
	return Ref{ID: "rendered-plan", Kind: KindDocument, Path: filepath.Clean(path)}
}

// GateReport is the JSON report of a compliance gate run.
func GateReport(path string) Ref {
	return Ref{ID: "gate-report", Kind: KindJSON, Path: filepath.Clean(path)}
}

// Metadata is the provenance block stored under MetadataKey.
type Metadata struct {
	ArtifactID string            `json:"artifact"`
	Generator  string            `json:"generator"`
	Version    string            `json:"version"`
	Inputs     []string          `json:"inputs"`
	CreatedAt  time.Time         `json:"created"`
	Checksum   string            `json:"checksum"`
	Notes      map[string]string `json:"notes,omitempty"`
}

func (m Metadata) prepare(ref Ref, now time.Time) (Metadata, error) {
	out := m
	if out.ArtifactID == "" {
		out.ArtifactID = ref.ID
	}
	if out.ArtifactID != ref.ID {
		return out, fmt.Errorf("artifact: metadata id %s does not match %s", out.ArtifactID, ref.ID)
	}
	if out.Generator == "" {
		return out, fmt.Errorf("artifact: generator is required for %s", ref.ID)
	}
	if out.Version == "" {
		return out, fmt.Errorf("artifact: version is required for %s", ref.ID)
	}
	if out.Inputs == nil {
		out.Inputs = []string{}
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.CreatedAt = out.CreatedAt.UTC().Truncate(time.Second)
	return out, nil
}

// State is what Check found on disk.
type State string

const (
	StateMissing State = "missing"
	StateReady   State = "ready"
	StateInvalid State = "invalid"
	StateError   State = "error"
)

// CheckResult describes an artifact on disk. Body is set for ready
// artifacts; Metadata only for ready JSON artifacts.
type CheckResult struct {
	Ref      Ref
	State    State
	Body     []byte
	Metadata *Metadata
	Err      error
}

// Checksum returns the BLAKE3 checksum of body in "blake3:<hex>" form.
func Checksum(body []byte) string {
	sum := blake3.Sum256(body)
	return "blake3:" + hex.EncodeToString(sum[:])
}
