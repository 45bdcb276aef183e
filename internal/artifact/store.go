package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Store reads and writes artifacts.
type Store struct {
	now func() time.Time
}

// StoreOption customizes a Store during construction.
type StoreOption func(*Store)

// WithClock overrides the clock used for metadata timestamps.
func WithClock(clock func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = clock
	}
}

// NewStore builds a store.
func NewStore(opts ...StoreOption) *Store {
	store := &Store{now: time.Now}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Check reads the artifact at ref.Path. A missing file is StateMissing with
// a nil error. JSON artifacts must carry intact provenance to be ready.
func (s *Store) Check(ref Ref) (CheckResult, error) {
	result := CheckResult{Ref: ref}
	fail := func(state State, err error) (CheckResult, error) {
		result.State, result.Err = state, err
		return result, err
	}
	if err := ref.Validate(); err != nil {
		return fail(StateError, err)
	}
	data, err := os.ReadFile(ref.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		result.State = StateMissing
		return result, nil
	case err != nil:
		if info, statErr := os.Stat(ref.Path); statErr == nil && info.IsDir() {
			return fail(StateInvalid, fmt.Errorf("artifact: %s is a directory", ref.Path))
		}
		return fail(StateError, fmt.Errorf("artifact: read %s: %w", ref.Path, err))
	}
	if ref.Kind == KindJSON {
		meta, err := verifyJSON(ref, data)
		if err != nil {
			return fail(StateInvalid, err)
		}
		result.Metadata = &meta
	}
	result.State = StateReady
	result.Body = data
	return result, nil
}

// Write persists body at ref.Path, creating parent directories. JSON bodies
// must be objects; meta is completed and stored under MetadataKey with a
// checksum of the canonical body.
func (s *Store) Write(ref Ref, body []byte, meta Metadata) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if ref.Kind == KindJSON {
		encoded, err := s.encodeJSON(ref, body, meta)
		if err != nil {
			return err
		}
		body = encoded
	}
	if err := os.MkdirAll(filepath.Dir(ref.Path), 0o755); err != nil {
		return fmt.Errorf("artifact: create directory for %s: %w", ref.Path, err)
	}
	if err := os.WriteFile(ref.Path, body, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", ref.Path, err)
	}
	return nil
}

func (s *Store) encodeJSON(ref Ref, body []byte, meta Metadata) ([]byte, error) {
	payload, canonical, err := canonicalize(body)
	if err != nil {
		return nil, fmt.Errorf("artifact: %s body: %w", ref.ID, err)
	}
	prepared, err := meta.prepare(ref, s.now())
	if err != nil {
		return nil, err
	}
	prepared.Checksum = Checksum(canonical)
	block, err := json.Marshal(prepared)
	if err != nil {
		return nil, fmt.Errorf("artifact: encode metadata for %s: %w", ref.ID, err)
	}
	payload[MetadataKey] = block
	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("artifact: encode %s: %w", ref.ID, err)
	}
	return append(out, '\n'), nil
}

func verifyJSON(ref Ref, data []byte) (Metadata, error) {
	var meta Metadata
	payload, canonical, err := canonicalize(data)
	if err != nil {
		return meta, fmt.Errorf("artifact: %s: %w", ref.Path, err)
	}
	block, ok := payload[MetadataKey]
	if !ok {
		return meta, fmt.Errorf("artifact: %s has no %s block", ref.Path, MetadataKey)
	}
	if err := json.Unmarshal(block, &meta); err != nil {
		return meta, fmt.Errorf("artifact: decode %s block: %w", MetadataKey, err)
	}
	if meta.ArtifactID != ref.ID {
		return meta, fmt.Errorf("artifact: %s holds %q, want %q", ref.Path, meta.ArtifactID, ref.ID)
	}
	if meta.Generator == "" || meta.Version == "" {
		return meta, fmt.Errorf("artifact: %s has incomplete provenance", ref.Path)
	}
	if sum := Checksum(canonical); sum != meta.Checksum {
		return meta, fmt.Errorf("artifact: %s checksum mismatch: recorded %s, content %s", ref.Path, meta.Checksum, sum)
	}
	return meta, nil
}

// canonicalize decodes a JSON object and returns it together with its
// compact, key-sorted encoding excluding the provenance block.
func canonicalize(body []byte) (map[string]json.RawMessage, []byte, error) {
	if len(body) == 0 {
		body = []byte("{}")
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, fmt.Errorf("invalid json: %w", err)
	}
	if payload == nil {
		return nil, nil, fmt.Errorf("json must be an object")
	}
	rest := make(map[string]json.RawMessage, len(payload))
	for key, value := range payload {
		if key != MetadataKey {
			rest[key] = value
		}
	}
	canonical, err := json.Marshal(rest)
	if err != nil {
		return nil, nil, err
	}
	return payload, canonical, nil
}
