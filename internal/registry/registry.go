package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/nao1215/puzzlecrawl/internal/fsutil"
	"github.com/nao1215/puzzlecrawl/internal/model"
)

var (
	// ErrMissingRegistry is returned by Load when the registry file does not exist.
	ErrMissingRegistry = errors.New("session registry not found; add a session first")

	// ErrNoPrimaryIdentity is returned when no primary identity is set.
	ErrNoPrimaryIdentity = errors.New("no primary identity set")

	// ErrEmptyIdentity is returned when adding a credential without an identity.
	ErrEmptyIdentity = errors.New("identity must not be empty")

	// ErrEmptyCredential is returned when adding an empty credential.
	ErrEmptyCredential = errors.New("credential must not be empty")
)

// filePerm keeps the registry private to its owner.
const filePerm = 0o600

// Registry maps identities to credentials and marks one identity primary.
type Registry struct {
	primary     model.Identity
	credentials map[model.Identity]model.Credential
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{credentials: make(map[model.Identity]model.Credential)}
}

// Add inserts or replaces the credential of identity. With primary set, or
// when no primary exists yet, identity becomes the primary.
func (r *Registry) Add(identity model.Identity, credential model.Credential, primary bool) error {
	if !identity.Known() {
		return ErrEmptyIdentity
	}
	if credential == "" {
		return ErrEmptyCredential
	}
	r.credentials[identity] = credential
	if primary || !r.primary.Known() {
		r.primary = identity
	}
	return nil
}

// Primary returns the primary identity.
func (r *Registry) Primary() (model.Identity, error) {
	if !r.primary.Known() {
		return model.NoIdentity, ErrNoPrimaryIdentity
	}
	if _, ok := r.credentials[r.primary]; !ok {
		return model.NoIdentity, fmt.Errorf("%w: primary %s has no credential", ErrNoPrimaryIdentity, r.primary)
	}
	return r.primary, nil
}

// PrimaryCredential returns the credential of the primary identity.
func (r *Registry) PrimaryCredential() (model.Credential, error) {
	id, err := r.Primary()
	if err != nil {
		return "", err
	}
	return r.credentials[id], nil
}

// Credential returns the credential of identity.
func (r *Registry) Credential(identity model.Identity) (model.Credential, bool) {
	c, ok := r.credentials[identity]
	return c, ok
}

// Identities returns all identities in sorted order.
func (r *Registry) Identities() []model.Identity {
	return slices.Sorted(maps.Keys(r.credentials))
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	return len(r.credentials)
}

// Load reads the registry at path. A missing file is ErrMissingRegistry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path from configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingRegistry, path)
		}
		return nil, fmt.Errorf("failed to read session registry: %w", err)
	}

	r := New()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse session registry %s: %w", path, err)
	}
	return r, nil
}

// LoadOrEmpty is Load, except a missing file yields an empty registry.
// Only registration should use it.
func LoadOrEmpty(path string) (*Registry, error) {
	r, err := Load(path)
	if errors.Is(err, ErrMissingRegistry) {
		return New(), nil
	}
	return r, err
}

// Save writes the registry to path atomically.
func (r *Registry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode session registry: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), filePerm); err != nil {
		return fmt.Errorf("failed to write session registry: %w", err)
	}
	return nil
}

// fileFormat is the on-disk layout. Field order gives sorted keys.
type fileFormat struct {
	Cookies map[string]string `json:"cookies"`
	Primary json.RawMessage   `json:"primary"`
}

// MarshalJSON implements json.Marshaler.
func (r *Registry) MarshalJSON() ([]byte, error) {
	f := fileFormat{Cookies: make(map[string]string, len(r.credentials))}
	for id, c := range r.credentials {
		f.Cookies[string(id)] = c.Secret()
	}

	switch {
	case !r.primary.Known():
		f.Primary = json.RawMessage("null")
	case isNumeric(string(r.primary)):
		f.Primary = json.RawMessage(r.primary)
	default:
		quoted, err := json.Marshal(string(r.primary))
		if err != nil {
			return nil, err
		}
		f.Primary = quoted
	}
	return json.Marshal(f)
}

// UnmarshalJSON implements json.Unmarshaler. The primary may be a number,
// a string or null.
func (r *Registry) UnmarshalJSON(data []byte) error {
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	r.credentials = make(map[model.Identity]model.Credential, len(f.Cookies))
	for id, c := range f.Cookies {
		r.credentials[model.Identity(id)] = model.Credential(c)
	}

	r.primary = model.NoIdentity
	raw := bytes.TrimSpace(f.Primary)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("invalid primary: %w", err)
		}
		r.primary = model.Identity(s)
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return fmt.Errorf("invalid primary: %w", err)
		}
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return fmt.Errorf("invalid primary %s: not an integer", n)
		}
		r.primary = model.Identity(n.String())
	}
	return nil
}

func isNumeric(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 63)
	return err == nil
}
