package registry

import (
	"sync"

	"github.com/xraph/multi/errors"
	"github.com/xraph/multi/internal/container"
	"github.com/xraph/multi/internal/provider"
)

// Record is one multi-contribution to a token.
type Record struct {
	// Key is the private token the contribution is provided under.
	Key   *provider.Key
	Token provider.Token
	// Owner refers to the module that declared the contribution.
	Owner container.ForwardRef
	// Provider is the contribution keyed under Key.
	Provider   *provider.Provider
	Standalone bool
	// Seq is the registration sequence number across all tokens.
	Seq int
}

// Replacement returns the provider that must stay in the owner module, or
// nil when the contribution is standalone.
func (r Record) Replacement() *provider.Provider {
	if r.Standalone {
		return nil
	}
	return r.Provider
}

// Registry maps tokens to their contributions in registration order.
type Registry struct {
	mu      sync.RWMutex
	records map[provider.Token][]Record
	tokens  []provider.Token
	frozen  bool
	seq     int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		records: make(map[provider.Token][]Record),
	}
}

// Register appends rec to the records of rec.Token.
func (r *Registry) Register(rec Record) error {
	if err := provider.ValidateToken(rec.Token); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return errors.ErrCompositionState("register", "finalized")
	}

	if _, ok := r.records[rec.Token]; !ok {
		r.tokens = append(r.tokens, rec.Token)
	}
	rec.Seq = r.seq
	r.seq++
	r.records[rec.Token] = append(r.records[rec.Token], rec)
	return nil
}

// List returns a copy of the records for token. The result is never nil.
func (r *Registry) List(token provider.Token) []Record {
	if provider.ValidateToken(token) != nil {
		return []Record{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, len(r.records[token]))
	copy(out, r.records[token])
	return out
}

// Has reports whether token has at least one record.
func (r *Registry) Has(token provider.Token) bool {
	if provider.ValidateToken(token) != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records[token]) > 0
}

// Tokens returns the tokens with records, in first registration order.
func (r *Registry) Tokens() []provider.Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]provider.Token(nil), r.tokens...)
}

// Len returns the total number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

// Snapshot returns a copy of every token's records.
func (r *Registry) Snapshot() map[provider.Token][]Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[provider.Token][]Record, len(r.records))
	for tok, recs := range r.records {
		out[tok] = append([]Record(nil), recs...)
	}
	return out
}

// Freeze rejects further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Reset clears all records and unfreezes the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = make(map[provider.Token][]Record)
	r.tokens = nil
	r.frozen = false
	r.seq = 0
}
