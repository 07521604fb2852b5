package provider

import (
	"errors"
	"sync/atomic"
)

// KeyRing hands out a provider's API keys round-robin so repeated calls
// spread load across the pool and a rate-limited key is not hammered twice
// in a row. Safe for concurrent use; the cursor only ever advances.
type KeyRing struct {
	keys   []string
	cursor atomic.Uint64
}

func NewKeyRing(keys []string) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, errors.New("key ring requires at least one API key")
	}
	return &KeyRing{keys: append([]string(nil), keys...)}, nil
}

// Next returns the next key in pool order, wrapping around. Callers use the
// key for exactly one call and never cache it.
func (r *KeyRing) Next() string {
	n := r.cursor.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

func (r *KeyRing) Len() int { return len(r.keys) }
