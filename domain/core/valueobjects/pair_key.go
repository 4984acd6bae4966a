package valueobjects

import (
	"errors"
	"fmt"
	"strings"
)

// PairKey is the canonical key for an unordered pair of users. The two IDs
// are normalized to lexicographic order so that (A,B) and (B,A) map to the
// same storage key. Connection edges and direct conversations are both
// keyed this way.
type PairKey struct {
	first  UserID
	second UserID
}

// NewPairKey builds the canonical key for two distinct users
func NewPairKey(a, b UserID) (PairKey, error) {
	if a.IsZero() || b.IsZero() {
		return PairKey{}, errors.New("pair key requires two user IDs")
	}
	if a.Equals(b) {
		return PairKey{}, errors.New("pair key requires two distinct users")
	}
	if b.Less(a) {
		a, b = b, a
	}
	return PairKey{first: a, second: b}, nil
}

// ParsePairKey rebuilds a PairKey from its storage representation
func ParsePairKey(s string) (PairKey, error) {
	parts := strings.SplitN(s, "#", 2)
	if len(parts) != 2 {
		return PairKey{}, fmt.Errorf("malformed pair key: %q", s)
	}
	a, err := NewUserID(parts[0])
	if err != nil {
		return PairKey{}, err
	}
	b, err := NewUserID(parts[1])
	if err != nil {
		return PairKey{}, err
	}
	return NewPairKey(a, b)
}

// First returns the lexicographically smaller user ID
func (k PairKey) First() UserID {
	return k.first
}

// Second returns the lexicographically larger user ID
func (k PairKey) Second() UserID {
	return k.second
}

// String returns the storage representation of the key
func (k PairKey) String() string {
	return fmt.Sprintf("%s#%s", k.first.String(), k.second.String())
}

// Contains reports whether the given user is part of the pair
func (k PairKey) Contains(id UserID) bool {
	return k.first.Equals(id) || k.second.Equals(id)
}

// Other returns the counterpart of the given user within the pair. The
// second return value is false when the user is not part of the pair.
func (k PairKey) Other(id UserID) (UserID, bool) {
	switch {
	case k.first.Equals(id):
		return k.second, true
	case k.second.Equals(id):
		return k.first, true
	default:
		return UserID{}, false
	}
}

// IsZero checks if the PairKey is the zero value
func (k PairKey) IsZero() bool {
	return k.first.IsZero() && k.second.IsZero()
}
