package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustUserID(t *testing.T, id string) UserID {
	t.Helper()
	uid, err := NewUserID(id)
	require.NoError(t, err)
	return uid
}

func TestNewPairKey_CanonicalOrder(t *testing.T) {
	alice := mustUserID(t, "alice")
	bob := mustUserID(t, "bob")

	forward, err := NewPairKey(alice, bob)
	require.NoError(t, err)

	reverse, err := NewPairKey(bob, alice)
	require.NoError(t, err)

	assert.Equal(t, "alice#bob", forward.String())
	assert.Equal(t, forward.String(), reverse.String())
	assert.Equal(t, "alice", forward.First().String())
	assert.Equal(t, "bob", forward.Second().String())
}

func TestNewPairKey_RejectsSelfPair(t *testing.T) {
	alice := mustUserID(t, "alice")

	_, err := NewPairKey(alice, alice)
	assert.Error(t, err)
}

func TestNewPairKey_RejectsZeroUser(t *testing.T) {
	alice := mustUserID(t, "alice")

	_, err := NewPairKey(alice, UserID{})
	assert.Error(t, err)

	_, err = NewPairKey(UserID{}, alice)
	assert.Error(t, err)
}

func TestParsePairKey_RoundTrip(t *testing.T) {
	original, err := NewPairKey(mustUserID(t, "user-9"), mustUserID(t, "user-10"))
	require.NoError(t, err)

	parsed, err := ParsePairKey(original.String())
	require.NoError(t, err)

	assert.Equal(t, original, parsed)
}

func TestNewUserID_RejectsDelimiter(t *testing.T) {
	// "#" separates the two halves of a pair key, so an ID carrying it
	// would make ParsePairKey ambiguous
	_, err := NewUserID("al#ice")
	assert.Error(t, err)

	var uid UserID
	assert.Error(t, uid.UnmarshalJSON([]byte(`"al#ice"`)))
}

func TestParsePairKey_Malformed(t *testing.T) {
	_, err := ParsePairKey("no-separator")
	assert.Error(t, err)

	_, err = ParsePairKey("#dangling")
	assert.Error(t, err)
}

func TestPairKey_Other(t *testing.T) {
	alice := mustUserID(t, "alice")
	bob := mustUserID(t, "bob")
	carol := mustUserID(t, "carol")

	pair, err := NewPairKey(bob, alice)
	require.NoError(t, err)

	other, ok := pair.Other(alice)
	require.True(t, ok)
	assert.Equal(t, bob, other)

	other, ok = pair.Other(bob)
	require.True(t, ok)
	assert.Equal(t, alice, other)

	_, ok = pair.Other(carol)
	assert.False(t, ok)

	assert.True(t, pair.Contains(alice))
	assert.False(t, pair.Contains(carol))
}
