package valueobjects

import (
	"errors"
	"strings"
)

// UserID is a value object identifying a user. Identifiers are issued by the
// external identity provider; they must be non-empty and must not contain
// "#", which pair keys and storage keys use as a delimiter.
type UserID struct {
	value string
}

// NewUserID creates a UserID from an identity-provider subject
func NewUserID(id string) (UserID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return UserID{}, errors.New("user ID cannot be empty")
	}
	if strings.Contains(id, "#") {
		return UserID{}, errors.New("user ID cannot contain '#'")
	}
	return UserID{value: id}, nil
}

// String returns the string representation of the UserID
func (id UserID) String() string {
	return id.value
}

// Equals checks if two UserIDs are equal
func (id UserID) Equals(other UserID) bool {
	return id.value == other.value
}

// IsZero checks if the UserID is the zero value
func (id UserID) IsZero() bool {
	return id.value == ""
}

// Less reports whether this ID sorts before the other. Used to derive the
// canonical order of an unordered user pair.
func (id UserID) Less(other UserID) bool {
	return id.value < other.value
}

// MarshalJSON implements json.Marshaler
func (id UserID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *UserID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("UserID must be a string")
	}
	parsed, err := NewUserID(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
