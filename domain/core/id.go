package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// v7 keeps ids sortable by creation time in exported logs
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SessionID ID
	TrialID   ID
)

func NewSessionID() SessionID { return SessionID(NewID()) }
func NewTrialID() TrialID     { return TrialID(NewID()) }

// String conversions for domain IDs
func (id SessionID) String() string { return ID(id).String() }
func (id TrialID) String() string   { return ID(id).String() }

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid session ID %q: %w", s, err)
	}
	return SessionID(s), nil
}

// ParseTrialID parses a string into TrialID
func ParseTrialID(s string) (TrialID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("trial ID cannot be empty")
	}
	return TrialID(s), nil
}
