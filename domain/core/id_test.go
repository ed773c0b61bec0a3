package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

// TestParseSessionID tests session ID parsing
func TestParseSessionID(t *testing.T) {
	valid := NewSessionID().String()
	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, test := range tests {
		result, err := ParseSessionID(test.input)
		if test.hasError && err == nil {
			t.Errorf("Expected error for input '%s', but got none", test.input)
		}
		if !test.hasError {
			if err != nil {
				t.Errorf("Unexpected error for input '%s': %v", test.input, err)
			}
			if result.String() != test.input {
				t.Errorf("Expected %s, got %s", test.input, result)
			}
		}
	}
}

// TestParseTrialID tests trial ID parsing
func TestParseTrialID(t *testing.T) {
	if _, err := ParseTrialID(""); err == nil {
		t.Error("Expected error for empty trial ID")
	}
	id, err := ParseTrialID("trial-1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if id != TrialID("trial-1") {
		t.Errorf("Expected trial-1, got %s", id)
	}
}

func TestErrorClassification(t *testing.T) {
	if !IsConfigError(ErrAboveNyquist) {
		t.Error("ErrAboveNyquist should be a configuration error")
	}
	if !IsSequenceError(NewNonMonotonicError(10, 5)) {
		t.Error("non-monotonic error should be a sequencing error")
	}
	if IsConfigError(ErrSessionNotRunning) {
		t.Error("ErrSessionNotRunning should not be a configuration error")
	}
}

func TestMillis(t *testing.T) {
	if got := Millis(1500).Since(500); got != 1000 {
		t.Errorf("Expected 1000, got %d", got)
	}
	if got := Millis(250).Seconds(); got != 0.25 {
		t.Errorf("Expected 0.25, got %f", got)
	}
}
