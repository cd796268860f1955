package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := New(MalformedPersistedState, "cannot parse collection", cause)

	if err.Code != MalformedPersistedState {
		t.Errorf("Code = %v, want %v", err.Code, MalformedPersistedState)
	}
	if err.Message != "cannot parse collection" {
		t.Errorf("Message = %q, want %q", err.Message, "cannot parse collection")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestWikiError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      SourceUnreadable,
			message:   "cannot open snapshot",
			cause:     errors.New("no such file"),
			wantParts: []string{"SOURCE_UNREADABLE", "cannot open snapshot", "no such file"},
		},
		{
			name:      "without cause",
			code:      MissingIdentity,
			message:   "record has neither url nor name",
			wantParts: []string{"MISSING_IDENTITY", "record has neither url nor name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.code, tt.message, tt.cause).Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestWikiError_Is(t *testing.T) {
	err := fmt.Errorf("record 3: %w", New(MissingIdentity, "no identity", nil))

	if !errors.Is(err, ErrMissingIdentity) {
		t.Error("errors.Is should match by code through wrapping")
	}
	if errors.Is(err, ErrScoringDomain) {
		t.Error("errors.Is should not match a different code")
	}
}

func TestWikiError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if New(InvalidRules, "bad", nil).Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", New(InvalidConfig, "bad level", nil))
	if got := CodeOf(wrapped); got != InvalidConfig {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, InvalidConfig)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
	if got := CodeOf(nil); got != InternalError {
		t.Errorf("CodeOf(nil) = %v, want %v", got, InternalError)
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ScoringDomain, "negative stars", nil).WithDetails(map[string]int{"stars": -1})
	if err.Details == nil {
		t.Fatal("Details should be set")
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	if fixes := GetSuggestedFixes(InvalidRules); len(fixes) == 0 {
		t.Error("InvalidRules should have suggested fixes")
	}
	if fixes := GetSuggestedFixes(ScoringDomain); fixes != nil {
		t.Errorf("ScoringDomain fixes = %v, want nil", fixes)
	}
}
