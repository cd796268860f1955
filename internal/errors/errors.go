package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MissingIdentity indicates a record has neither url nor name
	MissingIdentity ErrorCode = "MISSING_IDENTITY"
	// MalformedPersistedState indicates the persisted collection cannot be parsed
	MalformedPersistedState ErrorCode = "MALFORMED_PERSISTED_STATE"
	// ScoringDomain indicates a record violated the scoring contract
	ScoringDomain ErrorCode = "SCORING_DOMAIN"
	// SourceUnreadable indicates the source snapshot could not be read
	SourceUnreadable ErrorCode = "SOURCE_UNREADABLE"
	// InvalidRules indicates the rules file is invalid
	InvalidRules ErrorCode = "INVALID_RULES"
	// InvalidConfig indicates the configuration is invalid
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Sentinels for errors.Is; matching is by code.
var (
	ErrMissingIdentity         = &WikiError{Code: MissingIdentity}
	ErrMalformedPersistedState = &WikiError{Code: MalformedPersistedState}
	ErrScoringDomain           = &WikiError{Code: ScoringDomain}
	ErrSourceUnreadable        = &WikiError{Code: SourceUnreadable}
	ErrInvalidRules            = &WikiError{Code: InvalidRules}
	ErrInvalidConfig           = &WikiError{Code: InvalidConfig}
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditFile suggests editing a file
	EditFile FixActionType = "edit-file"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Path        string        `json:"path,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// WikiError carries a stable code, a message and suggested fixes
type WikiError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a WikiError with the default fixes for its code
func New(code ErrorCode, message string, cause error) *WikiError {
	return &WikiError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *WikiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *WikiError) Unwrap() error {
	return e.cause
}

// Is matches any WikiError with the same code
func (e *WikiError) Is(target error) bool {
	t, ok := target.(*WikiError)
	return ok && t.Code == e.Code
}

// WithDetails adds details to the error
func (e *WikiError) WithDetails(details interface{}) *WikiError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first WikiError in err's chain, or
// InternalError when there is none.
func CodeOf(err error) ErrorCode {
	for err != nil {
		if we, ok := err.(*WikiError); ok {
			return we.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	MalformedPersistedState: {
		{
			Type:        RunCommand,
			Command:     "repowiki update --force",
			Safe:        true,
			Description: "Rebuild the collection from the current snapshot",
		},
	},
	SourceUnreadable: {
		{
			Type:        RunCommand,
			Command:     "repowiki status",
			Safe:        true,
			Description: "Check the configured snapshot and data paths",
		},
	},
	InvalidRules: {
		{
			Type:        RunCommand,
			Command:     "repowiki rules --default",
			Safe:        true,
			Description: "Print the built-in rules as a starting point",
		},
	},
	InvalidConfig: {
		{
			Type:        EditFile,
			Path:        ".repowiki/config.json",
			Description: "Fix the reported configuration field",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
