// Package errors defines stable error codes for the recovery pipeline.
//
// Degraded parses and missing history are not errors: those outcomes are
// carried as tagged results by the components that produce them. Only
// genuine failures (unreadable input, failed external processes, corrupt
// persisted state) are reported through MenderError.
package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// UnreadableSource indicates the initial input could not be read or decoded
	UnreadableSource ErrorCode = "UNREADABLE_SOURCE"
	// ProcessFailure indicates an external process (git) returned non-zero
	ProcessFailure ErrorCode = "PROCESS_FAILURE"
	// ScratchFailure indicates scratch storage could not be acquired or released
	ScratchFailure ErrorCode = "SCRATCH_FAILURE"
	// RegistryCorrupt indicates the persisted model registry could not be decoded
	RegistryCorrupt ErrorCode = "REGISTRY_CORRUPT"
	// StoreFailure indicates the model cache database failed
	StoreFailure ErrorCode = "STORE_FAILURE"
	// ConfigInvalid indicates the configuration file could not be loaded
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// MenderError represents a pipeline error with code, message, and suggestions
type MenderError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a new MenderError
func New(code ErrorCode, message string, cause error) *MenderError {
	return &MenderError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *MenderError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MenderError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *MenderError) WithDetails(details interface{}) *MenderError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ProcessFailure: {
		{
			Type:        RunCommand,
			Command:     "git status",
			Safe:        true,
			Description: "Check whether the file lives inside a valid git repository",
		},
	},
	RegistryCorrupt: {
		{
			Type:        RunCommand,
			Command:     "mender batch --no-cache",
			Safe:        true,
			Description: "Re-parse all tracked files and rewrite the registry",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "mender init --force",
			Safe:        true,
			Description: "Write a fresh default configuration",
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
