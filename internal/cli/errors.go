// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/pai/internal/config"
	"github.com/jeranaias/pai/internal/ollama"
	"github.com/jeranaias/pai/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates Ollama could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a malformed command line.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// NewUsageError creates a UsageError.
func NewUsageError(msg string) error {
	return &UsageError{Message: msg}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w with the CLI error style.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %v\n", ErrorStyle.Render("Error:"), err)

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(w, DimStyle.Render("Run 'pai help' for usage."))
	}
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) {
		return ExitConfigError
	}

	if errors.Is(err, storage.ErrHistoryNotFound) {
		return ExitNotFoundError
	}

	if errors.Is(err, ollama.ErrNotRunning) || errors.Is(err, ollama.ErrTimeout) {
		return ExitNetworkError
	}

	return ExitGeneralError
}
