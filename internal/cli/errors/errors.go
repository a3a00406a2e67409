// Package errors provides rich error types and display for the canelevation CLI.
//
// A Rich error carries a stable code, a user-facing message, the underlying
// cause and optional suggestions. Display renders it in a bordered box for
// terminals; DisplaySimple renders plain text for pipes and log files.
package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Code represents an error code for categorization.
type Code string

const (
	CodeUnknown        Code = "UNKNOWN"
	CodeConfigInvalid  Code = "CONFIG_INVALID"
	CodeUsage          Code = "USAGE"
	CodeMetadataFetch  Code = "METADATA_FETCH"
	CodeMetadataFormat Code = "METADATA_FORMAT"
	CodePointCloud     Code = "POINT_CLOUD"
	CodeCRS            Code = "CRS"
	CodeReprojection   Code = "REPROJECTION"
	CodeValidation     Code = "VALIDATION"
	CodeIO             Code = "IO"
	CodeTimeout        Code = "TIMEOUT"
)

var (
	colorError = lipgloss.Color("196")
	colorMuted = lipgloss.Color("245")
	colorInfo  = lipgloss.Color("39")
)

// Rich is an error with additional context for display.
type Rich struct {
	Code        Code
	Message     string
	Details     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface.
func (e *Rich) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Rich) Unwrap() error {
	return e.Cause
}

// New creates a new Rich error.
func New(code Code, message string) *Rich {
	return &Rich{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, message string) *Rich {
	return &Rich{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails adds technical details to the error.
func (e *Rich) WithDetails(details string) *Rich {
	e.Details = details
	return e
}

// WithSuggestions adds actionable suggestions.
func (e *Rich) WithSuggestions(suggestions ...string) *Rich {
	e.Suggestions = suggestions
	return e
}

// AsRich converts an error to a Rich error if possible.
func AsRich(err error) *Rich {
	var rich *Rich
	if errors.As(err, &rich) {
		return rich
	}
	return nil
}

// Display formats the error with lipgloss styling.
func Display(err error) string {
	rich := AsRich(err)
	if rich == nil {
		rich = Wrap(err, CodeUnknown, "Command failed")
	}

	var b strings.Builder

	header := lipgloss.NewStyle().Foreground(colorError).Bold(true)
	muted := lipgloss.NewStyle().Foreground(colorMuted)

	b.WriteString(header.Render("✗ Error"))
	b.WriteString(" ")
	b.WriteString(muted.Italic(true).Render(fmt.Sprintf("[%s]", rich.Code)))
	b.WriteString("\n\n")
	b.WriteString(rich.Message)
	b.WriteString("\n")

	if rich.Details != "" {
		b.WriteString("\n")
		b.WriteString(muted.Render(rich.Details))
		b.WriteString("\n")
	}

	if rich.Cause != nil {
		b.WriteString("\n")
		b.WriteString(muted.Render("Caused by: " + rich.Cause.Error()))
		b.WriteString("\n")
	}

	if len(rich.Suggestions) > 0 {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(colorInfo).Render("Suggestions:"))
		b.WriteString("\n")
		for _, s := range rich.Suggestions {
			b.WriteString("  • ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Padding(0, 1).
		Width(72)

	return box.Render(strings.TrimRight(b.String(), "\n"))
}

// DisplaySimple formats an error as plain text.
func DisplaySimple(err error) string {
	rich := AsRich(err)
	if rich == nil {
		return fmt.Sprintf("Error: %v\n", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error [%s]: %s\n", rich.Code, rich.Message)

	if rich.Details != "" {
		fmt.Fprintf(&b, "  Details: %s\n", rich.Details)
	}
	if rich.Cause != nil {
		fmt.Fprintf(&b, "  Caused by: %v\n", rich.Cause)
	}
	if len(rich.Suggestions) > 0 {
		b.WriteString("  Suggestions:\n")
		for _, s := range rich.Suggestions {
			fmt.Fprintf(&b, "    - %s\n", s)
		}
	}

	return b.String()
}

// ConfigInvalid returns a config load error.
func ConfigInvalid(path string, cause error) *Rich {
	r := Wrap(cause, CodeConfigInvalid, "Configuration could not be loaded").
		WithSuggestions(
			"Check the configuration file syntax",
			"Run 'canelevation config init' to write a fresh default file",
		)
	if path != "" {
		r.Details = "File: " + path
	}
	return r
}

// Timeout returns a timeout error for a long-running operation.
func Timeout(operation string, cause error) *Rich {
	return Wrap(cause, CodeTimeout, fmt.Sprintf("Operation timed out: %s", operation)).
		WithSuggestions("Increase pdal.timeout or http.timeout in the configuration")
}
