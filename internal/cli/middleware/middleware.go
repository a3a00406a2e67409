// Package middleware wraps cobra RunE functions with cross-cutting behaviour
// shared by every canelevation command.
package middleware

import (
	"fmt"
	"time"

	"canelevation/internal/logger"

	"github.com/spf13/cobra"
)

// RunFunc is the function signature for cobra command execution.
type RunFunc func(cmd *cobra.Command, args []string) error

// Middleware wraps a RunFunc with additional behavior.
type Middleware func(next RunFunc) RunFunc

// Chain combines middleware; the first one wraps outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final RunFunc) RunFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// ApplyRecursive applies middleware to every command in the tree that has a
// RunE function.
func ApplyRecursive(cmd *cobra.Command, middlewares ...Middleware) {
	if cmd.RunE != nil {
		cmd.RunE = Chain(middlewares...)(cmd.RunE)
	}
	for _, child := range cmd.Commands() {
		ApplyRecursive(child, middlewares...)
	}
}

// Logging records command failures. The logger is resolved lazily because it
// is only built once PersistentPreRunE has loaded the configuration.
func Logging(current func() *logger.Logger) Middleware {
	return func(next RunFunc) RunFunc {
		return func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := next(cmd, args)
			if err != nil {
				if log := current(); log != nil {
					log.Error("command failed",
						"command", cmd.CommandPath(),
						"duration_ms", time.Since(start).Milliseconds(),
						"error", err,
					)
				}
			}
			return err
		}
	}
}

// Timing prints the elapsed time to stderr when verbose reports true.
func Timing(verbose func() bool) Middleware {
	return func(next RunFunc) RunFunc {
		return func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err := next(cmd, args)
			if verbose() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Completed in %s\n", time.Since(start).Round(time.Millisecond))
			}
			return err
		}
	}
}
