package main

import (
	"errors"
	"fmt"
	"os"

	"donors/internal/cli"
	"donors/internal/core"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode: 2 invalid input, 3 not found, 4 conflict, 5 gateway or
// configuration, 1 anything else.
func exitCode(err error) int {
	switch {
	case core.IsValidation(err):
		return 2
	case errors.Is(err, core.ErrNotFound):
		return 3
	case errors.Is(err, core.ErrConflict):
		return 4
	case errors.Is(err, core.ErrGateway), errors.Is(err, core.ErrConfiguration):
		return 5
	}
	return 1
}

func parseAmount(flag, raw string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(raw)
	if err != nil {
		return core.Money{}, fmt.Errorf("--%s %q: %w", flag, raw, err)
	}
	return core.FromMinorUnits(cents), nil
}
