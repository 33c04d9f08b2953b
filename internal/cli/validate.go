package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/cadence"
)

// Validate compiles the procedure at path and prints a report.
// Warnings are printed but do not fail validation.
func Validate(path string, w io.Writer) error {
	exp, err := cadence.Load(path)
	if err != nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return err
	}
	for _, warning := range exp.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	fmt.Fprintf(w, "✓ %s\n", exp)
	return nil
}
