package commands

import "fmt"

// Output formats accepted by --format.
const (
	formatConsole = "console"
	formatJSON    = "json"
)

func validateFormat(format string) error {
	switch format {
	case formatConsole, formatJSON:
		return nil
	}
	return fmt.Errorf("invalid format %q (console, json)", format)
}
