package commands

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/output"
)

type kindsOptions struct {
	kindsFile string
	format    string
}

// NewKindsCommand creates the kinds command, which prints the effective
// kind table.
func NewKindsCommand(console *output.Console) *cobra.Command {
	opts := &kindsOptions{}

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "Show the kind table used for path assignment",
		Long: `Show how each item kind maps to a package folder and whether files of
that kind are placed under a target framework subfolder.

The table comes from --kinds, the "kinds" key of the config file, or the
built-in defaults, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKinds(cmd.Context(), cmd, console, opts)
		},
	}

	cmd.Flags().StringVar(&opts.kindsFile, "kinds", "", "YAML file with kind definitions")
	cmd.Flags().StringVar(&opts.format, "format", formatConsole, "Output format (console, json)")

	return cmd
}

func runKinds(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *kindsOptions) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := newSession(ctx, cmd, console)
	if err != nil {
		return err
	}
	defer s.Close()

	table, err := s.kindTable(opts.kindsFile)
	if err != nil {
		return err
	}
	defs := table.Definitions()

	if opts.format == formatJSON {
		return output.WriteJSON(console.Out(), defs)
	}

	console.Header("%-20s %-20s %s", "Kind", "Folder", "Framework specific")
	for _, d := range defs {
		folder := d.PackageFolder
		if folder == "" {
			folder = "-"
		}
		console.Printf("%-20s %-20s %s\n", d.Name, folder, strconv.FormatBool(d.FrameworkSpecific))
	}
	return nil
}
