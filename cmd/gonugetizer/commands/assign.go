package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/output"
	"github.com/willibrandon/gonugetizer/pack"
)

type assignOptions struct {
	itemsFile string
	kindsFile string
	format    string
}

// NewAssignCommand creates the assign command
func NewAssignCommand(console *output.Console) *cobra.Command {
	opts := &assignOptions{}

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Compute the package path of every item",
		Long: `Read items from a YAML or JSON file and print where each one would be
placed inside the package. Items that end up with an empty path are not
packaged.

Examples:
  gonugetizer assign --items items.yaml
  gonugetizer assign --items items.yaml --exclude "**/*.xml" --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd.Context(), cmd, console, opts)
		},
	}

	cmd.Flags().StringVar(&opts.itemsFile, "items", "", "Items file (YAML or JSON)")
	cmd.Flags().StringVar(&opts.kindsFile, "kinds", "", "YAML file with kind definitions")
	cmd.Flags().StringSlice("exclude", nil, "Package path glob to leave out (repeatable)")
	cmd.Flags().StringVar(&opts.format, "format", formatConsole, "Output format (console, json)")
	_ = cmd.MarkFlagRequired("items")

	return cmd
}

func runAssign(ctx context.Context, cmd *cobra.Command, console *output.Console, opts *assignOptions) error {
	start := time.Now()
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

	file, err := LoadItems(opts.itemsFile)
	if err != nil {
		return err
	}
	assigner, err := s.assigner(opts.kindsFile)
	if err != nil {
		return err
	}

	log := pack.NewLog(s.logger)
	assigned := assigner.Assign(ctx, file.Items, log)
	diags := s.reportDiagnostics(log)

	if opts.format == formatJSON {
		out := output.NewAssignOutput(start)
		for _, item := range assigned {
			out.Items = append(out.Items, assignedItem(item))
		}
		out.Diagnostics = diags
		out.ElapsedMs = output.MeasureElapsed(start)
		if err := output.WriteJSON(console.Out(), out); err != nil {
			return err
		}
	} else {
		printAssigned(console, assigned)
	}

	if log.HasLoggedErrors() {
		return fmt.Errorf("path assignment failed with %d error(s)", len(log.Errors()))
	}
	return nil
}

func assignedItem(item pack.Item) output.AssignedItem {
	return output.AssignedItem{
		Spec:            item.ItemSpec,
		Kind:            item.Get(pack.MetadataKind),
		PackageFolder:   item.Get(pack.MetadataPackageFolder),
		PackagePath:     item.Get(pack.MetadataPackagePath),
		TargetFramework: item.Get(pack.MetadataTargetFramework),
		Metadata:        item.Metadata,
	}
}

func printAssigned(console *output.Console, items []pack.Item) {
	packaged := 0
	for _, item := range items {
		p := item.Get(pack.MetadataPackagePath)
		if p == "" {
			console.Detail("  %s (not packaged)", item.ItemSpec)
			continue
		}
		packaged++
		console.Printf("%s -> %s\n", item.ItemSpec, p)
	}
	console.Info("%d of %d item(s) packaged", packaged, len(items))
}
