// Package cli holds the root command and the process-wide console.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/output"
)

var rootCmd = NewRootCommand()

// Console is the global console for CLI commands
var Console *output.Console

// NewRootCommand builds the root command with the persistent flags every
// subcommand reads its configuration from.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gonugetizer",
		Short: "Assign package paths and build NuGet packages",
		Long: `gonugetizer maps build items to their location inside a NuGet package,
detects conflicting package paths, aggregates dependencies and writes the
resulting .nupkg.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Config file (default gonugetizer.yaml in the working or home directory)")
	flags.String("log-level", "", "Structured log level (verbose, debug, info, warn, error)")
	flags.String("verbosity", "normal", "Display verbosity (quiet, normal, detailed, diagnostic)")
	flags.String("trace-exporter", "", "Trace exporter (none, stdout, otlp)")
	flags.String("trace-endpoint", "", "OTLP collector endpoint")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := output.ParseVerbosity(cmd.Flag("verbosity").Value.String())
		if err != nil {
			return err
		}
		if Console != nil {
			Console.SetVerbosity(level)
		}
		return nil
	}

	return cmd
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	Console = output.DefaultConsole()
}

// SetupVersion configures version information after variables are set
func SetupVersion() {
	rootCmd.SetVersionTemplate(GetFullVersion() + "\n")
	rootCmd.Version = GetVersion()
}

// AddCommand adds a command to the root command
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}
