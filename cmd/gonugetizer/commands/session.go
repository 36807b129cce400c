package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/cli"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/config"
	"github.com/willibrandon/gonugetizer/cmd/gonugetizer/output"
	"github.com/willibrandon/gonugetizer/observability"
	"github.com/willibrandon/gonugetizer/pack"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// session carries what one command invocation needs: configuration, a
// structured logger, and the tracing and metrics endpoints it opened.
type session struct {
	console *output.Console
	config  *config.Config
	logger  observability.Logger

	tracer  *sdktrace.TracerProvider
	metrics *http.Server
}

func newSession(ctx context.Context, cmd *cobra.Command, console *output.Console) (*session, error) {
	var path string
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
	}

	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	level, err := observability.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	s := &session{
		console: console,
		config:  cfg,
		logger:  observability.NewLogger(console.Err(), level),
	}
	if cfg.File != "" {
		s.logger.Debug("Using config file {ConfigFile}", cfg.File)
	}

	tc := cfg.TracerConfig(cli.GetVersion())
	tc.Output = console.Err()
	if s.tracer, err = observability.SetupTracing(ctx, tc); err != nil {
		return nil, err
	}

	if cfg.Metrics.Addr != "" {
		if err := s.serveMetrics(cfg.Metrics.Addr); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen for metrics: %w", err)
	}
	s.metrics = observability.NewMetricsServer(addr)
	go func() {
		if err := s.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server stopped: {Error}", err)
		}
	}()
	s.logger.Info("Serving metrics on {Address}", ln.Addr().String())
	return nil
}

// Close flushes spans and stops the metrics server.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.tracer != nil {
		if err := observability.ShutdownTracing(ctx, s.tracer); err != nil {
			s.logger.Warn("Failed to flush traces: {Error}", err)
		}
	}
	if s.metrics != nil {
		_ = s.metrics.Shutdown(ctx)
	}
}

// kindTable prefers an explicit kinds file over the configured table.
func (s *session) kindTable(kindsFile string) (*pack.KindTable, error) {
	if kindsFile == "" {
		return s.config.KindTable(), nil
	}
	f, err := os.Open(kindsFile)
	if err != nil {
		return nil, fmt.Errorf("open kinds: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return pack.ReadKinds(f)
}

// assigner builds the path assigner for the session settings.
func (s *session) assigner(kindsFile string) (*pack.Assigner, error) {
	kinds, err := s.kindTable(kindsFile)
	if err != nil {
		return nil, err
	}
	return pack.NewAssigner(pack.AssignOptions{Kinds: kinds, Exclude: s.config.Pack.Exclude})
}

// reportDiagnostics prints what log collected and converts it for JSON.
func (s *session) reportDiagnostics(log *pack.Log) []output.Diagnostic {
	diags := []output.Diagnostic{}
	for _, w := range log.Warnings() {
		s.console.Warning("%s", w.Error())
		diags = append(diags, diagnostic("warning", w))
	}
	for _, e := range log.Errors() {
		s.console.Error("%s", e.Error())
		diags = append(diags, diagnostic("error", e))
	}
	return diags
}

func diagnostic(severity string, e *pack.PackError) output.Diagnostic {
	return output.Diagnostic{
		Severity: severity,
		Code:     e.Code,
		Message:  e.Message,
		Item:     e.Item,
	}
}
