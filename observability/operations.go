package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName identifies spans produced by this module.
const TracerName = "github.com/willibrandon/gonugetizer"

// Span attribute keys.
const (
	AttrPackageID      = attribute.Key("nuget.package.id")
	AttrPackageVersion = attribute.Key("nuget.package.version")
	AttrStage          = attribute.Key("pack.stage")
	AttrItemCount      = attribute.Key("pack.items")
	AttrFileCount      = attribute.Key("pack.files")
	AttrConflictCount  = attribute.Key("pack.conflicts")
	AttrGroupCount     = attribute.Key("pack.dependency_groups")
)

// Pipeline stage names, used for span names and the PackDuration label.
const (
	StageAssign    = "assign"
	StageDedup     = "dedup"
	StageDepends   = "dependencies"
	StageManifest  = "manifest"
	StageWrite     = "write"
	StagePackTotal = "pack"
)

// Stage is a running pipeline stage with its span and timer.
type Stage struct {
	name  string
	span  trace.Span
	start time.Time
}

// StartStage opens a span named "pack.<name>" and starts timing it.
func StartStage(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Stage) {
	attrs = append(attrs, AttrStage.String(name))
	ctx, span := StartSpan(ctx, "pack."+name, trace.WithAttributes(attrs...))
	return ctx, &Stage{name: name, span: span, start: time.Now()}
}

// SetAttributes records attributes on the stage span.
func (s *Stage) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// End records the duration and closes the span, marking it failed when err
// is not nil.
func (s *Stage) End(err error) {
	PackDuration.WithLabelValues(s.name).Observe(time.Since(s.start).Seconds())
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
