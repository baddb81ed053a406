package remotefs

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/internal/telemetry"
)

// Metrics records backend operations. A nil Metrics records nothing.
type Metrics interface {
	// ObserveOperation records one operation ("connect", "stat", "list",
	// "open") against a scheme with its duration and outcome.
	ObserveOperation(scheme, op string, duration time.Duration, err error)
}

// Instrument wraps b so that every remote operation is traced, logged at
// debug level and, when m is non-nil, counted.
func Instrument(b Backend, m Metrics) Backend {
	return &instrumentedBackend{Backend: b, metrics: m}
}

type instrumentedBackend struct {
	Backend
	metrics Metrics
}

// observe runs after an operation; it closes the span and records the outcome.
func observe(ctx context.Context, span trace.Span, m Metrics, scheme, op string, loc Location, start time.Time, err error) {
	elapsed := time.Since(start)
	if err != nil {
		telemetry.RecordError(ctx, err)
		logger.DebugCtx(ctx, "Remote operation failed",
			logger.Operation(op), logger.Scheme(scheme), logger.Path(loc.Path),
			logger.ErrorCode(CodeOf(err).String()), logger.Err(err))
	} else {
		logger.DebugCtx(ctx, "Remote operation",
			logger.Operation(op), logger.Scheme(scheme), logger.Path(loc.Path),
			logger.DurationMs(float64(elapsed.Microseconds())/1000.0))
	}
	span.End()
	if m != nil {
		m.ObserveOperation(scheme, op, elapsed, err)
	}
}

func (b *instrumentedBackend) Connect(ctx context.Context, loc Location, creds Credentials) (Session, error) {
	start := time.Now()
	ctx, span := telemetry.StartRemoteSpan(ctx, telemetry.SpanRemoteConnect, loc.Scheme, loc.Host, loc.Path)

	sess, err := b.Backend.Connect(ctx, loc, creds)
	observe(ctx, span, b.metrics, loc.Scheme, "connect", loc, start, err)
	if err != nil {
		return nil, err
	}
	return &instrumentedSession{Session: sess, scheme: loc.Scheme, metrics: b.metrics}, nil
}

type instrumentedSession struct {
	Session
	scheme  string
	metrics Metrics
}

func (s *instrumentedSession) Stat(ctx context.Context, loc Location) (File, error) {
	start := time.Now()
	ctx, span := telemetry.StartRemoteSpan(ctx, telemetry.SpanRemoteStat, loc.Scheme, loc.Host, loc.Path)

	f, err := s.Session.Stat(ctx, loc)
	if err == nil {
		span.SetAttributes(telemetry.Kind(string(f.Kind())), telemetry.Size(f.Size()))
	}
	observe(ctx, span, s.metrics, s.scheme, "stat", loc, start, err)
	if err != nil {
		return nil, err
	}
	return s.wrap(f), nil
}

func (s *instrumentedSession) wrap(f File) File {
	return &instrumentedFile{File: f, session: s}
}

type instrumentedFile struct {
	File
	session *instrumentedSession
}

func (f *instrumentedFile) Children(ctx context.Context) ([]File, error) {
	loc := f.Location()
	start := time.Now()
	ctx, span := telemetry.StartRemoteSpan(ctx, telemetry.SpanRemoteList, loc.Scheme, loc.Host, loc.Path)

	children, err := f.File.Children(ctx)
	if err == nil {
		span.SetAttributes(telemetry.Entries(len(children)))
	}
	observe(ctx, span, f.session.metrics, f.session.scheme, "list", loc, start, err)
	if err != nil {
		return nil, err
	}

	for i, c := range children {
		children[i] = f.session.wrap(c)
	}
	return children, nil
}

func (f *instrumentedFile) Open(ctx context.Context) (io.ReadCloser, error) {
	loc := f.Location()
	start := time.Now()
	ctx, span := telemetry.StartRemoteSpan(ctx, telemetry.SpanRemoteOpen, loc.Scheme, loc.Host, loc.Path)

	rc, err := f.File.Open(ctx)
	observe(ctx, span, f.session.metrics, f.session.scheme, "open", loc, start, err)
	return rc, err
}

func (f *instrumentedFile) OpenRandom(ctx context.Context) (io.ReadSeekCloser, error) {
	loc := f.Location()
	start := time.Now()
	ctx, span := telemetry.StartRemoteSpan(ctx, telemetry.SpanRemoteOpen, loc.Scheme, loc.Host, loc.Path)

	rc, err := f.File.OpenRandom(ctx)
	observe(ctx, span, f.session.metrics, f.session.scheme, "open", loc, start, err)
	return rc, err
}
