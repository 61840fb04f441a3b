package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signbridge/signbridge-core/internal/avatar"
	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/gesture"
	"github.com/signbridge/signbridge-core/internal/protocol"
	"github.com/signbridge/signbridge-core/internal/session"
	"github.com/signbridge/signbridge-core/internal/stt"
	"github.com/signbridge/signbridge-core/internal/translation"
	"github.com/signbridge/signbridge-core/internal/tts"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentation = "github.com/signbridge/signbridge-core/internal/coordinator"

// Metric names. The runtime configures views for them.
const (
	MetricEventsDropped    = "signbridge.events.dropped"
	MetricDispatchErrors   = "signbridge.dispatch.errors"
	MetricDispatchDuration = "signbridge.dispatch.duration"
	MetricSessionsActive   = "signbridge.sessions.active"
	MetricSessionsIdle     = "signbridge.sessions.idle"
)

// Recorder receives the translation record. Implementations must not block.
type Recorder interface {
	SessionOpened(rec protocol.SessionRecord)
	SessionClosed(rec protocol.SessionRecord)
	Translation(res protocol.TranslationResult)
}

type nopRecorder struct{}

func (nopRecorder) SessionOpened(protocol.SessionRecord)    {}
func (nopRecorder) SessionClosed(protocol.SessionRecord)    {}
func (nopRecorder) Translation(protocol.TranslationResult) {}

// Stages are the perception and generation backends. Each is closed exactly once by
// Coordinator.Close.
type Stages struct {
	Gestures gesture.Recognizer
	Speech   stt.Recognizer
	Synth    tts.Synthesizer
	Avatar   *avatar.Generator
}

type Options struct {
	Session     config.SessionConfig
	TTS         config.TTSConfig
	Translation config.TranslationConfig
	Vocabulary  *vocabulary.Vocabulary
	Stages      Stages
	// Recorder may be nil.
	Recorder Recorder
	Logger   *slog.Logger
}

// Coordinator owns the live sessions and routes inbound events to the stages.
type Coordinator struct {
	cfg       config.SessionConfig
	ttsCfg    config.TTSConfig
	window    time.Duration
	idleAfter time.Duration
	vocab     *vocabulary.Vocabulary
	text      *translation.Engine
	stages    Stages
	recorder  Recorder
	registry  *session.Registry
	logger    *slog.Logger

	tracer   trace.Tracer
	dropped  metric.Int64Counter
	failed   metric.Int64Counter
	duration metric.Float64Histogram

	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func New(parent context.Context, opts Options) (*Coordinator, error) {
	if opts.Vocabulary == nil {
		return nil, errors.New("vocabulary is required")
	}
	if opts.Stages.Gestures == nil || opts.Stages.Speech == nil || opts.Stages.Synth == nil || opts.Stages.Avatar == nil {
		return nil, errors.New("all stages are required")
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(parent)
	c := &Coordinator{
		cfg:       opts.Session,
		ttsCfg:    opts.TTS,
		window:    time.Duration(opts.Translation.SequenceWindowMS) * time.Millisecond,
		idleAfter: time.Duration(opts.Session.IdleAfterMS) * time.Millisecond,
		vocab:     opts.Vocabulary,
		text:      translation.NewEngine(opts.Vocabulary),
		stages:    opts.Stages,
		recorder:  recorder,
		registry:  session.NewRegistry(),
		logger:    logger.With(slog.String("component", "coordinator")),
		tracer:    otel.Tracer(instrumentation),
		ctx:       ctx,
		cancel:    cancel,
	}
	if err := c.initMetrics(); err != nil {
		cancel()
		return nil, err
	}
	return c, nil
}

func (c *Coordinator) initMetrics() error {
	meter := otel.Meter(instrumentation)
	var err error
	c.dropped, err = meter.Int64Counter(MetricEventsDropped,
		metric.WithDescription("Stage events dropped because the session stage was busy"))
	if err != nil {
		return fmt.Errorf("dropped counter: %w", err)
	}
	c.failed, err = meter.Int64Counter(MetricDispatchErrors,
		metric.WithDescription("Dispatches that reported an error to the client"))
	if err != nil {
		return fmt.Errorf("error counter: %w", err)
	}
	c.duration, err = meter.Float64Histogram(MetricDispatchDuration,
		metric.WithDescription("Time from dispatch to the last emit of a handler"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("duration histogram: %w", err)
	}
	_, err = meter.Int64ObservableGauge(MetricSessionsActive,
		metric.WithDescription("Live sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(c.registry.Len()))
			return nil
		}))
	if err != nil {
		return fmt.Errorf("sessions gauge: %w", err)
	}
	_, err = meter.Int64ObservableGauge(MetricSessionsIdle,
		metric.WithDescription("Live sessions without client activity for the idle period"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(c.IdleSessions()))
			return nil
		}))
	if err != nil {
		return fmt.Errorf("idle gauge: %w", err)
	}
	return nil
}

// ActiveSessions reports the registry size.
func (c *Coordinator) ActiveSessions() int { return c.registry.Len() }

// IdleSessions counts live sessions whose last client event is older than the
// configured idle period. Health ticks do not count as activity.
func (c *Coordinator) IdleSessions() int {
	cutoff := time.Now().Add(-c.idleAfter)
	idle := 0
	for _, s := range c.registry.Snapshot() {
		if s.LastActivity().Before(cutoff) {
			idle++
		}
	}
	return idle
}

// Healthy is false once Close has started.
func (c *Coordinator) Healthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Connect registers a session for connectionID and sends system-ready synchronously.
func (c *Coordinator) Connect(connectionID string, emitter session.Emitter) (string, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return "", ErrClosed
	}
	c.wg.Add(1)
	c.mu.RUnlock()

	s := session.New(connectionID, emitter, translation.NewEngine(c.vocab, translation.WithWindow(c.window)))
	c.registry.Insert(s)

	gestures := make([]protocol.GestureInfo, 0, c.vocab.Len())
	for _, g := range c.vocab.Gestures() {
		gestures = append(gestures, protocol.GestureInfo{Name: g.Name, Description: g.Description})
	}
	c.emit(s, protocol.EventSystemReady, protocol.SystemReady{
		Gestures:  gestures,
		Voices:    tts.Voices(c.ttsCfg),
		SessionID: s.ID,
		Timestamp: time.Now().UTC(),
	})
	c.recorder.SessionOpened(protocol.SessionRecord{SessionID: s.ID, ConnectionID: connectionID, Timestamp: s.CreatedAt})
	c.logger.Info("session opened", slog.String("session_id", s.ID), slog.String("connection_id", connectionID))

	go c.runHealth(s)
	return s.ID, nil
}

// Disconnect deregisters the session. In-flight work is not cancelled; its emits
// become no-ops.
func (c *Coordinator) Disconnect(connectionID string) {
	s, ok := c.registry.Remove(connectionID)
	if !ok {
		return
	}
	s.Engine.Reset()
	c.recorder.SessionClosed(protocol.SessionRecord{SessionID: s.ID, ConnectionID: connectionID, Timestamp: time.Now().UTC()})
	c.logger.Info("session closed", slog.String("session_id", s.ID), slog.String("connection_id", connectionID))
}

// runHealth emits health-check until the session leaves the registry. wg was
// incremented by the caller.
func (c *Coordinator) runHealth(s *session.Session) {
	defer c.wg.Done()
	interval := time.Duration(c.cfg.HealthIntervalMS) * time.Millisecond
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.registry.Contains(s) {
				return
			}
			c.emit(s, protocol.EventHealthCheck, protocol.HealthCheck{
				SessionID:      s.ID,
				ActiveSessions: c.registry.Len(),
				Busy:           s.Busy(),
				Timestamp:      time.Now().UTC(),
			})
		}
	}
}

// Dispatch routes one inbound event. It never blocks on stage work.
func (c *Coordinator) Dispatch(connectionID, event string, data json.RawMessage) {
	s, ok := c.registry.Get(connectionID)
	if !ok {
		return
	}

	switch event {
	case protocol.EventVideoFrame:
		c.dispatchGated(s, event, session.StageGesture, data, c.handleVideoFrame)
	case protocol.EventAudioData:
		c.dispatchGated(s, event, session.StageSpeech, data, c.handleAudioData)
	case protocol.EventPlayGesture:
		s.Touch()
		c.spawn(s, event, data, nil, c.handlePlayGesture)
	case protocol.EventSpeakText:
		s.Touch()
		c.spawn(s, event, data, nil, c.handleSpeakText)
	case protocol.EventRequestTranslation:
		s.Touch()
		c.spawn(s, event, data, nil, c.handleRequestTranslation)
	case protocol.EventCustomizeAvatar:
		s.Touch()
		c.spawn(s, event, data, nil, c.handleCustomizeAvatar)
	default:
		c.report(s, event, invalid(CodeEventUnsupported, fmt.Sprintf("unsupported event %q", event), nil))
	}
}

type handler func(ctx context.Context, s *session.Session, data json.RawMessage) *dispatchError

func (c *Coordinator) dispatchGated(s *session.Session, event, stage string, data json.RawMessage, h handler) {
	release, ok := s.TryAcquire(stage)
	if !ok {
		c.dropped.Add(c.ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
		c.logger.Debug("dropping event, stage busy",
			slog.String("session_id", s.ID), slog.String("event", event), slog.String("stage", stage))
		return
	}
	s.Touch()
	c.spawn(s, event, data, release, h)
}

func (c *Coordinator) spawn(s *session.Session, event string, data json.RawMessage, release func(), h handler) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		if release != nil {
			release()
		}
		return
	}
	c.wg.Add(1)
	c.mu.RUnlock()

	go func() {
		defer c.wg.Done()
		if release != nil {
			defer release()
		}
		ctx, span := c.tracer.Start(c.ctx, "dispatch "+event, trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("event", event),
		))
		defer span.End()

		start := time.Now()
		outcome := "ok"
		if derr := h(ctx, s, data); derr != nil {
			outcome = "error"
			span.RecordError(derr)
			span.SetStatus(codes.Error, derr.code)
			c.report(s, event, derr)
		}
		c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("event", event),
			attribute.String("outcome", outcome),
		))
	}()
}

// report sends the single error event for a failed dispatch.
func (c *Coordinator) report(s *session.Session, event string, derr *dispatchError) {
	c.failed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("code", derr.code)))
	attrs := []any{
		slog.String("session_id", s.ID),
		slog.String("event", event),
		slog.String("code", derr.code),
	}
	if derr.cause != nil {
		attrs = append(attrs, slogError(derr.cause))
	}
	if derr.validation {
		c.logger.Debug(derr.message, attrs...)
	} else {
		c.logger.Error(derr.message, attrs...)
	}
	c.emit(s, protocol.EventError, protocol.ErrorPayload{Message: derr.message, Code: derr.code})
}

// emit delivers to a live session. Dead sessions and transport failures are not
// reported to the caller.
func (c *Coordinator) emit(s *session.Session, event string, payload any) {
	if !c.registry.Contains(s) || s.Emitter == nil {
		return
	}
	if err := s.Emitter.Emit(event, payload); err != nil {
		c.logger.Warn("emit failed",
			slog.String("session_id", s.ID), slog.String("event", event), slogError(err))
	}
}

func (c *Coordinator) record(res protocol.TranslationResult) {
	c.recorder.Translation(res)
}

// perceive bounds a perception call by the configured stage timeout. A late result
// is discarded.
func perceive[T any](ctx context.Context, timeout time.Duration, call func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return call(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := call(ctx)
		done <- outcome{value: v, err: err}
	}()
	select {
	case o := <-done:
		return o.value, o.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, errStageTimeout
		}
		return zero, ctx.Err()
	}
}

func (c *Coordinator) stageTimeout() time.Duration {
	return time.Duration(c.cfg.StageTimeoutMS) * time.Millisecond
}

// Close stops accepting work, clears the registry and disposes every stage exactly
// once, in parallel.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		for _, s := range c.registry.Clear() {
			c.recorder.SessionClosed(protocol.SessionRecord{SessionID: s.ID, ConnectionID: s.ConnectionID, Timestamp: time.Now().UTC()})
		}
		c.cancel()
		c.wg.Wait()

		var g errgroup.Group
		g.Go(c.stages.Gestures.Close)
		g.Go(c.stages.Speech.Close)
		g.Go(c.stages.Synth.Close)
		g.Go(c.stages.Avatar.Close)
		c.closeErr = g.Wait()
		c.logger.Info("coordinator stopped")
	})
	return c.closeErr
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
