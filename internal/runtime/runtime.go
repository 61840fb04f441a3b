package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signbridge/signbridge-core/internal/avatar"
	"github.com/signbridge/signbridge-core/internal/bus"
	"github.com/signbridge/signbridge-core/internal/config"
	"github.com/signbridge/signbridge-core/internal/coordinator"
	"github.com/signbridge/signbridge-core/internal/eventstore"
	"github.com/signbridge/signbridge-core/internal/gesture"
	"github.com/signbridge/signbridge-core/internal/httpapi"
	"github.com/signbridge/signbridge-core/internal/natsserver"
	"github.com/signbridge/signbridge-core/internal/recorder"
	"github.com/signbridge/signbridge-core/internal/stt"
	"github.com/signbridge/signbridge-core/internal/transport/ws"
	"github.com/signbridge/signbridge-core/internal/tts"
	"github.com/signbridge/signbridge-core/internal/vocabulary"
)

type Runtime struct {
	cfg        config.Config
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	telemetry  *telemetry
	ready      atomic.Bool
	wg         sync.WaitGroup

	nats        *natsserver.EmbeddedServer
	bus         *bus.Client
	events      *eventstore.Store
	recorder    *recorder.Service
	coordinator *coordinator.Coordinator
	ws          *ws.Server
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

// Addr is the bound HTTP address once Start has listened.
func (r *Runtime) Addr() string {
	if r.listener == nil {
		return ""
	}
	return r.listener.Addr().String()
}

// Ready reports whether startup completed.
func (r *Runtime) Ready() bool { return r.ready.Load() }

// Start brings every component up, serves until ctx is cancelled, then tears down.
// Any startup failure is returned and leaves nothing running.
func (r *Runtime) Start(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		if err != nil {
			r.shutdown()
		}
	}()

	r.telemetry, err = setupTelemetry(ctx, r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}

	vocab, err := loadVocabulary(r.cfg.Vocabulary, r.logger)
	if err != nil {
		return err
	}

	rec, err := r.startRecord(ctx)
	if err != nil {
		return err
	}

	stages, err := buildStages(r.cfg, vocab, r.logger)
	if err != nil {
		return err
	}
	r.coordinator, err = coordinator.New(ctx, coordinator.Options{
		Session:     r.cfg.Session,
		TTS:         r.cfg.TTS,
		Translation: r.cfg.Translation,
		Vocabulary:  vocab,
		Stages:      stages,
		Recorder:    rec,
		Logger:      r.logger,
	})
	if err != nil {
		closeStages(stages)
		return fmt.Errorf("create coordinator: %w", err)
	}
	r.ws = ws.NewServer(r.cfg.Transport, r.coordinator, r.logger)

	api := httpapi.New(r.cfg, httpapi.Deps{
		Vocabulary: vocab,
		Gestures:   stages.Gestures,
		Synth:      stages.Synth,
		Sessions:   r.coordinator,
	}, r.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	mux.Handle("/metrics", r.telemetry.Handler())
	mux.Handle(r.cfg.Transport.Path, r.ws)
	mux.Handle("/api/", api.Handler())

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.listener, err = net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	r.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.Serve(r.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
			cancel()
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", r.listener.Addr().String()),
		slog.String("ws_path", r.cfg.Transport.Path),
		slog.Int("gestures", vocab.Len()))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.shutdown()
	return nil
}

// startRecord brings up the broker, bus, event store and recorder. It returns a nil
// recorder when the bus is disabled.
func (r *Runtime) startRecord(ctx context.Context) (coordinator.Recorder, error) {
	if !r.cfg.Bus.Enabled {
		r.logger.Info("bus disabled; translation record off")
		return nil, nil
	}

	var err error
	r.nats, err = natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return nil, err
	}
	busCfg := r.cfg.Bus
	if r.nats != nil {
		busCfg.Servers = []string{r.nats.ClientURL()}
	}
	r.bus, err = bus.Connect(ctx, busCfg, r.cfg.RuntimeName, r.logger)
	if err != nil {
		return nil, err
	}
	r.events, err = eventstore.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	retention := time.Duration(r.cfg.EventStore.RetentionDays) * 24 * time.Hour
	r.recorder = recorder.NewService(ctx, r.bus, r.events, retention, r.logger)
	if err := r.recorder.Start(); err != nil {
		return nil, fmt.Errorf("start recorder: %w", err)
	}
	return recorder.NewPublisher(r.bus, r.logger), nil
}

func loadVocabulary(cfg config.VocabularyConfig, logger *slog.Logger) (*vocabulary.Vocabulary, error) {
	if cfg.Path == "" {
		return vocabulary.Default(), nil
	}
	vocab, err := vocabulary.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	logger.Info("vocabulary loaded", slog.String("path", cfg.Path), slog.Int("gestures", vocab.Len()))
	return vocab, nil
}

func buildStages(cfg config.Config, vocab *vocabulary.Vocabulary, logger *slog.Logger) (coordinator.Stages, error) {
	var stages coordinator.Stages
	var err error
	if stages.Gestures, err = gesture.New(cfg.Gesture, vocab); err != nil {
		return coordinator.Stages{}, fmt.Errorf("gesture stage: %w", err)
	}
	if stages.Speech, err = stt.New(cfg.STT); err != nil {
		closeStages(stages)
		return coordinator.Stages{}, fmt.Errorf("speech stage: %w", err)
	}
	if stages.Synth, err = tts.New(cfg.TTS); err != nil {
		closeStages(stages)
		return coordinator.Stages{}, fmt.Errorf("synthesis stage: %w", err)
	}
	stages.Avatar = avatar.NewGenerator(vocab, time.Duration(cfg.Avatar.KeyframeMS)*time.Millisecond, logger)
	return stages, nil
}

func closeStages(s coordinator.Stages) {
	if s.Gestures != nil {
		_ = s.Gestures.Close()
	}
	if s.Speech != nil {
		_ = s.Speech.Close()
	}
	if s.Synth != nil {
		_ = s.Synth.Close()
	}
	if s.Avatar != nil {
		_ = s.Avatar.Close()
	}
}

// shutdown releases whatever Start managed to bring up, in reverse order.
func (r *Runtime) shutdown() {
	r.ready.Store(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if r.httpServer != nil {
		if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("http shutdown error", slog.String("error", err.Error()))
		}
	} else if r.listener != nil {
		_ = r.listener.Close()
	}
	if r.ws != nil {
		r.ws.Close()
	}
	r.wg.Wait()

	if r.coordinator != nil {
		if err := r.coordinator.Close(); err != nil {
			r.logger.Error("coordinator shutdown error", slog.String("error", err.Error()))
		}
	}
	if r.recorder != nil {
		r.recorder.Close()
	}
	if r.bus != nil {
		r.bus.Close()
	}
	if r.events != nil {
		if err := r.events.Close(); err != nil {
			r.logger.Error("event store close error", slog.String("error", err.Error()))
		}
	}
	r.nats.Shutdown()

	if r.telemetry != nil {
		if err := r.telemetry.Shutdown(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
		r.telemetry = nil
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() && r.componentsHealthy() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (r *Runtime) componentsHealthy() bool {
	if r.coordinator == nil || !r.coordinator.Healthy() {
		return false
	}
	if r.cfg.Bus.Enabled && (!r.bus.Healthy() || !r.recorder.Healthy()) {
		return false
	}
	return true
}
