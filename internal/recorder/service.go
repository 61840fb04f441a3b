package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/signbridge/signbridge-core/internal/bus"
	"github.com/signbridge/signbridge-core/internal/eventstore"
	"github.com/signbridge/signbridge-core/internal/protocol"
)

// EventTranslation is the event type written for translation results.
const EventTranslation = "translation"

// Store is the part of the event store the recorder writes to.
type Store interface {
	OpenSession(ctx context.Context, sessionID, connectionID string, at time.Time) error
	CloseSession(ctx context.Context, sessionID, connectionID string, at time.Time) error
	AppendEvent(ctx context.Context, evt eventstore.Event) error
}

const (
	// Stream is the JetStream stream that retains every record subject.
	Stream = "SIGNBRIDGE_RECORD"
	// Durable names the recorder's consumer on Stream.
	Durable = "signbridge-recorder"
)

// errMalformed marks records that can never be stored and must not be redelivered.
var errMalformed = errors.New("malformed record")

// Service consumes the record stream and appends it to the event store.
// Delivery is at least once: a record is acked only after the store accepted it.
type Service struct {
	bus       *bus.Client
	store     Store
	retention time.Duration
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	mu       sync.Mutex
	consumer jetstream.ConsumeContext
}

// NewService builds a recorder whose stream keeps records for retention (zero keeps them forever).
func NewService(parent context.Context, busClient *bus.Client, store Store, retention time.Duration, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		bus:       busClient,
		store:     store,
		retention: retention,
		logger:    logger.With(slog.String("component", "recorder")),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start ensures the record stream and attaches the durable consumer. One consumer
// delivers serially, so records of a session are stored in publish order.
func (s *Service) Start() error {
	if err := s.bus.EnsureStream(s.ctx, Stream, []string{protocol.SubjectRecordAll}, s.retention); err != nil {
		return err
	}
	cc, err := s.bus.Consume(s.ctx, Stream, Durable, protocol.SubjectRecordAll, s.handle)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.consumer = cc
	s.mu.Unlock()
	return nil
}

func (s *Service) Close() {
	s.mu.Lock()
	cc := s.consumer
	s.consumer = nil
	s.mu.Unlock()
	if cc != nil {
		cc.Stop()
	}
	s.cancel()
}

func (s *Service) Healthy() bool {
	s.mu.Lock()
	cc := s.consumer
	s.mu.Unlock()
	if cc == nil {
		return false
	}
	select {
	case <-cc.Closed():
		return false
	default:
		return true
	}
}

func (s *Service) handle(msg jetstream.Msg) {
	var err error
	subject := msg.Subject()
	switch {
	case subject == protocol.SubjectSessionOpened:
		err = s.handleOpened(msg.Data())
	case subject == protocol.SubjectSessionClosed:
		err = s.handleClosed(msg.Data())
	case strings.HasPrefix(subject, protocol.SubjectTranslationPrefix+"."):
		err = s.handleTranslation(subject, msg.Data())
	}
	switch {
	case err == nil:
		_ = msg.Ack()
	case errors.Is(err, errMalformed):
		s.logger.Warn("recorder dropped record", slog.String("subject", subject), slogError(err))
		_ = msg.Term()
	case s.ctx.Err() != nil:
		// shutting down; leave it for redelivery
	default:
		s.logger.Warn("recorder failed to store record", slog.String("subject", subject), slogError(err))
		_ = msg.Nak()
	}
}

func (s *Service) handleOpened(data []byte) error {
	rec, err := decodeSessionRecord(data)
	if err != nil {
		return err
	}
	return s.store.OpenSession(s.ctx, rec.SessionID, rec.ConnectionID, rec.Timestamp)
}

func (s *Service) handleClosed(data []byte) error {
	rec, err := decodeSessionRecord(data)
	if err != nil {
		return err
	}
	return s.store.CloseSession(s.ctx, rec.SessionID, rec.ConnectionID, rec.Timestamp)
}

func (s *Service) handleTranslation(subject string, data []byte) error {
	var res protocol.TranslationResult
	if err := json.Unmarshal(data, &res); err != nil || res.SessionID == "" {
		return fmt.Errorf("%w: translation", errMalformed)
	}
	return s.store.AppendEvent(s.ctx, eventstore.Event{
		SessionID: res.SessionID,
		Type:      EventTranslation,
		Modality:  strings.TrimPrefix(subject, protocol.SubjectTranslationPrefix+"."),
		Payload:   data,
		CreatedAt: res.Timestamp,
	})
}

func decodeSessionRecord(data []byte) (protocol.SessionRecord, error) {
	var rec protocol.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.SessionID == "" {
		return rec, fmt.Errorf("%w: session", errMalformed)
	}
	return rec, nil
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
