package recorder

import (
	"log/slog"

	"github.com/signbridge/signbridge-core/internal/bus"
	"github.com/signbridge/signbridge-core/internal/protocol"
)

// Publisher puts session lifecycle and translation results on the bus.
// Failures are logged and never reach the caller.
type Publisher struct {
	bus    *bus.Client
	logger *slog.Logger
}

func NewPublisher(busClient *bus.Client, logger *slog.Logger) *Publisher {
	return &Publisher{bus: busClient, logger: logger.With(slog.String("component", "recorder"))}
}

func (p *Publisher) SessionOpened(rec protocol.SessionRecord) {
	p.publish(protocol.SubjectSessionOpened, rec)
}

func (p *Publisher) SessionClosed(rec protocol.SessionRecord) {
	p.publish(protocol.SubjectSessionClosed, rec)
}

func (p *Publisher) Translation(res protocol.TranslationResult) {
	p.publish(TranslationSubject(res.OriginalType), res)
}

func (p *Publisher) publish(subject string, v any) {
	if p.bus == nil {
		return
	}
	if err := p.bus.PublishJSON(subject, v); err != nil {
		p.logger.Warn("record publish failed", slog.String("subject", subject), slogError(err))
	}
}

// TranslationSubject is the bus subject for results of the given input modality.
func TranslationSubject(m protocol.Modality) string {
	return protocol.SubjectTranslationPrefix + "." + string(m)
}
