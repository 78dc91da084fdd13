package ports

import "github.com/bnema/deltahash-cli/internal/domain"

type EventSink interface {
	Publish(event domain.Event)
}

type NopEventSink struct{}

func (NopEventSink) Publish(domain.Event) {}
