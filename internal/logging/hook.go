package logging

import (
	"fmt"

	"github.com/bnema/deltahash-cli/internal/domain"
	"github.com/bnema/deltahash-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

const AccountField = "account"

// EventHook forwards entries that carry an account field to an event sink as
// log events.
type EventHook struct {
	sink   ports.EventSink
	levels []logrus.Level
}

var _ logrus.Hook = (*EventHook)(nil)

func NewEventHook(sink ports.EventSink, min logrus.Level) *EventHook {
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		if level <= min {
			levels = append(levels, level)
		}
	}
	return &EventHook{sink: sink, levels: levels}
}

func (h *EventHook) Levels() []logrus.Level {
	return h.levels
}

func (h *EventHook) Fire(entry *logrus.Entry) error {
	account, ok := entry.Data[AccountField]
	if !ok {
		return nil
	}

	message := entry.Message
	if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
		message = fmt.Sprintf("%s: %v", message, err)
	}

	h.sink.Publish(domain.NewLogEvent(fmt.Sprint(account), entry.Level.String(), message, entry.Time))
	return nil
}
