package domain

import "time"

type EventKind string

const (
	EventSession EventKind = "session"
	EventLog     EventKind = "log"
)

type Event struct {
	Kind    EventKind      `json:"kind"`
	Account string         `json:"account"`
	At      time.Time      `json:"at"`
	Record  *SessionRecord `json:"record,omitempty"`
	Proxies []ProxyStat    `json:"proxies,omitempty"`
	Log     *LogLine       `json:"log,omitempty"`
}

type LogLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func NewSessionEvent(record SessionRecord, proxies []ProxyStat, at time.Time) Event {
	clone := record.Clone()
	return Event{
		Kind:    EventSession,
		Account: record.Account,
		At:      at,
		Record:  &clone,
		Proxies: proxies,
	}
}

func NewLogEvent(account, level, message string, at time.Time) Event {
	return Event{
		Kind:    EventLog,
		Account: account,
		At:      at,
		Log:     &LogLine{Level: level, Message: message},
	}
}
