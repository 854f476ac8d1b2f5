package domain

import (
	"time"
)

// StreamEventType names the messages pushed over an open stream.
type StreamEventType string

const (
	EventStreamOpened       StreamEventType = "stream_opened"
	EventQueueState         StreamEventType = "queue_state"
	EventTicketNotification StreamEventType = "ticket_notification"
	EventQueueTicket        StreamEventType = "queue_ticket_notification"
	EventTicketSpecific     StreamEventType = "ticket_specific_notification"
	EventTicketWatchStarted StreamEventType = "ticket_watch_started"
)

// StreamEvent is the JSON envelope written to a client sink.
type StreamEvent struct {
	Event     StreamEventType `json:"event"`
	WatchID   string          `json:"watchId,omitempty"`
	QueueID   string          `json:"queueId,omitempty"`
	TicketID  string          `json:"ticketId,omitempty"`
	Data      any             `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// NewStreamEvent stamps a new envelope with the current time.
func NewStreamEvent(eventType StreamEventType) StreamEvent {
	return StreamEvent{
		Event:     eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewQueueStateEvent wraps a snapshot for push to queue watchers.
func NewQueueStateEvent(watchID string, snapshot *QueueSnapshot) StreamEvent {
	event := NewStreamEvent(EventQueueState)
	event.WatchID = watchID
	event.QueueID = snapshot.QueueID
	event.Data = snapshot
	return event
}

// NewChangeNotification wraps a raw change event for push to sinks.
func NewChangeNotification(eventType StreamEventType, change ChangeEvent) StreamEvent {
	event := NewStreamEvent(eventType)
	event.TicketID = change.EntityID
	event.QueueID = change.ParentID
	event.Data = change
	return event
}
