package domain

import (
	"fmt"
	"time"
)

// ChangeAction classifies a row-level change on the ticket table.
type ChangeAction string

const (
	ActionCreated ChangeAction = "CREATED"
	ActionUpdated ChangeAction = "UPDATED"
	ActionDeleted ChangeAction = "DELETED"
)

// IsValid reports whether the action is one of the known change kinds.
func (a ChangeAction) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted:
		return true
	}
	return false
}

// ChangeEvent is a normalized record of an insert/update/delete on the
// underlying ticket data, as delivered by the store's notification channel.
// Immutable and transient: it is never persisted by the streaming subsystem.
type ChangeEvent struct {
	EntityID   string       `json:"entityId"`
	Action     ChangeAction `json:"action"`
	ParentID   string       `json:"parentId"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// DedupKey identifies a physical upstream notification. Two deliveries with
// the same key within the suppression window are treated as duplicates.
func (e ChangeEvent) DedupKey() string {
	return fmt.Sprintf("%s|%s|%d", e.EntityID, e.Action, e.OccurredAt.UnixNano())
}
