package events

import (
	"time"

	"github.com/google/uuid"
)

const EventTypeCauseDeleted = "cause.deleted"

// CauseDeletedEvent is published after the delete transaction commits.
type CauseDeletedEvent struct {
	BaseEvent
	CauseID   int64    `json:"cause_id"`
	ImageURLs []string `json:"image_urls"`
}

func NewCauseDeletedEvent(causeID int64, imageURLs []string) *CauseDeletedEvent {
	return &CauseDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeCauseDeleted,
			Timestamp: time.Now().UTC(),
		},
		CauseID:   causeID,
		ImageURLs: imageURLs,
	}
}
