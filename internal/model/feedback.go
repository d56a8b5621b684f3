package model

import (
	"time"

	"github.com/google/uuid"
)

type FeedbackType string

type FeedbackStatus string

const (
	FeedbackTypeGeneral FeedbackType = "general"
	FeedbackTypeUI      FeedbackType = "ui"
	FeedbackTypeFeature FeedbackType = "feature"
	FeedbackTypeOther   FeedbackType = "other"
)

const (
	// Delivered means the direct POST to the form service did not error.
	// The service gives no readable acknowledgment, so this is optimistic.
	FeedbackStatusDelivered FeedbackStatus = "delivered"
	// Queued means the direct POST failed and the submission sits in the
	// outbox awaiting retry by the drain job.
	FeedbackStatusQueued FeedbackStatus = "queued"
	// Failed means all retry attempts were exhausted. Never surfaced to the
	// submitting user; visible only through logs, metrics and admin queries.
	FeedbackStatusFailed FeedbackStatus = "failed"
)

type Feedback struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	UserID    *uuid.UUID     `db:"user_id" json:"user_id,omitempty"`
	Type      FeedbackType   `db:"type" json:"type"`
	Name      string         `db:"name" json:"name"`
	Email     string         `db:"email" json:"email"`
	Subject   string         `db:"subject" json:"subject"`
	Message   string         `db:"message" json:"message"`
	Rating    *int           `db:"rating" json:"rating,omitempty"`
	Status    FeedbackStatus `db:"status" json:"status"`
	Attempts  int            `db:"attempts" json:"attempts"`
	LastError *string        `db:"last_error" json:"last_error,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
