package model

import (
	"time"

	"github.com/google/uuid"
)

type LostFoundKind string

type LostFoundStatus string

const (
	LostFoundKindLost  LostFoundKind = "lost"
	LostFoundKindFound LostFoundKind = "found"
)

const (
	LostFoundStatusOpen    LostFoundStatus = "open"
	LostFoundStatusClaimed LostFoundStatus = "claimed"
	LostFoundStatusClosed  LostFoundStatus = "closed"
)

type LostFoundReport struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	ReporterID  uuid.UUID       `db:"reporter_id" json:"reporter_id"`
	Kind        LostFoundKind   `db:"kind" json:"kind"`
	Item        string          `db:"item" json:"item"`
	Description string          `db:"description" json:"description"`
	Location    string          `db:"location" json:"location"`
	CaseCode    string          `db:"case_code" json:"case_code"`
	Status      LostFoundStatus `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}
