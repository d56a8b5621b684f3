package model

import (
	"time"

	"github.com/google/uuid"
)

type RideStatus string

type RideRequestStatus string

const (
	RideStatusOpen      RideStatus = "open"
	RideStatusFull      RideStatus = "full"
	RideStatusCancelled RideStatus = "cancelled"
	RideStatusDone      RideStatus = "done"
)

const (
	RideRequestStatusPending   RideRequestStatus = "pending"
	RideRequestStatusAccepted  RideRequestStatus = "accepted"
	RideRequestStatusDeclined  RideRequestStatus = "declined"
	RideRequestStatusCancelled RideRequestStatus = "cancelled"
)

type Ride struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	DriverID    uuid.UUID  `db:"driver_id" json:"driver_id"`
	Origin      string     `db:"origin" json:"origin"`
	Destination string     `db:"destination" json:"destination"`
	DepartsAt   time.Time  `db:"departs_at" json:"departs_at"`
	SeatsTotal  int        `db:"seats_total" json:"seats_total"`
	SeatsTaken  int        `db:"seats_taken" json:"seats_taken"`
	Status      RideStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

type RideRequest struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	RideID    uuid.UUID         `db:"ride_id" json:"ride_id"`
	RiderID   uuid.UUID         `db:"rider_id" json:"rider_id"`
	Note      string            `db:"note" json:"note"`
	Status    RideRequestStatus `db:"status" json:"status"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}
