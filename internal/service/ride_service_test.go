package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

func newTestRideService(repo *fakeRideRepo) *RideService {
	return &RideService{
		rideRepo: repo,
		logger:   zap.NewNop(),
	}
}

func openRide(driverID uuid.UUID, seatsTotal, seatsTaken int) *model.Ride {
	return &model.Ride{
		ID:          uuid.New(),
		DriverID:    driverID,
		Origin:      "North Campus",
		Destination: "Airport",
		DepartsAt:   time.Now().UTC().Add(24 * time.Hour),
		SeatsTotal:  seatsTotal,
		SeatsTaken:  seatsTaken,
		Status:      model.RideStatusOpen,
	}
}

func TestDecide_AcceptReservesSeat(t *testing.T) {
	t.Parallel()

	driverID := uuid.New()
	ride := openRide(driverID, 3, 0)
	request := &model.RideRequest{
		ID:      uuid.New(),
		RideID:  ride.ID,
		RiderID: uuid.New(),
		Status:  model.RideRequestStatusPending,
	}

	reserved := false
	repo := &fakeRideRepo{
		findRequestByIDFn: func(_ context.Context, _ uuid.UUID) (*model.RideRequest, error) {
			return request, nil
		},
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			return ride, nil
		},
		reserveSeatFn: func(_ context.Context, id uuid.UUID) (*model.Ride, error) {
			if id != ride.ID {
				t.Fatalf("unexpected ride id: %s", id)
			}
			reserved = true
			updated := *ride
			updated.SeatsTaken = 1
			return &updated, nil
		},
		updateRequestStatusFn: func(_ context.Context, _ uuid.UUID, status model.RideRequestStatus) error {
			if status != model.RideRequestStatusAccepted {
				t.Fatalf("expected accepted status, got %s", status)
			}
			return nil
		},
	}

	svc := newTestRideService(repo)
	decided, err := svc.Decide(context.Background(), driverID.String(), request.ID.String(), true)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}
	if !reserved {
		t.Fatal("expected seat reservation")
	}
	if decided.Status != model.RideRequestStatusAccepted {
		t.Fatalf("expected accepted request, got %s", decided.Status)
	}
}

func TestDecide_FullRideRejectsAccept(t *testing.T) {
	t.Parallel()

	driverID := uuid.New()
	ride := openRide(driverID, 2, 2)
	request := &model.RideRequest{
		ID:      uuid.New(),
		RideID:  ride.ID,
		RiderID: uuid.New(),
		Status:  model.RideRequestStatusPending,
	}

	repo := &fakeRideRepo{
		findRequestByIDFn: func(_ context.Context, _ uuid.UUID) (*model.RideRequest, error) {
			return request, nil
		},
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			return ride, nil
		},
		reserveSeatFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			// The conditional UPDATE matches no row on a full ride.
			return nil, repository.ErrNotFound
		},
	}

	svc := newTestRideService(repo)
	if _, err := svc.Decide(context.Background(), driverID.String(), request.ID.String(), true); !errors.Is(err, ErrRideFull) {
		t.Fatalf("expected ErrRideFull, got %v", err)
	}
}

func TestDecide_ReleasesSeatWhenRequestUpdateFails(t *testing.T) {
	t.Parallel()

	driverID := uuid.New()
	ride := openRide(driverID, 2, 0)
	request := &model.RideRequest{
		ID:      uuid.New(),
		RideID:  ride.ID,
		RiderID: uuid.New(),
		Status:  model.RideRequestStatusPending,
	}

	released := false
	repo := &fakeRideRepo{
		findRequestByIDFn: func(_ context.Context, _ uuid.UUID) (*model.RideRequest, error) {
			return request, nil
		},
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			return ride, nil
		},
		reserveSeatFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			updated := *ride
			updated.SeatsTaken = 1
			return &updated, nil
		},
		releaseSeatFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			released = true
			return ride, nil
		},
		updateRequestStatusFn: func(_ context.Context, _ uuid.UUID, _ model.RideRequestStatus) error {
			return errors.New("write failed")
		},
	}

	svc := newTestRideService(repo)
	if _, err := svc.Decide(context.Background(), driverID.String(), request.ID.String(), true); err == nil {
		t.Fatal("expected error when request update fails")
	}
	if !released {
		t.Fatal("expected reserved seat to be released")
	}
}

func TestRequestSeat_DuplicatePendingRejected(t *testing.T) {
	t.Parallel()

	driverID := uuid.New()
	riderID := uuid.New()
	ride := openRide(driverID, 3, 0)

	repo := &fakeRideRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			return ride, nil
		},
		listRequestsByRideFn: func(_ context.Context, _ uuid.UUID) ([]*model.RideRequest, error) {
			return []*model.RideRequest{{
				RideID:  ride.ID,
				RiderID: riderID,
				Status:  model.RideRequestStatusPending,
			}}, nil
		},
	}

	svc := newTestRideService(repo)
	if _, err := svc.RequestSeat(context.Background(), riderID.String(), ride.ID.String(), ""); !errors.Is(err, ErrDuplicateRequest) {
		t.Fatalf("expected ErrDuplicateRequest, got %v", err)
	}
}

func TestCancelRequest_AcceptedFreesSeat(t *testing.T) {
	t.Parallel()

	riderID := uuid.New()
	ride := openRide(uuid.New(), 2, 2)
	ride.Status = model.RideStatusFull
	request := &model.RideRequest{
		ID:      uuid.New(),
		RideID:  ride.ID,
		RiderID: riderID,
		Status:  model.RideRequestStatusAccepted,
	}

	released := false
	repo := &fakeRideRepo{
		findRequestByIDFn: func(_ context.Context, _ uuid.UUID) (*model.RideRequest, error) {
			return request, nil
		},
		updateRequestStatusFn: func(_ context.Context, _ uuid.UUID, status model.RideRequestStatus) error {
			if status != model.RideRequestStatusCancelled {
				t.Fatalf("expected cancelled status, got %s", status)
			}
			return nil
		},
		releaseSeatFn: func(_ context.Context, _ uuid.UUID) (*model.Ride, error) {
			released = true
			updated := *ride
			updated.SeatsTaken = 1
			updated.Status = model.RideStatusOpen
			return &updated, nil
		},
	}

	svc := newTestRideService(repo)
	cancelled, err := svc.CancelRequest(context.Background(), riderID.String(), request.ID.String())
	if err != nil {
		t.Fatalf("CancelRequest returned error: %v", err)
	}
	if !released {
		t.Fatal("expected seat released on accepted-request cancel")
	}
	if cancelled.Status != model.RideRequestStatusCancelled {
		t.Fatalf("expected cancelled request, got %s", cancelled.Status)
	}
}
