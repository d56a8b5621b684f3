//go:build integration

package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"unishare-hub/internal/model"
)

func TestRideRequestFlow(t *testing.T) {
	driverID, _ := createRegularUser(t)
	riderID, _ := createRegularUser(t)

	ride := createRide(t, driverID, 2)

	request, err := getEnv(t).rideSvc.RequestSeat(context.Background(), riderID.String(), ride.ID.String(), "picking up at gate 3")
	if err != nil {
		t.Fatalf("request seat failed: %v", err)
	}
	if request.Status != model.RideRequestStatusPending {
		t.Fatalf("expected pending request, got %s", request.Status)
	}

	// The driver cannot ask for a seat on their own ride.
	if _, err := getEnv(t).rideSvc.RequestSeat(context.Background(), driverID.String(), ride.ID.String(), ""); err == nil {
		t.Fatal("expected driver self-request to fail")
	}

	decided, err := getEnv(t).rideSvc.Decide(context.Background(), driverID.String(), request.ID.String(), true)
	if err != nil {
		t.Fatalf("accept request failed: %v", err)
	}
	if decided.Status != model.RideRequestStatusAccepted {
		t.Fatalf("expected accepted request, got %s", decided.Status)
	}

	after, err := getEnv(t).rideSvc.GetByID(context.Background(), ride.ID.String())
	if err != nil {
		t.Fatalf("get ride failed: %v", err)
	}
	if after.SeatsTaken != 1 {
		t.Fatalf("expected seats_taken=1, got %d", after.SeatsTaken)
	}
}

func TestRideSeatsNeverOverbook(t *testing.T) {
	driverID, _ := createRegularUser(t)
	ride := createRide(t, driverID, 2)

	const riders = 8
	requestIDs := make([]string, 0, riders)
	for i := 0; i < riders; i++ {
		riderID, _ := createRegularUser(t)
		request, err := getEnv(t).rideSvc.RequestSeat(context.Background(), riderID.String(), ride.ID.String(), "")
		if err != nil {
			t.Fatalf("request seat failed: %v", err)
		}
		requestIDs = append(requestIDs, request.ID.String())
	}

	var accepted int32
	var wg sync.WaitGroup
	for _, requestID := range requestIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := getEnv(t).rideSvc.Decide(context.Background(), driverID.String(), id, true); err == nil {
				atomic.AddInt32(&accepted, 1)
			}
		}(requestID)
	}
	wg.Wait()

	if accepted != 2 {
		t.Fatalf("expected exactly 2 accepted requests, got %d", accepted)
	}

	after, err := getEnv(t).rideSvc.GetByID(context.Background(), ride.ID.String())
	if err != nil {
		t.Fatalf("get ride failed: %v", err)
	}
	if after.SeatsTaken != after.SeatsTotal {
		t.Fatalf("expected full ride, seats_taken=%d seats_total=%d", after.SeatsTaken, after.SeatsTotal)
	}
	if after.Status != model.RideStatusFull {
		t.Fatalf("expected ride status full, got %s", after.Status)
	}
}

func TestRideCancelReleasesSeat(t *testing.T) {
	driverID, _ := createRegularUser(t)
	riderID, _ := createRegularUser(t)
	ride := createRide(t, driverID, 1)

	request, err := getEnv(t).rideSvc.RequestSeat(context.Background(), riderID.String(), ride.ID.String(), "")
	if err != nil {
		t.Fatalf("request seat failed: %v", err)
	}
	if _, err := getEnv(t).rideSvc.Decide(context.Background(), driverID.String(), request.ID.String(), true); err != nil {
		t.Fatalf("accept request failed: %v", err)
	}

	full, err := getEnv(t).rideSvc.GetByID(context.Background(), ride.ID.String())
	if err != nil {
		t.Fatalf("get ride failed: %v", err)
	}
	if full.Status != model.RideStatusFull {
		t.Fatalf("expected full ride, got %s", full.Status)
	}

	if _, err := getEnv(t).rideSvc.CancelRequest(context.Background(), riderID.String(), request.ID.String()); err != nil {
		t.Fatalf("cancel request failed: %v", err)
	}

	reopened, err := getEnv(t).rideSvc.GetByID(context.Background(), ride.ID.String())
	if err != nil {
		t.Fatalf("get ride failed: %v", err)
	}
	if reopened.SeatsTaken != 0 {
		t.Fatalf("expected seat released, seats_taken=%d", reopened.SeatsTaken)
	}
	if reopened.Status != model.RideStatusOpen {
		t.Fatalf("expected ride reopened, got %s", reopened.Status)
	}
}
