package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/api/sanitize"
	"unishare-hub/internal/event"
	"unishare-hub/internal/metrics"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
	"unishare-hub/internal/sse"
)

const rideMaxSeats = 8

var (
	ErrRideNotFound        = errors.New("ride not found")
	ErrInvalidRideReq      = errors.New("invalid ride input")
	ErrRideFull            = errors.New("ride has no free seats")
	ErrRideClosed          = errors.New("ride is not open")
	ErrRideRequestNotFound = errors.New("ride request not found")
	ErrRideForbidden       = errors.New("ride does not belong to user")
	ErrDuplicateRequest    = errors.New("rider already requested this ride")
	ErrRequestNotPending   = errors.New("ride request already decided")
)

type CreateRideRequest struct {
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	DepartsAt   time.Time `json:"departs_at"`
	SeatsTotal  int       `json:"seats_total"`
}

type RideService struct {
	rideRepo repository.RideRepository
	bus      *event.Bus
	sseHub   *sse.Hub
	logger   *zap.Logger
}

func NewRideService(
	rideRepo repository.RideRepository,
	bus *event.Bus,
	sseHub *sse.Hub,
	logger *zap.Logger,
) *RideService {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RideService{
		rideRepo: rideRepo,
		bus:      bus,
		sseHub:   sseHub,
		logger:   logger,
	}
}

func (s *RideService) Create(ctx context.Context, driverID string, req CreateRideRequest) (*model.Ride, error) {
	driverUUID, err := uuid.Parse(strings.TrimSpace(driverID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	origin := sanitize.Text(req.Origin)
	destination := sanitize.Text(req.Destination)
	if origin == "" || destination == "" {
		return nil, ErrInvalidRideReq
	}
	if req.SeatsTotal < 1 || req.SeatsTotal > rideMaxSeats {
		return nil, ErrInvalidRideReq
	}
	if req.DepartsAt.Before(time.Now().UTC()) {
		return nil, ErrInvalidRideReq
	}

	now := time.Now().UTC()
	ride := &model.Ride{
		ID:          uuid.New(),
		DriverID:    driverUUID,
		Origin:      origin,
		Destination: destination,
		DepartsAt:   req.DepartsAt.UTC(),
		SeatsTotal:  req.SeatsTotal,
		SeatsTaken:  0,
		Status:      model.RideStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

func (s *RideService) GetByID(ctx context.Context, rideID string) (*model.Ride, error) {
	return s.getByID(ctx, rideID)
}

func (s *RideService) List(
	ctx context.Context,
	status, driverID string,
	departsAfter *time.Time,
	page, pageSize int,
) ([]*model.Ride, int64, error) {
	limit, offset := pageToPagination(page, pageSize)
	filter := repository.RideListFilter{
		DepartsAfter: departsAfter,
		Pagination:   repository.Pagination{Limit: limit, Offset: offset},
	}

	if trimmed := strings.TrimSpace(status); trimmed != "" {
		parsed, err := parseRideStatus(trimmed)
		if err != nil {
			return nil, 0, err
		}
		filter.Status = &parsed
	}
	if trimmed := strings.TrimSpace(driverID); trimmed != "" {
		driverUUID, err := uuid.Parse(trimmed)
		if err != nil {
			return nil, 0, ErrInvalidUserID
		}
		filter.DriverID = &driverUUID
	}

	items, err := s.rideRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.rideRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *RideService) Cancel(ctx context.Context, driverID, rideID string) error {
	driverUUID, err := uuid.Parse(strings.TrimSpace(driverID))
	if err != nil {
		return ErrInvalidUserID
	}

	ride, err := s.getByID(ctx, rideID)
	if err != nil {
		return err
	}
	if ride.DriverID != driverUUID {
		return ErrRideForbidden
	}

	if err := s.rideRepo.UpdateStatus(ctx, ride.ID, model.RideStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRideNotFound
		}
		return err
	}

	return nil
}

// RequestSeat files a pending request. The seat itself is only reserved
// when the driver accepts; the rider sees the transition over SSE.
func (s *RideService) RequestSeat(ctx context.Context, riderID, rideID, note string) (*model.RideRequest, error) {
	riderUUID, err := uuid.Parse(strings.TrimSpace(riderID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	ride, err := s.getByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != model.RideStatusOpen {
		return nil, ErrRideClosed
	}
	if ride.DriverID == riderUUID {
		return nil, ErrInvalidRideReq
	}

	existing, err := s.rideRepo.ListRequestsByRide(ctx, ride.ID)
	if err != nil {
		return nil, err
	}
	for _, req := range existing {
		if req.RiderID == riderUUID && (req.Status == model.RideRequestStatusPending || req.Status == model.RideRequestStatusAccepted) {
			return nil, ErrDuplicateRequest
		}
	}

	now := time.Now().UTC()
	request := &model.RideRequest{
		ID:        uuid.New(),
		RideID:    ride.ID,
		RiderID:   riderUUID,
		Note:      sanitize.Text(note),
		Status:    model.RideRequestStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.rideRepo.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	s.notifyRequest(ride, request)
	if s.bus != nil {
		s.bus.Publish(event.EventRideRequestCreated, event.RideRequestPayload{
			RideID:      ride.ID.String(),
			RequestID:   request.ID.String(),
			DriverID:    ride.DriverID.String(),
			PassengerID: riderUUID.String(),
			Status:      string(request.Status),
		})
	}

	return request, nil
}

// Decide accepts or declines a pending request. Accepting reserves a seat
// atomically; when the last seat is already gone the accept fails with
// ErrRideFull and the request stays pending.
func (s *RideService) Decide(ctx context.Context, driverID, requestID string, accept bool) (*model.RideRequest, error) {
	driverUUID, err := uuid.Parse(strings.TrimSpace(driverID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	reqID, err := uuid.Parse(strings.TrimSpace(requestID))
	if err != nil {
		return nil, ErrInvalidRideReq
	}

	request, err := s.rideRepo.FindRequestByID(ctx, reqID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideRequestNotFound
		}
		return nil, err
	}
	if request.Status != model.RideRequestStatusPending {
		return nil, ErrRequestNotPending
	}

	ride, err := s.rideRepo.FindByID(ctx, request.RideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	if ride.DriverID != driverUUID {
		return nil, ErrRideForbidden
	}

	status := model.RideRequestStatusDeclined
	if accept {
		updated, reserveErr := s.rideRepo.ReserveSeat(ctx, ride.ID)
		if reserveErr != nil {
			metrics.IncRideSeatReservation("rejected")
			if errors.Is(reserveErr, repository.ErrNotFound) {
				return nil, ErrRideFull
			}
			return nil, reserveErr
		}
		metrics.IncRideSeatReservation("accepted")
		ride = updated
		status = model.RideRequestStatusAccepted
	}

	if err := s.rideRepo.UpdateRequestStatus(ctx, request.ID, status); err != nil {
		if accept {
			// Seat was taken but the request row could not record it;
			// hand the seat back rather than leaking it.
			if _, releaseErr := s.rideRepo.ReleaseSeat(ctx, ride.ID); releaseErr != nil {
				s.logger.Error("seat release after failed request update",
					zap.String("ride_id", ride.ID.String()),
					zap.Error(releaseErr),
				)
			}
		}
		return nil, err
	}

	request.Status = status
	request.UpdatedAt = time.Now().UTC()

	s.notifyRequest(ride, request)
	if s.bus != nil {
		s.bus.Publish(event.EventRideRequestDecided, event.RideRequestPayload{
			RideID:      ride.ID.String(),
			RequestID:   request.ID.String(),
			DriverID:    ride.DriverID.String(),
			PassengerID: request.RiderID.String(),
			Status:      string(status),
		})
	}

	return request, nil
}

// CancelRequest lets a rider withdraw. Withdrawing an accepted request
// frees the seat, which may flip a full ride back to open.
func (s *RideService) CancelRequest(ctx context.Context, riderID, requestID string) (*model.RideRequest, error) {
	riderUUID, err := uuid.Parse(strings.TrimSpace(riderID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	reqID, err := uuid.Parse(strings.TrimSpace(requestID))
	if err != nil {
		return nil, ErrInvalidRideReq
	}

	request, err := s.rideRepo.FindRequestByID(ctx, reqID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideRequestNotFound
		}
		return nil, err
	}
	if request.RiderID != riderUUID {
		return nil, ErrRideForbidden
	}
	if request.Status != model.RideRequestStatusPending && request.Status != model.RideRequestStatusAccepted {
		return nil, ErrRequestNotPending
	}

	wasAccepted := request.Status == model.RideRequestStatusAccepted

	if err := s.rideRepo.UpdateRequestStatus(ctx, request.ID, model.RideRequestStatusCancelled); err != nil {
		return nil, err
	}

	var ride *model.Ride
	if wasAccepted {
		ride, err = s.rideRepo.ReleaseSeat(ctx, request.RideID)
		if err != nil {
			s.logger.Error("seat release after request cancel",
				zap.String("ride_id", request.RideID.String()),
				zap.Error(err),
			)
		}
	}
	if ride == nil {
		ride, _ = s.rideRepo.FindByID(ctx, request.RideID)
	}

	request.Status = model.RideRequestStatusCancelled
	request.UpdatedAt = time.Now().UTC()
	s.notifyRequest(ride, request)

	return request, nil
}

func (s *RideService) ListRequests(ctx context.Context, driverID, rideID string) ([]*model.RideRequest, error) {
	driverUUID, err := uuid.Parse(strings.TrimSpace(driverID))
	if err != nil {
		return nil, ErrInvalidUserID
	}

	ride, err := s.getByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != driverUUID {
		return nil, ErrRideForbidden
	}

	return s.rideRepo.ListRequestsByRide(ctx, ride.ID)
}

func (s *RideService) ListMyRequests(ctx context.Context, riderID string) ([]*model.RideRequest, error) {
	riderUUID, err := uuid.Parse(strings.TrimSpace(riderID))
	if err != nil {
		return nil, ErrInvalidUserID
	}
	return s.rideRepo.ListRequestsByRider(ctx, riderUUID)
}

func (s *RideService) getByID(ctx context.Context, rideID string) (*model.Ride, error) {
	id, err := uuid.Parse(strings.TrimSpace(rideID))
	if err != nil {
		return nil, ErrInvalidRideReq
	}

	ride, err := s.rideRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, err
	}
	return ride, nil
}

func (s *RideService) notifyRequest(ride *model.Ride, request *model.RideRequest) {
	if s.sseHub == nil || request == nil {
		return
	}

	payload := map[string]interface{}{
		"request_id": request.ID.String(),
		"ride_id":    request.RideID.String(),
		"status":     string(request.Status),
	}
	if ride != nil {
		payload["seats_taken"] = ride.SeatsTaken
		payload["seats_total"] = ride.SeatsTotal
		payload["ride_status"] = string(ride.Status)
	}

	evt := sse.NewEvent(sse.EventRideRequest, payload)
	s.sseHub.SendToUser(request.RiderID.String(), evt)
	if ride != nil {
		s.sseHub.SendToUser(ride.DriverID.String(), evt)
	}
}

func parseRideStatus(raw string) (model.RideStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "open":
		return model.RideStatusOpen, nil
	case "full":
		return model.RideStatusFull, nil
	case "cancelled":
		return model.RideStatusCancelled, nil
	case "done":
		return model.RideStatusDone, nil
	default:
		return "", ErrInvalidRideReq
	}
}
