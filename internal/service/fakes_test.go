package service

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

type fakeAnnouncementRepo struct {
	findByIDFn     func(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
	createFn       func(ctx context.Context, a *model.Announcement) error
	updateFn       func(ctx context.Context, a *model.Announcement) error
	setActiveFn    func(ctx context.Context, id uuid.UUID, active bool) error
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	listFn         func(ctx context.Context, filter repository.AnnouncementListFilter) ([]*model.Announcement, error)
	countFn        func(ctx context.Context, filter repository.AnnouncementListFilter) (int64, error)
	listEligibleFn func(ctx context.Context, now time.Time) ([]*model.Announcement, error)
	upsertFeedFn   func(ctx context.Context, a *model.Announcement) error
}

func (f *fakeAnnouncementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeAnnouncementRepo) Create(ctx context.Context, a *model.Announcement) error {
	return f.createFn(ctx, a)
}

func (f *fakeAnnouncementRepo) Update(ctx context.Context, a *model.Announcement) error {
	return f.updateFn(ctx, a)
}

func (f *fakeAnnouncementRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return f.setActiveFn(ctx, id, active)
}

func (f *fakeAnnouncementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

func (f *fakeAnnouncementRepo) List(ctx context.Context, filter repository.AnnouncementListFilter) ([]*model.Announcement, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeAnnouncementRepo) Count(ctx context.Context, filter repository.AnnouncementListFilter) (int64, error) {
	return f.countFn(ctx, filter)
}

func (f *fakeAnnouncementRepo) ListEligible(ctx context.Context, now time.Time) ([]*model.Announcement, error) {
	return f.listEligibleFn(ctx, now)
}

func (f *fakeAnnouncementRepo) UpsertFromFeed(ctx context.Context, a *model.Announcement) error {
	return f.upsertFeedFn(ctx, a)
}

type fakeDismissalRepo struct {
	readFn  func(ctx context.Context, userID uuid.UUID) (*model.Dismissal, error)
	writeFn func(ctx context.Context, userID, announcementID uuid.UUID, ts time.Time) error
}

func (f *fakeDismissalRepo) Read(ctx context.Context, userID uuid.UUID) (*model.Dismissal, error) {
	return f.readFn(ctx, userID)
}

func (f *fakeDismissalRepo) Write(ctx context.Context, userID, announcementID uuid.UUID, ts time.Time) error {
	return f.writeFn(ctx, userID, announcementID, ts)
}

type fakeUserRepo struct {
	findByIDFn       func(ctx context.Context, id uuid.UUID) (*model.User, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.User, error)
	createFn         func(ctx context.Context, user *model.User) error
	updateFn         func(ctx context.Context, user *model.User) error
	updateStatusFn   func(ctx context.Context, id uuid.UUID, status model.UserStatus) error
	setPopupSeenFn   func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return f.findByUsernameFn(ctx, username)
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	return f.createFn(ctx, user)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	return f.updateFn(ctx, user)
}

func (f *fakeUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.UserStatus) error {
	return f.updateStatusFn(ctx, id, status)
}

func (f *fakeUserRepo) SetPopupSeen(ctx context.Context, id uuid.UUID) error {
	return f.setPopupSeenFn(ctx, id)
}

type fakeFeedbackRepo struct {
	createFn       func(ctx context.Context, fb *model.Feedback) error
	updateStatusFn func(ctx context.Context, id uuid.UUID, status model.FeedbackStatus, attempts int, lastError *string) error
	listQueuedFn   func(ctx context.Context, limit int32) ([]*model.Feedback, error)
	listFn         func(ctx context.Context, filter repository.FeedbackListFilter) ([]*model.Feedback, error)
	countFn        func(ctx context.Context, filter repository.FeedbackListFilter) (int64, error)
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	return f.createFn(ctx, fb)
}

func (f *fakeFeedbackRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.FeedbackStatus, attempts int, lastError *string) error {
	return f.updateStatusFn(ctx, id, status, attempts, lastError)
}

func (f *fakeFeedbackRepo) ListQueued(ctx context.Context, limit int32) ([]*model.Feedback, error) {
	return f.listQueuedFn(ctx, limit)
}

func (f *fakeFeedbackRepo) List(ctx context.Context, filter repository.FeedbackListFilter) ([]*model.Feedback, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeFeedbackRepo) Count(ctx context.Context, filter repository.FeedbackListFilter) (int64, error) {
	return f.countFn(ctx, filter)
}

type fakeRideRepo struct {
	findByIDFn            func(ctx context.Context, id uuid.UUID) (*model.Ride, error)
	createFn              func(ctx context.Context, r *model.Ride) error
	updateStatusFn        func(ctx context.Context, id uuid.UUID, status model.RideStatus) error
	reserveSeatFn         func(ctx context.Context, id uuid.UUID) (*model.Ride, error)
	releaseSeatFn         func(ctx context.Context, id uuid.UUID) (*model.Ride, error)
	listFn                func(ctx context.Context, filter repository.RideListFilter) ([]*model.Ride, error)
	countFn               func(ctx context.Context, filter repository.RideListFilter) (int64, error)
	findRequestByIDFn     func(ctx context.Context, id uuid.UUID) (*model.RideRequest, error)
	createRequestFn       func(ctx context.Context, req *model.RideRequest) error
	updateRequestStatusFn func(ctx context.Context, id uuid.UUID, status model.RideRequestStatus) error
	listRequestsByRideFn  func(ctx context.Context, rideID uuid.UUID) ([]*model.RideRequest, error)
	listRequestsByRiderFn func(ctx context.Context, riderID uuid.UUID) ([]*model.RideRequest, error)
}

func (f *fakeRideRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeRideRepo) Create(ctx context.Context, r *model.Ride) error {
	return f.createFn(ctx, r)
}

func (f *fakeRideRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.RideStatus) error {
	return f.updateStatusFn(ctx, id, status)
}

func (f *fakeRideRepo) ReserveSeat(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	return f.reserveSeatFn(ctx, id)
}

func (f *fakeRideRepo) ReleaseSeat(ctx context.Context, id uuid.UUID) (*model.Ride, error) {
	return f.releaseSeatFn(ctx, id)
}

func (f *fakeRideRepo) List(ctx context.Context, filter repository.RideListFilter) ([]*model.Ride, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeRideRepo) Count(ctx context.Context, filter repository.RideListFilter) (int64, error) {
	return f.countFn(ctx, filter)
}

func (f *fakeRideRepo) FindRequestByID(ctx context.Context, id uuid.UUID) (*model.RideRequest, error) {
	return f.findRequestByIDFn(ctx, id)
}

func (f *fakeRideRepo) CreateRequest(ctx context.Context, req *model.RideRequest) error {
	return f.createRequestFn(ctx, req)
}

func (f *fakeRideRepo) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status model.RideRequestStatus) error {
	return f.updateRequestStatusFn(ctx, id, status)
}

func (f *fakeRideRepo) ListRequestsByRide(ctx context.Context, rideID uuid.UUID) ([]*model.RideRequest, error) {
	return f.listRequestsByRideFn(ctx, rideID)
}

func (f *fakeRideRepo) ListRequestsByRider(ctx context.Context, riderID uuid.UUID) ([]*model.RideRequest, error) {
	return f.listRequestsByRiderFn(ctx, riderID)
}

type fakeFeedSource struct {
	fetchFn  func(ctx context.Context) ([]*model.Announcement, error)
	latestFn func(ctx context.Context) (*model.Announcement, error)
}

func (f *fakeFeedSource) Fetch(ctx context.Context) ([]*model.Announcement, error) {
	return f.fetchFn(ctx)
}

func (f *fakeFeedSource) Latest(ctx context.Context) (*model.Announcement, error) {
	return f.latestFn(ctx)
}

type fakeSubmitter struct {
	submitFn func(ctx context.Context, values url.Values) error
}

func (f *fakeSubmitter) Values(name, email, category, subject, message string, rating *int) url.Values {
	values := url.Values{}
	values.Set("name", name)
	values.Set("email", email)
	values.Set("category", category)
	values.Set("subject", subject)
	values.Set("message", message)
	return values
}

func (f *fakeSubmitter) Submit(ctx context.Context, values url.Values) error {
	return f.submitFn(ctx, values)
}

type fakeLostFoundRepo struct {
	findByIDFn       func(ctx context.Context, id uuid.UUID) (*model.LostFoundReport, error)
	findByCaseCodeFn func(ctx context.Context, code string) (*model.LostFoundReport, error)
	createFn         func(ctx context.Context, r *model.LostFoundReport) error
	updateStatusFn   func(ctx context.Context, id uuid.UUID, status model.LostFoundStatus) error
	listFn           func(ctx context.Context, filter repository.LostFoundListFilter) ([]*model.LostFoundReport, error)
	countFn          func(ctx context.Context, filter repository.LostFoundListFilter) (int64, error)
}

func (f *fakeLostFoundRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.LostFoundReport, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeLostFoundRepo) FindByCaseCode(ctx context.Context, code string) (*model.LostFoundReport, error) {
	return f.findByCaseCodeFn(ctx, code)
}

func (f *fakeLostFoundRepo) Create(ctx context.Context, r *model.LostFoundReport) error {
	return f.createFn(ctx, r)
}

func (f *fakeLostFoundRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.LostFoundStatus) error {
	return f.updateStatusFn(ctx, id, status)
}

func (f *fakeLostFoundRepo) List(ctx context.Context, filter repository.LostFoundListFilter) ([]*model.LostFoundReport, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeLostFoundRepo) Count(ctx context.Context, filter repository.LostFoundListFilter) (int64, error) {
	return f.countFn(ctx, filter)
}
