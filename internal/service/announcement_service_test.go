package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/feed"
	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

func newNoticeService(
	announcementRepo repository.AnnouncementRepository,
	dismissalRepo repository.DismissalRepository,
	userRepo repository.UserRepository,
	feedClient feedSource,
) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: announcementRepo,
		dismissalRepo:    dismissalRepo,
		userRepo:         userRepo,
		feed:             feedClient,
		logger:           zap.NewNop(),
	}
}

func seenUserRepo(t *testing.T, popupSeen bool) *fakeUserRepo {
	t.Helper()
	return &fakeUserRepo{
		findByIDFn: func(_ context.Context, id uuid.UUID) (*model.User, error) {
			return &model.User{ID: id, PopupSeen: popupSeen}, nil
		},
		setPopupSeenFn: func(_ context.Context, _ uuid.UUID) error {
			return nil
		},
	}
}

func eligibleAnnouncement(updatedAt time.Time) *model.Announcement {
	return &model.Announcement{
		ID:        uuid.New(),
		Title:     "Library hours extended",
		Body:      "Open until midnight during finals.",
		Priority:  model.AnnouncementPriorityNormal,
		Active:    true,
		Source:    model.AnnouncementSourceLocal,
		CreatedAt: updatedAt.Add(-time.Hour),
		UpdatedAt: updatedAt,
	}
}

func TestLatest_PrefersMostRecentlyUpdated(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	older := eligibleAnnouncement(now.Add(-2 * time.Hour))
	newer := eligibleAnnouncement(now.Add(-time.Minute))

	repo := &fakeAnnouncementRepo{
		listEligibleFn: func(_ context.Context, _ time.Time) ([]*model.Announcement, error) {
			// Repository orders newest first.
			return []*model.Announcement{newer, older}, nil
		},
	}

	svc := newNoticeService(repo, nil, nil, nil)
	got, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if got.ID != newer.ID {
		t.Fatalf("expected newest announcement %s, got %s", newer.ID, got.ID)
	}
}

func TestLatest_FallsBackToFeedWhenStoreEmpty(t *testing.T) {
	t.Parallel()

	repo := &fakeAnnouncementRepo{
		listEligibleFn: func(_ context.Context, _ time.Time) ([]*model.Announcement, error) {
			return nil, nil
		},
	}
	fromFeed := eligibleAnnouncement(time.Now().UTC())
	src := &fakeFeedSource{
		latestFn: func(_ context.Context) (*model.Announcement, error) {
			return fromFeed, nil
		},
	}

	svc := newNoticeService(repo, nil, nil, src)
	got, err := svc.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if got.ID != fromFeed.ID {
		t.Fatalf("expected feed announcement, got %+v", got)
	}
}

func TestLatest_EmptyFeedMeansNoAnnouncement(t *testing.T) {
	t.Parallel()

	repo := &fakeAnnouncementRepo{
		listEligibleFn: func(_ context.Context, _ time.Time) ([]*model.Announcement, error) {
			return nil, nil
		},
	}
	src := &fakeFeedSource{
		latestFn: func(_ context.Context) (*model.Announcement, error) {
			return nil, feed.ErrEmptyFeed
		},
	}

	svc := newNoticeService(repo, nil, nil, src)
	if _, err := svc.Latest(context.Background()); !errors.Is(err, ErrNoAnnouncement) {
		t.Fatalf("expected ErrNoAnnouncement, got %v", err)
	}
}

func TestNotice_HiddenWhenCandidateDismissed(t *testing.T) {
	t.Parallel()

	candidate := eligibleAnnouncement(time.Now().UTC())
	userID := uuid.New()

	repo := &fakeAnnouncementRepo{
		listEligibleFn: func(_ context.Context, _ time.Time) ([]*model.Announcement, error) {
			return []*model.Announcement{candidate}, nil
		},
	}
	dismissals := &fakeDismissalRepo{
		readFn: func(_ context.Context, _ uuid.UUID) (*model.Dismissal, error) {
			return &model.Dismissal{
				UserID:         userID,
				AnnouncementID: candidate.ID,
				DismissedAt:    time.Now().UTC(),
			}, nil
		},
	}

	svc := newNoticeService(repo, dismissals, seenUserRepo(t, true), nil)
	decision, err := svc.Notice(context.Background(), userID.String())
	if err != nil {
		t.Fatalf("Notice returned error: %v", err)
	}
	if decision.Visible {
		t.Fatal("expected notice hidden after dismissal of the candidate")
	}
}

func TestNotice_VisibleWhenDifferentAnnouncementDismissed(t *testing.T) {
	t.Parallel()

	candidate := eligibleAnnouncement(time.Now().UTC())
	userID := uuid.New()

	repo := &fakeAnnouncementRepo{
		listEligibleFn: func(_ context.Context, _ time.Time) ([]*model.Announcement, error) {
			return []*model.Announcement{candidate}, nil
		},
	}
	dismissals := &fakeDismissalRepo{
		readFn: func(_ context.Context, _ uuid.UUID) (*model.Dismissal, error) {
			return &model.Dismissal{
				UserID:         userID,
				AnnouncementID: uuid.New(),
				DismissedAt:    time.Now().UTC(),
			}, nil
		},
	}

	svc := newNoticeService(repo, dismissals, seenUserRepo(t, true), nil)
	decision, err := svc.Notice(context.Background(), userID.String())
	if err != nil {
		t.Fatalf("Notice returned error: %v", err)
	}
	if !decision.Visible {
		t.Fatal("expected notice visible when a different announcement was dismissed")
	}
	if decision.Announcement == nil || decision.Announcement.ID != candidate.ID {
		t.Fatalf("expected candidate announcement, got %+v", decision.Announcement)
	}
}

func TestNotice_DismissalReadFailureShowsNotice(t *testing.T) {
	t.Parallel()

	candidate := eligibleAnnouncement(time.Now().UTC())

	repo := &fakeAnnouncementRepo{
		listEligibleFn: func(_ context.Context, _ time.Time) ([]*model.Announcement, error) {
			return []*model.Announcement{candidate}, nil
		},
	}
	dismissals := &fakeDismissalRepo{
		readFn: func(_ context.Context, _ uuid.UUID) (*model.Dismissal, error) {
			return nil, errors.New("storage offline")
		},
	}

	svc := newNoticeService(repo, dismissals, seenUserRepo(t, true), nil)
	decision, err := svc.Notice(context.Background(), uuid.New().String())
	if err != nil {
		t.Fatalf("Notice returned error: %v", err)
	}
	if !decision.Visible {
		t.Fatal("expected notice visible when the dismissal store fails")
	}
}

func TestNotice_PopupFiresOnceThenFlagSticks(t *testing.T) {
	t.Parallel()

	candidate := eligibleAnnouncement(time.Now().UTC())
	repo := &fakeAnnouncementRepo{
		listEligibleFn: func(_ context.Context, _ time.Time) ([]*model.Announcement, error) {
			return []*model.Announcement{candidate}, nil
		},
	}
	dismissals := &fakeDismissalRepo{
		readFn: func(_ context.Context, _ uuid.UUID) (*model.Dismissal, error) {
			return nil, repository.ErrNotFound
		},
	}

	popupSeen := false
	users := &fakeUserRepo{
		findByIDFn: func(_ context.Context, id uuid.UUID) (*model.User, error) {
			return &model.User{ID: id, PopupSeen: popupSeen}, nil
		},
		setPopupSeenFn: func(_ context.Context, _ uuid.UUID) error {
			popupSeen = true
			return nil
		},
	}

	svc := newNoticeService(repo, dismissals, users, nil)
	userID := uuid.New().String()

	first, err := svc.Notice(context.Background(), userID)
	if err != nil {
		t.Fatalf("Notice returned error: %v", err)
	}
	if !first.Popup {
		t.Fatal("expected popup on first visit")
	}

	second, err := svc.Notice(context.Background(), userID)
	if err != nil {
		t.Fatalf("Notice returned error: %v", err)
	}
	if second.Popup {
		t.Fatal("expected popup suppressed after the flag is set")
	}
}

func TestDismiss_SwallowsStorageFailure(t *testing.T) {
	t.Parallel()

	dismissals := &fakeDismissalRepo{
		writeFn: func(_ context.Context, _, _ uuid.UUID, _ time.Time) error {
			return errors.New("storage offline")
		},
	}

	svc := newNoticeService(nil, dismissals, nil, nil)
	if err := svc.Dismiss(context.Background(), uuid.New().String(), uuid.New().String()); err != nil {
		t.Fatalf("expected dismissal failure to be swallowed, got %v", err)
	}
}

func TestDismiss_Idempotent(t *testing.T) {
	t.Parallel()

	writes := 0
	var lastTS time.Time
	dismissals := &fakeDismissalRepo{
		writeFn: func(_ context.Context, _, _ uuid.UUID, ts time.Time) error {
			writes++
			if !ts.After(lastTS) {
				t.Fatalf("expected monotonically increasing timestamps, got %v then %v", lastTS, ts)
			}
			lastTS = ts
			return nil
		},
	}

	svc := newNoticeService(nil, dismissals, nil, nil)
	userID := uuid.New().String()
	announcementID := uuid.New().String()

	for i := 0; i < 3; i++ {
		if err := svc.Dismiss(context.Background(), userID, announcementID); err != nil {
			t.Fatalf("Dismiss returned error: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	if writes != 3 {
		t.Fatalf("expected 3 overwrites, got %d", writes)
	}
}

func TestSyncFromFeed_SkipsFailedUpserts(t *testing.T) {
	t.Parallel()

	good := eligibleAnnouncement(time.Now().UTC())
	goodID := "feed-1"
	good.FeedID = &goodID
	bad := eligibleAnnouncement(time.Now().UTC())
	badID := "feed-2"
	bad.FeedID = &badID

	src := &fakeFeedSource{
		fetchFn: func(_ context.Context) ([]*model.Announcement, error) {
			return []*model.Announcement{good, bad}, nil
		},
	}
	repo := &fakeAnnouncementRepo{
		upsertFeedFn: func(_ context.Context, a *model.Announcement) error {
			if a.FeedID != nil && *a.FeedID == badID {
				return errors.New("constraint violation")
			}
			return nil
		},
	}

	svc := newNoticeService(repo, nil, nil, src)
	synced, err := svc.SyncFromFeed(context.Background())
	if err != nil {
		t.Fatalf("SyncFromFeed returned error: %v", err)
	}
	if synced != 1 {
		t.Fatalf("expected 1 synced entry, got %d", synced)
	}
}
