package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository"
)

func newTestLostFoundService(repo *fakeLostFoundRepo) *LostFoundService {
	return &LostFoundService{
		reportRepo: repo,
		logger:     zap.NewNop(),
	}
}

func TestCreateReport_GeneratesCaseCode(t *testing.T) {
	t.Parallel()

	var stored *model.LostFoundReport
	repo := &fakeLostFoundRepo{
		createFn: func(_ context.Context, r *model.LostFoundReport) error {
			stored = r
			return nil
		},
	}
	svc := newTestLostFoundService(repo)

	report, err := svc.Create(context.Background(), uuid.New().String(), CreateReportRequest{
		Kind:     "lost",
		Item:     "Umbrella",
		Location: "Bus stop 4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected report persisted")
	}
	if len(report.CaseCode) != caseCodeLength {
		t.Fatalf("expected %d-char case code, got %q", caseCodeLength, report.CaseCode)
	}
	for _, r := range report.CaseCode {
		if !strings.ContainsRune(caseCodeAlphabet, r) {
			t.Fatalf("case code %q contains %q outside the alphabet", report.CaseCode, r)
		}
	}
	if report.Status != model.LostFoundStatusOpen {
		t.Fatalf("expected open report, got %s", report.Status)
	}
}

func TestCreateReport_RejectsMissingFields(t *testing.T) {
	t.Parallel()

	svc := newTestLostFoundService(&fakeLostFoundRepo{})

	cases := []CreateReportRequest{
		{Kind: "misplaced", Item: "Keys", Location: "Gym"},
		{Kind: "lost", Item: "", Location: "Gym"},
		{Kind: "lost", Item: "Keys", Location: ""},
	}
	for _, req := range cases {
		if _, err := svc.Create(context.Background(), uuid.New().String(), req); err == nil {
			t.Fatalf("expected rejection for %+v", req)
		}
	}
}

func TestResolveByCaseCode_NormalizesInput(t *testing.T) {
	t.Parallel()

	report := &model.LostFoundReport{
		ID:       uuid.New(),
		CaseCode: "ABCD234567",
		Status:   model.LostFoundStatusOpen,
	}

	var lookedUp string
	repo := &fakeLostFoundRepo{
		findByCaseCodeFn: func(_ context.Context, code string) (*model.LostFoundReport, error) {
			lookedUp = code
			return report, nil
		},
		updateStatusFn: func(_ context.Context, _ uuid.UUID, status model.LostFoundStatus) error {
			if status != model.LostFoundStatusClaimed {
				t.Fatalf("expected claimed transition, got %s", status)
			}
			return nil
		},
	}
	svc := newTestLostFoundService(repo)

	resolved, err := svc.ResolveByCaseCode(context.Background(), "  abcd234567 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookedUp != "ABCD234567" {
		t.Fatalf("expected upper-cased lookup, got %q", lookedUp)
	}
	if resolved.Status != model.LostFoundStatusClaimed {
		t.Fatalf("expected claimed report, got %s", resolved.Status)
	}
}

func TestResolveByCaseCode_RejectsNonOpen(t *testing.T) {
	t.Parallel()

	repo := &fakeLostFoundRepo{
		findByCaseCodeFn: func(_ context.Context, _ string) (*model.LostFoundReport, error) {
			return &model.LostFoundReport{
				ID:       uuid.New(),
				CaseCode: "ABCD234567",
				Status:   model.LostFoundStatusClaimed,
			}, nil
		},
	}
	svc := newTestLostFoundService(repo)

	if _, err := svc.ResolveByCaseCode(context.Background(), "ABCD234567"); !errors.Is(err, ErrReportNotOpen) {
		t.Fatalf("expected ErrReportNotOpen, got %v", err)
	}
}

func TestResolveByCaseCode_UnknownCode(t *testing.T) {
	t.Parallel()

	repo := &fakeLostFoundRepo{
		findByCaseCodeFn: func(_ context.Context, _ string) (*model.LostFoundReport, error) {
			return nil, repository.ErrNotFound
		},
	}
	svc := newTestLostFoundService(repo)

	if _, err := svc.ResolveByCaseCode(context.Background(), "NOPE234567"); !errors.Is(err, ErrCaseCodeNotFound) {
		t.Fatalf("expected ErrCaseCodeNotFound, got %v", err)
	}
}

func TestClose_ReporterAndAdminOnly(t *testing.T) {
	t.Parallel()

	reporterID := uuid.New()
	report := &model.LostFoundReport{
		ID:         uuid.New(),
		ReporterID: reporterID,
		Status:     model.LostFoundStatusOpen,
	}

	repo := &fakeLostFoundRepo{
		findByIDFn: func(_ context.Context, _ uuid.UUID) (*model.LostFoundReport, error) {
			copied := *report
			return &copied, nil
		},
		updateStatusFn: func(_ context.Context, _ uuid.UUID, _ model.LostFoundStatus) error {
			return nil
		},
	}
	svc := newTestLostFoundService(repo)

	if _, err := svc.Close(context.Background(), uuid.New().String(), model.UserRoleUser, report.ID.String()); !errors.Is(err, ErrLostFoundForbidden) {
		t.Fatalf("expected ErrLostFoundForbidden for stranger, got %v", err)
	}

	closed, err := svc.Close(context.Background(), reporterID.String(), model.UserRoleUser, report.ID.String())
	if err != nil {
		t.Fatalf("reporter close failed: %v", err)
	}
	if closed.Status != model.LostFoundStatusClosed {
		t.Fatalf("expected closed report, got %s", closed.Status)
	}

	if _, err := svc.Close(context.Background(), uuid.New().String(), model.UserRoleAdmin, report.ID.String()); err != nil {
		t.Fatalf("admin close failed: %v", err)
	}
}
