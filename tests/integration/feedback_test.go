//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"unishare-hub/internal/model"
	"unishare-hub/internal/repository/postgres"
	"unishare-hub/internal/service"
	"unishare-hub/pkg/forms"
)

func TestFeedbackSubmit_Anonymous(t *testing.T) {
	before := getEnv(t).formsStub.Count()

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/feedback/",
		map[string]interface{}{
			"type":    "general",
			"name":    "Visitor",
			"email":   "visitor@example.edu",
			"subject": "Great shuttle tracker",
			"message": "The live map is really handy.",
			"rating":  5,
		},
		nil,
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("submit failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var created model.Feedback
	if err := json.Unmarshal(envelope.Data, &created); err != nil {
		t.Fatalf("decode feedback: %v", err)
	}
	if created.UserID != nil {
		t.Fatal("expected anonymous submission without user_id")
	}
	if created.Status != model.FeedbackStatusDelivered {
		t.Fatalf("expected delivered status, got %s", created.Status)
	}

	if getEnv(t).formsStub.Count() != before+1 {
		t.Fatalf("expected one forms delivery, got %d", getEnv(t).formsStub.Count()-before)
	}
}

func TestFeedbackSubmit_AttributedToUser(t *testing.T) {
	userID, token := createRegularUser(t)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/feedback/",
		map[string]interface{}{
			"type":    "feature",
			"subject": "Dark mode please",
			"message": "The night shuttle crowd would appreciate it.",
		},
		authHeader(token),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("submit failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var created model.Feedback
	if err := json.Unmarshal(envelope.Data, &created); err != nil {
		t.Fatalf("decode feedback: %v", err)
	}
	if created.UserID == nil || *created.UserID != userID {
		t.Fatalf("expected feedback tied to user %s", userID)
	}
}

func TestFeedbackOutboxDrain(t *testing.T) {
	env := getEnv(t)

	feedbackRepo := postgres.NewFeedbackRepository(env.pool)
	logger := zap.NewNop()

	// A dead endpoint forces the entry into the outbox.
	deadServer := httptest.NewTLSServer(http.NotFoundHandler())
	deadClient := forms.NewClient(deadServer.URL, forms.DefaultFieldMap, deadServer.Client(), logger)
	deadServer.Close()

	brokenSvc := service.NewFeedbackService(feedbackRepo, deadClient, nil, nil, logger)

	rating := 3
	entry, err := brokenSvc.Submit(context.Background(), nil, service.SubmitFeedbackRequest{
		Type:    "ui",
		Subject: "Queued entry",
		Message: "Should retry later.",
		Rating:  &rating,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if entry.Status != model.FeedbackStatusQueued {
		t.Fatalf("expected queued entry, got %s", entry.Status)
	}

	// Draining through the healthy endpoint delivers it.
	delivered, failed, err := env.feedbackSvc.DrainOutbox(context.Background())
	if err != nil {
		t.Fatalf("drain failed: %v", err)
	}
	if failed > 0 {
		t.Fatalf("expected no permanent failures, got %d", failed)
	}
	if delivered < 1 {
		t.Fatalf("expected at least one delivery, got %d", delivered)
	}

	var queued int
	if err := env.pool.QueryRow(
		context.Background(),
		`SELECT COUNT(*) FROM feedback_outbox WHERE status = 'queued' AND subject = 'Queued entry'`,
	).Scan(&queued); err != nil {
		t.Fatalf("count queued: %v", err)
	}
	if queued != 0 {
		t.Fatalf("expected queued entry drained, still %d queued", queued)
	}
}
