//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"unishare-hub/internal/feed"
	"unishare-hub/internal/service"
)

func TestAnnouncementLifecycle(t *testing.T) {
	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/announcements/",
		map[string]interface{}{
			"title":    "Library hours extended",
			"body":     "Open until midnight during exams.",
			"priority": "high",
		},
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("create announcement failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(envelope.Data, &created); err != nil {
		t.Fatalf("decode announcement: %v", err)
	}

	resp = performJSONRequest(t, getEnv(t).router, http.MethodGet, "/api/v1/announcements/latest", nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("latest failed, status=%d", resp.Code)
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPatch,
		"/api/v1/announcements/"+created.ID+"/toggle",
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("toggle failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodDelete,
		"/api/v1/announcements/"+created.ID,
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete failed, status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestAnnouncement_AdminOnlyMutations(t *testing.T) {
	userToken := loginAs(t, getEnv(t).defaultUserUsername, userPassword)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/announcements/",
		map[string]interface{}{"title": "nope"},
		authHeader(userToken),
		nil,
	)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for non-admin create, got %d", resp.Code)
	}
}

func TestNoticeAndDismiss(t *testing.T) {
	userID, userToken := createRegularUser(t)

	adminID := getEnv(t).adminID
	item, err := getEnv(t).announcementSvc.Create(
		context.Background(),
		adminID.String(),
		mustCreateAnnouncementReq("Shuttle schedule change", "New weekend timetable."),
	)
	if err != nil {
		t.Fatalf("create announcement failed: %v", err)
	}

	resp := performJSONRequest(t, getEnv(t).router, http.MethodGet, "/api/v1/announcements/notice", nil, authHeader(userToken), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("notice failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var notice struct {
		Visible bool `json:"visible"`
		Popup   bool `json:"popup"`
	}
	if err := json.Unmarshal(envelope.Data, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if !notice.Visible {
		t.Fatal("expected announcement visible for fresh user")
	}
	if !notice.Popup {
		t.Fatal("expected first visit to trigger popup")
	}

	// The popup shows once per account.
	resp = performJSONRequest(t, getEnv(t).router, http.MethodGet, "/api/v1/announcements/notice", nil, authHeader(userToken), nil)
	envelope = decodeEnvelope(t, resp)
	if err := json.Unmarshal(envelope.Data, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if notice.Popup {
		t.Fatal("expected popup flag consumed after first notice")
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/announcements/"+item.ID.String()+"/dismiss",
		nil,
		authHeader(userToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("dismiss failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	resp = performJSONRequest(t, getEnv(t).router, http.MethodGet, "/api/v1/announcements/notice", nil, authHeader(userToken), nil)
	envelope = decodeEnvelope(t, resp)
	if err := json.Unmarshal(envelope.Data, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if notice.Visible {
		t.Fatal("expected dismissed announcement hidden")
	}

	if user := userByID(t, userID); !user.PopupSeen {
		t.Fatal("expected popup_seen persisted")
	}
}

func mustCreateAnnouncementReq(title, body string) service.CreateAnnouncementRequest {
	return service.CreateAnnouncementRequest{
		Title:    title,
		Body:     body,
		Priority: "normal",
	}
}

func TestSyncFromFeed(t *testing.T) {
	getEnv(t).feedStub.Set(`{"announcements":[
		{"id":"feed-sync-1","title":"Feed says hi","body":"Synced from upstream.","priority":"normal","active":true},
		{"id":"feed-sync-2","title":"Feed says more","body":"Also synced.","priority":"high","active":true}
	]}`, http.StatusOK)

	countSynced := func() int {
		var total int
		err := getEnv(t).pool.QueryRow(
			context.Background(),
			`SELECT COUNT(*) FROM announcements WHERE feed_id IN ('feed-sync-1', 'feed-sync-2')`,
		).Scan(&total)
		if err != nil {
			t.Fatalf("query synced announcements: %v", err)
		}
		return total
	}

	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)
	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/announcements/sync",
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("sync failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	// Every distinct feed entry gets its own row.
	if total := countSynced(); total != 2 {
		t.Fatalf("expected two synced announcements, got %d", total)
	}

	// Re-sync upserts instead of duplicating.
	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/announcements/sync",
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("second sync failed, status=%d", resp.Code)
	}

	if total := countSynced(); total != 2 {
		t.Fatalf("expected upsert to keep two rows, got %d", total)
	}

	var distinctIDs int
	err := getEnv(t).pool.QueryRow(
		context.Background(),
		`SELECT COUNT(DISTINCT id) FROM announcements WHERE feed_id IN ('feed-sync-1', 'feed-sync-2')`,
	).Scan(&distinctIDs)
	if err != nil {
		t.Fatalf("query synced announcement ids: %v", err)
	}
	if distinctIDs != 2 {
		t.Fatalf("expected distinct row ids per feed entry, got %d", distinctIDs)
	}
}

func TestNoticeDefaultDismissal(t *testing.T) {
	// Deactivate every stored candidate and break the feed so the static
	// default is the notice.
	if _, err := getEnv(t).pool.Exec(context.Background(), `UPDATE announcements SET active = FALSE`); err != nil {
		t.Fatalf("deactivate announcements: %v", err)
	}
	getEnv(t).feedStub.Set(`upstream down`, http.StatusInternalServerError)

	_, userToken := createRegularUser(t)

	resp := performJSONRequest(t, getEnv(t).router, http.MethodGet, "/api/v1/announcements/notice", nil, authHeader(userToken), nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("notice failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var notice struct {
		Visible      bool `json:"visible"`
		Announcement *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"announcement"`
	}
	if err := json.Unmarshal(envelope.Data, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if !notice.Visible || notice.Announcement == nil {
		t.Fatalf("expected default announcement visible, got %s", envelope.Data)
	}
	if notice.Announcement.ID != feed.DefaultAnnouncementID.String() {
		t.Fatalf("expected the fixed default id, got %s", notice.Announcement.ID)
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/announcements/"+notice.Announcement.ID+"/dismiss",
		nil,
		authHeader(userToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("dismiss default failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	// The dismissal sticks across reloads.
	resp = performJSONRequest(t, getEnv(t).router, http.MethodGet, "/api/v1/announcements/notice", nil, authHeader(userToken), nil)
	envelope = decodeEnvelope(t, resp)
	if err := json.Unmarshal(envelope.Data, &notice); err != nil {
		t.Fatalf("decode notice: %v", err)
	}
	if notice.Visible {
		t.Fatal("expected dismissed default hidden")
	}
}
