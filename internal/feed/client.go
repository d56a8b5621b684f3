// Package feed pulls announcements from the campus CMS feed. The feed is not
// under our control and has shipped its payload in three different shapes
// over time, so normalization happens here, once, at the boundary.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unishare-hub/internal/model"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxFeedBody         = 4 << 20 // 4 MiB
)

// DefaultTitle and DefaultBody make up the static announcement served when
// the feed is unreachable. Fetch failure degrades to this default; it never
// hides the notice entirely.
const (
	DefaultTitle = "Welcome to UniShare"
	DefaultBody  = "Browse listings, share rides and keep up with campus announcements."
)

var ErrEmptyFeed = errors.New("feed returned no announcements")

// DefaultAnnouncementID is the fixed id of the static default. The
// migrations seed an inactive row under it so dismissals of the default have
// a row to reference.
var DefaultAnnouncementID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// entryNamespace derives an announcement row id from a feed id. The same
// upstream entry maps to the same row id on every fetch and sync.
var entryNamespace = uuid.MustParse("4b1c2c9e-58d3-4f6a-9b72-0e3a8c5d1f47")

type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// Entry is one announcement as the feed publishes it. Timestamps are
// RFC3339 strings; Active is a pointer because absence means active.
type Entry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Priority  string `json:"priority"`
	Active    *bool  `json:"active,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func NewClient(url string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		url:        strings.TrimSpace(url),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Fetch retrieves the raw feed and returns every entry normalized into the
// local announcement model, unfiltered.
func (c *Client) Fetch(ctx context.Context) ([]*model.Announcement, error) {
	if c.url == "" {
		return nil, errors.New("feed url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBody))
	if err != nil {
		return nil, err
	}

	entries, err := normalize(raw)
	if err != nil {
		return nil, err
	}

	items := make([]*model.Announcement, 0, len(entries))
	for _, entry := range entries {
		item, convErr := entry.toModel()
		if convErr != nil {
			c.logger.Warn("skip malformed feed entry",
				zap.String("feed_id", entry.ID),
				zap.Error(convErr),
			)
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// Latest returns the single candidate announcement: the most recently
// updated among active, unexpired entries. On any fetch or parse failure it
// returns the static default and a nil error, so callers never end up with
// nothing to show.
func (c *Client) Latest(ctx context.Context) (*model.Announcement, error) {
	items, err := c.Fetch(ctx)
	if err != nil {
		c.logger.Warn("feed fetch failed, serving default announcement", zap.Error(err))
		return DefaultAnnouncement(), nil
	}

	candidate := SelectLatest(items, time.Now().UTC())
	if candidate == nil {
		return nil, ErrEmptyFeed
	}
	return candidate, nil
}

// SelectLatest filters eligible announcements and picks the most recent by
// updated_at, falling back to created_at, falling back to the zero time.
func SelectLatest(items []*model.Announcement, now time.Time) *model.Announcement {
	eligible := make([]*model.Announcement, 0, len(items))
	for _, item := range items {
		if item.Eligible(now) {
			eligible = append(eligible, item)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].RankTime().After(eligible[j].RankTime())
	})
	return eligible[0]
}

func DefaultAnnouncement() *model.Announcement {
	return &model.Announcement{
		ID:       DefaultAnnouncementID,
		Title:    DefaultTitle,
		Body:     DefaultBody,
		Priority: model.AnnouncementPriorityNormal,
		Active:   true,
		Source:   model.AnnouncementSourceFeed,
	}
}

// normalize accepts the three payload shapes the feed has used:
// {"announcements": [...]}, {"data": [...]} and a bare array.
func normalize(raw []byte) ([]Entry, error) {
	var wrapped struct {
		Announcements []Entry `json:"announcements"`
		Data          []Entry `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped.Announcements != nil {
			return wrapped.Announcements, nil
		}
		if wrapped.Data != nil {
			return wrapped.Data, nil
		}
	}

	var bare []Entry
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	return nil, errors.New("unrecognized feed payload shape")
}

func (e Entry) toModel() (*model.Announcement, error) {
	if strings.TrimSpace(e.ID) == "" {
		return nil, errors.New("entry has no id")
	}
	if strings.TrimSpace(e.Title) == "" {
		return nil, errors.New("entry has no title")
	}

	feedID := strings.TrimSpace(e.ID)

	item := &model.Announcement{
		ID:       uuid.NewSHA1(entryNamespace, []byte(feedID)),
		Title:    strings.TrimSpace(e.Title),
		Body:     strings.TrimSpace(e.Body),
		Priority: parsePriority(e.Priority),
		// Absence of the flag means active.
		Active: e.Active == nil || *e.Active,
		Source: model.AnnouncementSourceFeed,
		FeedID: &feedID,
	}

	if ts, ok := parseFeedTime(e.ExpiresAt); ok {
		item.ExpiresAt = &ts
	}
	if ts, ok := parseFeedTime(e.CreatedAt); ok {
		item.CreatedAt = ts
	}
	if ts, ok := parseFeedTime(e.UpdatedAt); ok {
		item.UpdatedAt = ts
	}

	return item, nil
}

func parsePriority(raw string) model.AnnouncementPriority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return model.AnnouncementPriorityLow
	case "high":
		return model.AnnouncementPriorityHigh
	default:
		return model.AnnouncementPriorityNormal
	}
}

func parseFeedTime(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
