// Package forms submits feedback to the hosted form service. The service
// accepts urlencoded POSTs keyed by opaque per-form field ids and never
// returns a readable acknowledgment, so delivery is optimistic: a completed
// POST counts as success regardless of what came back.
package forms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultSubmitTimeout = 10 * time.Second

// FieldMap carries the form service's opaque field ids. The ids are assigned
// by the service per form and must be preserved byte-for-byte or the
// submission lands in the wrong columns.
type FieldMap struct {
	Name     string
	Email    string
	Category string
	Subject  string
	Message  string
	Rating   string
}

// DefaultFieldMap matches the production UniShare feedback form.
var DefaultFieldMap = FieldMap{
	Name:     "entry.2005620554",
	Email:    "entry.1045781291",
	Category: "entry.1065046570",
	Subject:  "entry.839337160",
	Message:  "entry.1166974658",
	Rating:   "entry.1087749312",
}

type Client struct {
	endpoint   string
	fields     FieldMap
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(endpoint string, fields FieldMap, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultSubmitTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		fields:     fields,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Values maps the semantic submission fields onto the form's opaque ids.
// A nil rating omits the rating field entirely.
func (c *Client) Values(name, email, category, subject, message string, rating *int) url.Values {
	values := url.Values{}
	values.Set(c.fields.Name, name)
	values.Set(c.fields.Email, email)
	values.Set(c.fields.Category, category)
	values.Set(c.fields.Subject, subject)
	values.Set(c.fields.Message, message)
	if rating != nil {
		values.Set(c.fields.Rating, strconv.Itoa(*rating))
	}
	return values
}

// Submit POSTs the values to the form endpoint. Only transport failures are
// reported; response status and body are discarded because the service's
// answers are not trustable acknowledgments.
func (c *Client) Submit(ctx context.Context, values url.Values) error {
	if c == nil {
		return errors.New("forms client is nil")
	}
	if c.endpoint == "" {
		return errors.New("form endpoint is not configured")
	}

	endpointURL, err := url.Parse(c.endpoint)
	if err != nil {
		return err
	}
	if !strings.EqualFold(endpointURL.Scheme, "https") {
		return errors.New("form endpoint must use https")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL.String(), strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// #nosec G107 -- endpoint scheme is validated above.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Drain so the connection can be reused; the body says nothing useful.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	c.logger.Debug("form submission posted",
		zap.String("endpoint", endpointURL.Host),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
