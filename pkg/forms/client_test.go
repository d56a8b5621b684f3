package forms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func intPtr(v int) *int {
	return &v
}

func TestValues_MapsSemanticFieldsToFormIDs(t *testing.T) {
	t.Parallel()

	client := NewClient("https://forms.example.com/submit", DefaultFieldMap, nil, nil)

	values := client.Values("Ada", "ada@campus.edu", "general", "UX", "Great app", intPtr(4))

	want := map[string]string{
		DefaultFieldMap.Name:     "Ada",
		DefaultFieldMap.Email:    "ada@campus.edu",
		DefaultFieldMap.Category: "general",
		DefaultFieldMap.Subject:  "UX",
		DefaultFieldMap.Message:  "Great app",
		DefaultFieldMap.Rating:   "4",
	}
	for key, expected := range want {
		if got := values.Get(key); got != expected {
			t.Fatalf("field %s: got %q, want %q", key, got, expected)
		}
	}
}

func TestValues_NilRatingOmitsField(t *testing.T) {
	t.Parallel()

	client := NewClient("https://forms.example.com/submit", DefaultFieldMap, nil, nil)

	values := client.Values("Ada", "ada@campus.edu", "feature", "Dark mode", "Please", nil)
	if values.Has(DefaultFieldMap.Rating) {
		t.Fatal("expected nil rating to omit the rating field")
	}
}

func TestSubmit_RejectsNonHTTPSEndpoint(t *testing.T) {
	t.Parallel()

	client := NewClient("http://forms.example.com/submit", DefaultFieldMap, nil, nil)

	if err := client.Submit(context.Background(), url.Values{}); err == nil {
		t.Fatal("expected http endpoint to be rejected")
	}
}

func TestSubmit_RejectsEmptyEndpoint(t *testing.T) {
	t.Parallel()

	client := NewClient("   ", DefaultFieldMap, nil, nil)

	if err := client.Submit(context.Background(), url.Values{}); err == nil {
		t.Fatal("expected unconfigured endpoint to be rejected")
	}
}

func TestSubmit_PostsURLEncodedBody(t *testing.T) {
	t.Parallel()

	var (
		gotMethod      string
		gotContentType string
		gotForm        url.Values
	)
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, DefaultFieldMap, server.Client(), nil)
	values := client.Values("Ada", "ada@campus.edu", "ui", "", "Button overlaps", intPtr(2))

	if err := client.Submit(context.Background(), values); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
	if gotForm.Get(DefaultFieldMap.Message) != "Button overlaps" {
		t.Fatalf("message field not delivered: %v", gotForm)
	}
}

func TestSubmit_TreatsNon200AsDelivered(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, DefaultFieldMap, server.Client(), nil)
	if err := client.Submit(context.Background(), url.Values{}); err != nil {
		t.Fatalf("expected optimistic success on non-200, got %v", err)
	}
}

func TestSubmit_ReportsTransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	httpClient := server.Client()
	server.Close()

	client := NewClient(endpoint, DefaultFieldMap, httpClient, nil)
	if err := client.Submit(context.Background(), url.Values{}); err == nil {
		t.Fatal("expected transport failure against a closed server")
	}
}
