//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"unishare-hub/internal/model"
	"unishare-hub/internal/service"
)

func TestListingLifecycle(t *testing.T) {
	sellerID, sellerToken := createRegularUser(t)

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPost,
		"/api/v1/listings/",
		map[string]interface{}{
			"title":       "Calculus textbook",
			"description": "Third edition, light notes in margins.",
			"category":    "books",
			"price_cents": 1500,
		},
		authHeader(sellerToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("create listing failed, status=%d body=%s", resp.Code, resp.Body.String())
	}

	envelope := decodeEnvelope(t, resp)
	var created model.Listing
	if err := json.Unmarshal(envelope.Data, &created); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if created.SellerID != sellerID {
		t.Fatalf("expected seller_id %s, got %s", sellerID, created.SellerID)
	}
	if created.Status != model.ListingStatusActive {
		t.Fatalf("expected active listing, got %s", created.Status)
	}

	// Listings are public.
	resp = performJSONRequest(t, getEnv(t).router, http.MethodGet, "/api/v1/listings/"+created.ID.String(), nil, nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("public get failed, status=%d", resp.Code)
	}

	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodPatch,
		"/api/v1/listings/"+created.ID.String()+"/status",
		map[string]interface{}{"status": "sold"},
		authHeader(sellerToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("set status failed, status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestListing_OnlySellerOrAdminMutates(t *testing.T) {
	sellerID, _ := createRegularUser(t)
	_, strangerToken := createRegularUser(t)

	listing, err := getEnv(t).listingSvc.Create(context.Background(), sellerID.String(), service.CreateListingRequest{
		Title:      "Desk lamp",
		Category:   "furniture",
		PriceCents: 800,
	})
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}

	resp := performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodDelete,
		"/api/v1/listings/"+listing.ID.String(),
		nil,
		authHeader(strangerToken),
		nil,
	)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for stranger delete, got %d body=%s", resp.Code, resp.Body.String())
	}

	adminToken := loginAs(t, getEnv(t).adminUsername, adminPassword)
	resp = performJSONRequest(
		t,
		getEnv(t).router,
		http.MethodDelete,
		"/api/v1/listings/"+listing.ID.String(),
		nil,
		authHeader(adminToken),
		nil,
	)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin delete failed, status=%d body=%s", resp.Code, resp.Body.String())
	}
}

func TestListing_SearchFilters(t *testing.T) {
	sellerID, _ := createRegularUser(t)

	if _, err := getEnv(t).listingSvc.Create(context.Background(), sellerID.String(), service.CreateListingRequest{
		Title:      "Mountain bike frame",
		Category:   "sports",
		PriceCents: 9000,
	}); err != nil {
		t.Fatalf("create listing failed: %v", err)
	}

	items, total, err := getEnv(t).listingSvc.List(context.Background(), service.ListListingsQuery{
		Category: "sports",
		Keyword:  "bike",
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("list listings failed: %v", err)
	}
	if total < 1 || len(items) < 1 {
		t.Fatalf("expected at least one match, total=%d len=%d", total, len(items))
	}
	for _, item := range items {
		if item.Category != "sports" {
			t.Fatalf("filter leaked category %s", item.Category)
		}
	}
}
