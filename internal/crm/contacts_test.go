package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string, opts func(*Options)) *Client {
	t.Helper()
	options := Options{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		APIVersion: "2021-07-28",
		LocationID: "loc_1",
		Timeout:    2 * time.Second,
		PageLimit:  2,
		MaxPages:   10,
	}
	if opts != nil {
		opts(&options)
	}
	return NewClient(options, nil)
}

func TestListAllContactsPartialFailure(t *testing.T) {
	// 5 contacts at 2 per page means 3 pages; page 2 always fails.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer header")
		}
		if r.Header.Get("Version") == "" {
			t.Errorf("missing version header")
		}

		page := r.URL.Query().Get("page")
		if page == "2" {
			http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
			return
		}

		contacts := map[string][]map[string]interface{}{
			"1": {{"id": "c1"}, {"id": "c2"}},
			"3": {{"id": "c5"}},
		}
		resp := map[string]interface{}{
			"contacts": contacts[page],
			"meta":     map[string]int{"total": 5},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	listing, err := client.ListAllContacts(context.Background())
	if err != nil {
		t.Fatalf("ListAllContacts error: %v", err)
	}
	if !listing.Partial {
		t.Fatalf("expected partial listing")
	}
	if len(listing.Contacts) != 3 {
		t.Fatalf("expected 3 contacts from surviving pages, got %d", len(listing.Contacts))
	}
	if listing.Contacts[0].ID != "c1" || listing.Contacts[2].ID != "c5" {
		t.Fatalf("unexpected page ordering: %+v", listing.Contacts)
	}
}

func TestListAllContactsFirstPageFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.ListAllContacts(context.Background())
	if !errors.Is(err, ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
}

func TestListAllContactsPageCap(t *testing.T) {
	var mu sync.Mutex
	maxPage := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 0
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		mu.Lock()
		if page > maxPage {
			maxPage = page
		}
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contacts": []map[string]string{{"id": fmt.Sprintf("p%d", page)}},
			"meta":     map[string]int{"total": 1000},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, func(o *Options) { o.MaxPages = 3 })
	listing, err := client.ListAllContacts(context.Background())
	if err != nil {
		t.Fatalf("ListAllContacts error: %v", err)
	}
	if maxPage > 3 {
		t.Fatalf("page cap not honored, fetched page %d", maxPage)
	}
	if len(listing.Contacts) != 3 {
		t.Fatalf("expected 3 capped pages of 1, got %d", len(listing.Contacts))
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuth},
		{http.StatusForbidden, ErrAuth},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadGateway, ErrRemote},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tc.status)
		}))
		client := newTestClient(t, srv.URL, nil)
		_, err := client.GetContact(context.Background(), "c1")
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestCreateContactValidatesBeforeRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.CreateContact(context.Background(), ContactUpsert{Email: "x@example.com"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing name, got %v", err)
	}
	_, err = client.CreateContact(context.Background(), ContactUpsert{FirstName: "Ada"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing email, got %v", err)
	}
	if called {
		t.Fatalf("no request should be issued for invalid input")
	}
}

func TestUpdateContactForbiddenQuirk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	// Default: 403 is a permission error.
	strict := newTestClient(t, srv.URL, nil)
	if _, err := strict.UpdateContact(context.Background(), "c1", ContactUpsert{Tags: []string{"a"}}); !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth without quirk forgiveness, got %v", err)
	}

	// Opt-in: 403 on a write is treated as applied.
	forgiving := newTestClient(t, srv.URL, func(o *Options) { o.ForgiveWriteForbidden = true })
	contact, err := forgiving.UpdateContact(context.Background(), "c1", ContactUpsert{Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("expected forgiven write, got %v", err)
	}
	if contact.ID != "c1" || len(contact.Tags) != 1 {
		t.Fatalf("forgiven write should echo the requested state, got %+v", contact)
	}
}

func TestGetContactUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"contact": map[string]interface{}{
				"id":    "c9",
				"email": "c9@example.com",
				"tags":  []string{"warm"},
			},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	contact, err := client.GetContact(context.Background(), "c9")
	if err != nil {
		t.Fatalf("GetContact error: %v", err)
	}
	if contact.ID != "c9" || contact.Email != "c9@example.com" {
		t.Fatalf("unexpected contact: %+v", contact)
	}
}
