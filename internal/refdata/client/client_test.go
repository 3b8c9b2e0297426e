package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"travel_portal_backend/platform/logger"
)

func TestAddonsDecodesCatalog(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/addons" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("policyType")
		_, _ = w.Write([]byte(`[{"id":12,"name":"Winter sports","price":12.5,"alterationId":7},{"id":"13","name":"Gadgets"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", logger.Discard())
	addons, err := c.Addons(context.Background(), "Silver Annual Multi-Trip")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "Silver Annual Multi-Trip" {
		t.Fatalf("unexpected policyType query %q", gotQuery)
	}
	if len(addons) != 2 {
		t.Fatalf("expected 2 add-ons, got %d", len(addons))
	}
	if addons[0].ID != "12" || addons[0].AlterationID != "7" || addons[0].PriceCents != 1250 || addons[0].Currency != "EUR" {
		t.Fatalf("unexpected first add-on: %+v", addons[0])
	}
	if addons[1].AlterationID != "13" {
		t.Fatalf("expected alteration id to default to id, got %q", addons[1].AlterationID)
	}
}

func TestGetJSONHandlesStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/destination-categories/mars/countries":
			http.NotFound(w, r)
		case "/countries":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`[{"id":1,"name":"Europe"}]`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, logger.Discard())

	countries, err := c.CountriesForCategory(context.Background(), "mars")
	if err != nil || len(countries) != 0 {
		t.Fatalf("expected empty result for 404, got %v, %v", countries, err)
	}
	if _, err := c.Countries(context.Background()); err == nil {
		t.Fatal("expected error for 500")
	}
	cats, err := c.DestinationCategories(context.Background())
	if err != nil || len(cats) != 1 || cats[0].ID != "1" {
		t.Fatalf("unexpected categories %v, %v", cats, err)
	}
}
