package survivio

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(handler http.Handler) (Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, nil), srv
}

func TestServerStatusUp(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	status := client.ServerStatus()
	if status[ComponentFrontend] != StatusUp {
		t.Errorf("frontend = %v, want up", status[ComponentFrontend])
	}
	if status[ComponentAPI] != StatusUp {
		t.Errorf("api = %v, want up", status[ComponentAPI])
	}
}

func TestServerStatusPlannedDown(t *testing.T) {
	requests := 0
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	status := client.ServerStatus()
	if status[ComponentFrontend] != StatusPlannedDown {
		t.Errorf("frontend = %v, want planned down", status[ComponentFrontend])
	}
	if _, ok := status[ComponentAPI]; ok {
		t.Errorf("api status reported on a planned-down cycle: %v", status)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (no api probe after 503)", requests)
	}
}

func TestServerStatusBadGatewayStillProbesAPI(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == ROUTE_GAMES_MODES {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	status := client.ServerStatus()
	if status[ComponentFrontend] != StatusUnplannedDown {
		t.Errorf("frontend = %v, want unplanned down", status[ComponentFrontend])
	}
	if status[ComponentAPI] != StatusUp {
		t.Errorf("api = %v, want up", status[ComponentAPI])
	}
}

func TestServerStatusConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(srv.URL, nil)
	srv.Close() // nothing is listening anymore

	status := client.ServerStatus()
	if status[ComponentFrontend] != StatusUnplannedDown {
		t.Errorf("frontend = %v, want unplanned down", status[ComponentFrontend])
	}
	if _, ok := status[ComponentAPI]; ok {
		t.Errorf("api status reported on an unreachable cycle: %v", status)
	}
}

func TestMarketItems(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != ROUTE_MARKET {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if cookie, err := r.Cookie("app-sid"); err != nil || cookie.Value != "old-sid" {
			t.Errorf("missing app-sid cookie on request")
		}
		http.SetCookie(w, &http.Cookie{Name: "app-sid", Value: "new-sid"})
		w.Write([]byte(`{"success":true,"items":[{"item":"katana","type":"melee","price":50,"rarity":5,"makr":"x","kills":1,"levels":2,"wins":3}]}`))
	}))
	defer srv.Close()

	items, rotated, err := client.MarketItems("5", "melee", "user-1", "old-sid")
	if err != nil {
		t.Fatalf("market: %v", err)
	}
	if len(items) != 1 || items[0].Item != "katana" || items[0].Rarity != 5 {
		t.Errorf("unexpected items: %+v", items)
	}
	if rotated != "new-sid" {
		t.Errorf("rotated cookie = %q, want %q", rotated, "new-sid")
	}
}

func TestMarketItemsReportedFailure(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	if _, _, err := client.MarketItems("all", "all", "user-1", "sid"); err == nil {
		t.Error("expected an error for a success=false reply")
	}
}

func TestPlayerStats(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"username":"slug","banned":false,"games":10,"kills":20,"wins":3,"kpg":"2.0","modes":[{"games":5,"kills":10,"wins":1,"kpg":"2.0","winPct":20,"avgDamage":150.5,"avgTimeAlive":120,"mostDamage":500,"mostKills":8}]}`))
	}))
	defer srv.Close()

	stats, found, err := client.PlayerStats("slug")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !found {
		t.Fatal("player not found")
	}
	if stats.Username != "slug" || stats.Games != 10 || len(stats.Modes) != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestPlayerStatsUnknownPlayer(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	_, found, err := client.PlayerStats("nobody")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if found {
		t.Error("expected found=false for a null body")
	}
}
