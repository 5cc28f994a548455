package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/voiceast/voiceast/device"
	"github.com/voiceast/voiceast/executor"
	"github.com/voiceast/voiceast/store"
)

func testAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	dev := device.NewController(nil, nil, t.TempDir(), false)
	exec := executor.New(dev, nil, nil, time.Second)
	api := NewRESTHandler(NewHub(), exec, store.NewHistory(rdb))

	r := chi.NewRouter()
	r.Route("/api", api.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	srv := testAPI(t)

	var body map[string]interface{}
	if code := getJSON(t, srv.URL+"/api/health", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestExecuteEndpoint(t *testing.T) {
	srv := testAPI(t)

	resp, err := http.Post(srv.URL+"/api/execute", "application/json",
		strings.NewReader(`{"text": "what time is it"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Intent  string `json:"intent"`
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Intent != "get_time" || !body.Success {
		t.Fatalf("unexpected response: %+v", body)
	}

	// the executed command lands in history
	var hist struct {
		Count int `json:"count"`
	}
	if code := getJSON(t, srv.URL+"/api/history", &hist); code != http.StatusOK {
		t.Fatalf("history status = %d", code)
	}
	if hist.Count != 1 {
		t.Errorf("history count = %d, want 1", hist.Count)
	}
}

func TestExecuteRejectsEmptyBody(t *testing.T) {
	srv := testAPI(t)

	resp, err := http.Post(srv.URL+"/api/execute", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHistoryLimitValidation(t *testing.T) {
	srv := testAPI(t)

	if code := getJSON(t, srv.URL+"/api/history?limit=abc", nil); code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if code := getJSON(t, srv.URL+"/api/history?limit=-1", nil); code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
}

func TestStatisticsAndClear(t *testing.T) {
	srv := testAPI(t)

	for _, text := range []string{"what time is it", "open camera"} {
		resp, err := http.Post(srv.URL+"/api/execute", "application/json",
			strings.NewReader(`{"text": "`+text+`"}`))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
	}

	var stats struct {
		TotalCommands int64 `json:"total_commands"`
	}
	if code := getJSON(t, srv.URL+"/api/statistics", &stats); code != http.StatusOK {
		t.Fatalf("statistics status = %d", code)
	}
	if stats.TotalCommands != 2 {
		t.Errorf("total = %d, want 2", stats.TotalCommands)
	}

	resp, err := http.Post(srv.URL+"/api/history/clear", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d", resp.StatusCode)
	}

	var hist struct {
		Count int `json:"count"`
	}
	getJSON(t, srv.URL+"/api/history", &hist)
	if hist.Count != 0 {
		t.Errorf("history count after clear = %d", hist.Count)
	}
}
