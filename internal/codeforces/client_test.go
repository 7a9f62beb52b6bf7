package codeforces

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const problemsetBody = `{
  "status": "OK",
  "result": {
    "problems": [
      {"contestId": 1352, "index": "C", "name": "K-th Not Divisible by n", "rating": 1200, "tags": ["binary search", "math"]},
      {"contestId": 4, "index": "A", "name": "Watermelon", "rating": 800, "tags": ["brute force", "math"]},
      {"contestId": 2050, "index": "G", "name": "Fresh Unrated", "tags": []},
      {"contestId": 100001, "index": "A", "name": "Gym Problem", "rating": 1500, "tags": []}
    ],
    "problemStatistics": [
      {"contestId": 1352, "index": "C", "solvedCount": 55000},
      {"contestId": 4, "index": "A", "solvedCount": 400000}
    ]
  }
}`

// newTestClient returns a client against srv that never sleeps and records
// requested waits.
func newTestClient(srv *httptest.Server, waits *[]time.Duration) *Client {
	c := NewClient(WithBaseURL(srv.URL), WithMinInterval(0))
	c.sleep = func(_ context.Context, d time.Duration) error {
		if waits != nil {
			*waits = append(*waits, d)
		}
		return nil
	}
	return c
}

func TestFetchProblems(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(problemsetBody))
	}))
	defer srv.Close()

	problems, stats, err := newTestClient(srv, nil).FetchProblems(context.Background())
	if err != nil {
		t.Fatalf("FetchProblems failed: %v", err)
	}

	if gotPath != "/problemset.problems" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUA == "" {
		t.Error("User-Agent not set")
	}
	if len(problems) != 2 {
		t.Fatalf("kept %d problems, want 2", len(problems))
	}
	if problems[0].Key() != "1352/C" || problems[0].SolvedCount != 55000 {
		t.Errorf("first problem = %+v", problems[0])
	}
	if problems[1].Rating != 800 || len(problems[1].Tags) != 2 {
		t.Errorf("second problem = %+v", problems[1])
	}

	want := FetchStats{Total: 4, Kept: 2, MinRating: 800, MaxRating: 1200}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestCall_StatusNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"FAILED","comment":"handle: User not found"}`))
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv, nil).FetchProblems(context.Background())
	if !errors.Is(err, ErrAPI) {
		t.Fatalf("error = %v, want ErrAPI", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Comment != "handle: User not found" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestCall_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(problemsetBody))
	}))
	defer srv.Close()

	var waits []time.Duration
	problems, _, err := newTestClient(srv, &waits).FetchProblems(context.Background())
	if err != nil {
		t.Fatalf("FetchProblems failed: %v", err)
	}
	if len(problems) != 2 {
		t.Errorf("got %d problems", len(problems))
	}
	want := []time.Duration{4 * time.Second, 8 * time.Second}
	if len(waits) != 2 || waits[0] != want[0] || waits[1] != want[1] {
		t.Errorf("waits = %v, want %v", waits, want)
	}
}

func TestCall_GivesUp(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, check: IsRateLimited},
		{name: "server error", status: http.StatusBadGateway, check: func(err error) bool { return errors.Is(err, ErrNetwork) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, _, err := newTestClient(srv, nil).FetchProblems(context.Background())
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if calls.Load() != MaxAttempts {
				t.Errorf("calls = %d, want %d", calls.Load(), MaxAttempts)
			}
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	if !IsRateLimited(&APIError{StatusCode: http.StatusTooManyRequests}) {
		t.Error("429 APIError not detected")
	}
	if IsRateLimited(&APIError{StatusCode: http.StatusBadRequest}) {
		t.Error("400 APIError misdetected")
	}
	if IsRateLimited(errors.New("other")) {
		t.Error("plain error misdetected")
	}
}
