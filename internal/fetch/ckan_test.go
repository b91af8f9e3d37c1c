package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
		RPS:       1000,
		Burst:     100,
		RetryMax:  3,
		RetryBase: time.Millisecond,
	})
}

func TestListYearResources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/3/action/package_show" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "ultraviolet-radiation-index-melbourne" {
			t.Errorf("unexpected package id %s", got)
		}
		fmt.Fprint(w, `{"success":true,"result":{"resources":[
			{"name":"Melbourne-2021.csv","url":"https://example.org/mel-2021"},
			{"name":"melbourne-2022.CSV","url":"https://example.org/mel-2022"},
			{"name":"Melbourne-2023.csv","url":"https://example.org/mel-2023"},
			{"name":"Melbourne metadata","url":"https://example.org/meta"},
			{"name":"Brisbane-2022.csv","url":"https://example.org/bri-2022"}
		]}}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.ListYearResources(context.Background(), "ultraviolet-radiation-index-melbourne", "Melbourne", []int{2022, 2023})
	if err != nil {
		t.Fatalf("ListYearResources: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 resources, got %d: %+v", len(got), got)
	}
	if got[0].Year != 2022 || got[0].URL != "https://example.org/mel-2022" {
		t.Errorf("unexpected first resource: %+v", got[0])
	}
	if got[1].Year != 2023 || got[1].URL != "https://example.org/mel-2023" {
		t.Errorf("unexpected second resource: %+v", got[1])
	}
}

func TestListYearResourcesNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"result":{"resources":[{"name":"Perth-2019.csv","url":"u"}]}}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	got, err := c.ListYearResources(context.Background(), "ultraviolet-radiation-index-perth", "Perth", []int{2022})
	if err != nil {
		t.Fatalf("ListYearResources: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no resources, got %+v", got)
	}
}

func TestDownloadRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "Date-Time,UV_Index\n01/01/2023 10:00,4.5\n")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	body, err := c.Download(context.Background(), srv.URL+"/Melbourne-2023.csv")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(body) == 0 {
		t.Error("expected non-empty body")
	}
}

func TestDownloadDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "no such resource", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Download(context.Background(), srv.URL+"/missing.csv"); err == nil {
		t.Fatal("expected error for 404")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
}

func TestDownloadGivesUpAfterRetryBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "still broken", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Download(context.Background(), srv.URL+"/x.csv"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}
