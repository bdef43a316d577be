package napsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGoogleFetchNoConnectionRowIsUnconfigured(t *testing.T) {
	adapter := &googleAdapter{
		http:    http.DefaultClient,
		store:   &fakeStore{},
		tokens:  fakeTokens{},
		baseURL: "http://unused.invalid",
	}

	result := adapter.FetchNAP(context.Background(), FetchContext{LocationId: 1, OrgId: "org-1", PlatformId: "locations/123"})
	if result.Status != ResultUnconfigured {
		t.Fatalf("status = %q, want %q", result.Status, ResultUnconfigured)
	}
}

func TestGoogleFetchConnectionStoreFailureIsAPIError(t *testing.T) {
	adapter := &googleAdapter{
		http:    http.DefaultClient,
		store:   &fakeStore{connErr: errors.New("db down")},
		tokens:  fakeTokens{},
		baseURL: "http://unused.invalid",
	}

	result := adapter.FetchNAP(context.Background(), FetchContext{LocationId: 1, OrgId: "org-1", PlatformId: "locations/123"})
	if result.Status != ResultAPIError {
		t.Fatalf("status = %q, want %q", result.Status, ResultAPIError)
	}
	if result.Message == "" {
		t.Fatal("api_error result has no message")
	}
}

func TestGoogleFetchUsesStoredTokenAndReadMask(t *testing.T) {
	var gotAuth, gotMask string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMask = r.URL.Query().Get("readMask")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"title":"Joe's Pizza"}`))
	}))
	defer srv.Close()

	adapter := &googleAdapter{
		http:    srv.Client(),
		store:   &fakeStore{conn: activeGoogleConnection()},
		tokens:  fakeTokens{},
		baseURL: srv.URL,
	}

	result := adapter.FetchNAP(context.Background(), FetchContext{LocationId: 1, OrgId: "org-1", PlatformId: "locations/123"})
	if result.Status != ResultOK {
		t.Fatalf("status = %q, want %q", result.Status, ResultOK)
	}
	if gotAuth != "Bearer live-token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotMask != gbpReadMask {
		t.Fatalf("readMask = %q", gotMask)
	}
	if result.Data == nil || result.Data.Name == nil || *result.Data.Name != "Joe's Pizza" {
		t.Fatalf("data = %+v", result.Data)
	}
}
