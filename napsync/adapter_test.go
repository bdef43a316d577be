package napsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/locallens/presence_backend/models"
)

func TestFetchClassifiesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"BUSINESS_NOT_FOUND"}}`))
	}))
	defer srv.Close()

	adapter := &yelpAdapter{http: srv.Client(), apiKey: "key", baseURL: srv.URL}
	result := adapter.FetchNAP(context.Background(), FetchContext{LocationId: 1, OrgId: "org-1", PlatformId: "gone-business"})

	if result.Status != ResultNotFound {
		t.Fatalf("status = %q, want %q", result.Status, ResultNotFound)
	}
	if result.Data != nil {
		t.Fatalf("not_found carried data: %+v", result.Data)
	}
	if result.HTTPStatus != nil {
		t.Fatalf("not_found carried http status %d", *result.HTTPStatus)
	}
}

func TestFetchClassifiesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"temporarily unavailable"}`))
	}))
	defer srv.Close()

	adapter := &yelpAdapter{http: srv.Client(), apiKey: "key", baseURL: srv.URL}
	result := adapter.FetchNAP(context.Background(), FetchContext{LocationId: 1, OrgId: "org-1", PlatformId: "biz-1"})

	if result.Status != ResultAPIError {
		t.Fatalf("status = %q, want %q", result.Status, ResultAPIError)
	}
	if result.HTTPStatus == nil || *result.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("http status = %v, want 500", result.HTTPStatus)
	}
	if result.Message == "" {
		t.Fatal("api_error result has no message")
	}
}

func TestClassifyFetchErrorTransportFailure(t *testing.T) {
	result := classifyFetchError(models.PlatformYelp, errors.New("dial tcp: connection refused"))

	if result.Status != ResultAPIError {
		t.Fatalf("status = %q, want %q", result.Status, ResultAPIError)
	}
	if result.HTTPStatus != nil {
		t.Fatalf("transport failure carried http status %d", *result.HTTPStatus)
	}
}
