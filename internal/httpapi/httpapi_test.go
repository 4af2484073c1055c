package httpapi

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthReportsOK(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() == "" {
		t.Error("expected a JSON body")
	}
}

func TestPricingReportsFlatRate(t *testing.T) {
	h := &Handler{}
	req := httptest.NewRequest(http.MethodGet, "/pricing", nil)
	rec := httptest.NewRecorder()

	h.Pricing(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCorsMiddlewareShortCircuitsOptions(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	mw := corsMiddleware(inner)

	req := httptest.NewRequest(http.MethodOptions, "/anything", nil)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if called {
		t.Error("expected OPTIONS request to short-circuit before reaching the inner handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header to be set")
	}
}

func TestCorsMiddlewarePassesThroughOtherMethods(t *testing.T) {
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	mw := corsMiddleware(inner)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)

	if !called {
		t.Error("expected GET request to reach the inner handler")
	}
}

func TestDecodeBase64RoundTrips(t *testing.T) {
	want := []byte("hello receipt")
	encoded := base64.StdEncoding.EncodeToString(want)

	got, err := decodeBase64(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDecodeDataURLPNGStripsPrefix(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47}
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)

	got, err := decodeDataURLPNG(dataURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("expected %v, got %v", payload, got)
	}
}

func TestDecodeDataURLPNGRejectsShortInput(t *testing.T) {
	if _, err := decodeDataURLPNG("data:image/png;base64,"); err == nil {
		t.Error("expected an error for input with no payload after the prefix")
	}
}

func TestJsStringEscapesQuotes(t *testing.T) {
	got := jsString(`line"1`)
	if got != `"line\"1"` {
		t.Errorf("expected escaped quotes, got %s", got)
	}
}
