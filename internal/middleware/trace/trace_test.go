package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareInjectsRequestID(t *testing.T) {
	var seen string
	handler := Middleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	if seen == "" {
		t.Fatal("GetRequestID returned empty inside a traced request")
	}
	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seen)
	}
}

func TestGetRequestIDOutsideMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	if id := GetRequestID(r.Context()); id != "" {
		t.Errorf("GetRequestID on untraced context = %q, want empty", id)
	}
}
