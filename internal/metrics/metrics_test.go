package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"":                 "/",
		"/":                "/",
		"/v1/users/me":     "/v1/users/me",
		"/v1/users/42":     "/v1/users/:param",
		"/v1/users/42?x=1": "/v1/users/:param",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizePath(in), in)
	}
	require.Equal(t, "/v1/users/:param", NormalizePath("/v1/users/6f1c0f9e-8a71-4c53-9d2b-1f0a7a9b0c11"))
}

func TestRegisterAndInstrument(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := Register(reg, nil)
	require.NoError(t, err)
	_, err = Register(reg, nil)
	require.NoError(t, err, "registering twice is tolerated")

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/v1/things/:param", "418"))
	srv := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	srv.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/things/123", nil))
	require.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/v1/things/:param", "418")))

	AuthzDecisions.WithLabelValues(Decision(true)).Inc()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "trustcore_authz_decisions_total"))
}
