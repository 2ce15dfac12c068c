package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/npardo/go-relay/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	s := &RelayApp{
		log:        testutil.TestLogger(t),
		signingKey: []byte("test-secret"),
	}

	var called bool
	handler := s.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	tcases := []struct {
		name       string
		authHeader string
		body       string
		expectCode int
		expectNext bool
	}{
		{
			name:       "valid credential",
			authHeader: "Bearer " + signedToken(t, "test-secret"),
			expectCode: http.StatusOK,
			expectNext: true,
		},
		{
			name:       "missing header",
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "invalid credential",
			authHeader: "Bearer " + signedToken(t, "wrong-secret"),
			expectCode: http.StatusUnauthorized,
		},
		{
			name:       "invalid credential regardless of body",
			authHeader: "Bearer garbage",
			body:       `{"sender_id":9,"receiver_id":42,"message":"hi"}`,
			expectCode: http.StatusUnauthorized,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodPost, "/socket-message", strings.NewReader(tc.body))
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}

			rr := httptest.NewRecorder()
			handler(rr, req)

			assert.Equal(t, tc.expectCode, rr.Code, "expected status code to match")
			assert.Equal(t, tc.expectNext, called, "expected next handler invocation to match")

			if tc.expectCode == http.StatusUnauthorized {
				var resp TriggerResponse
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected a JSON error body")
				assert.Equal(t, "error", resp.Status, "expected error status")
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	s := &RelayApp{log: testutil.TestLogger(t)}

	handler := s.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected panic to become a 500")

	var resp TriggerResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp), "expected a JSON error body")
	assert.Equal(t, "error", resp.Status, "expected error status")
}
