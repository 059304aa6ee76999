package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harshpatel5940/stripevigil/internal/config"
	"github.com/harshpatel5940/stripevigil/internal/webhook"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestServer() *Server {
	cfg := &config.Config{
		Port:          "0",
		WebhookSecret: "whsec_test",
		MaxBodyBytes:  config.DefaultMaxBodyBytes,
	}
	return New(cfg, nil, nil, zerolog.Nop())
}

func TestHealth_WithoutDatabase(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"disabled"}`, rec.Body.String())
}

func TestWebhookRoute(t *testing.T) {
	s := newTestServer()
	payload := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`

	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(payload))
	req.Header.Set("stripe-signature", webhook.BuildSignatureHeader([]byte("whsec_test"), "1700000000", []byte(payload)))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(payload))
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPINotMountedWithoutDatabase(t *testing.T) {
	s := newTestServer()

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
