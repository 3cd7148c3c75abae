package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"redforge/config"
	"redforge/middleware"
	"redforge/models"
	"redforge/services"
	"redforge/store"
)

const (
	testSecret  = "whsec_test"
	testPayload = `{"type":"checkout.session.completed","data":{"object":{"customer_email":"a@b.com","metadata":{"tier":"pro"}}}}`
)

var testTimestamp = time.Unix(1700000000, 0)

type recordingNotifier struct {
	mu      sync.Mutex
	records []models.CustomerRecord
}

func (n *recordingNotifier) CustomerCreated(record models.CustomerRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, record)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.records)
}

// failingStore reads as empty and refuses every write.
type failingStore struct{}

func (failingStore) Append(context.Context, models.CustomerRecord) error {
	return store.Error.Wrap(errors.New("disk full"))
}

func (failingStore) List(context.Context) store.ReadResult {
	return store.ReadResult{Records: []models.CustomerRecord{}, Status: store.ReadFailed, Err: errors.New("disk gone")}
}

func (failingStore) Close() error { return nil }

type fixture struct {
	handler  *Handler
	router   *gin.Engine
	store    *store.FileStore
	verifier *services.Verifier
	notifier *recordingNotifier
}

func newFixture(t *testing.T, secret string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	s := store.NewFileStore(log, filepath.Join(t.TempDir(), "customers.json"))
	verifier := services.NewVerifier(secret, 0)
	notifier := &recordingNotifier{}

	h := New(log, verifier, s, notifier, Options{Version: "test", StripeConfigured: true})
	return &fixture{
		handler:  h,
		router:   NewRouter(log, h, config.Features{}, ""),
		store:    s,
		verifier: verifier,
		notifier: notifier,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) postSigned(t *testing.T, payload string) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodPost, "/webhook", payload, map[string]string{
		services.SignatureHeader: f.verifier.Sign([]byte(payload), testTimestamp),
	})
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestWebhookCheckoutCompleted(t *testing.T) {
	f := newFixture(t, testSecret)

	w := f.postSigned(t, testPayload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.WebhookResponse](t, w)
	assert.Equal(t, models.WebhookStatusSuccess, resp.Status)
	assert.Equal(t, "a@b.com", resp.Email)
	assert.Equal(t, "pro", resp.Tier)

	res := f.store.List(context.Background())
	require.Len(t, res.Records, 1)
	assert.Equal(t, "a@b.com", res.Records[0].Email)
	assert.Equal(t, "pro", res.Records[0].Tier)
	assert.Equal(t, models.StatusActive, res.Records[0].Status)
	assert.Equal(t, models.SourceWebhook, res.Records[0].Source)
	assert.False(t, res.Records[0].CreatedAt.IsZero())

	assert.Equal(t, 1, f.notifier.count())
}

func TestWebhookMissingSignature(t *testing.T) {
	f := newFixture(t, testSecret)

	w := f.do(t, http.MethodPost, "/webhook", testPayload, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid signature", decode[models.ErrorResponse](t, w).Error)

	assert.Equal(t, store.ReadMissing, f.store.List(context.Background()).Status)
	assert.Zero(t, f.notifier.count())
}

func TestWebhookInvalidSignature(t *testing.T) {
	f := newFixture(t, testSecret)

	headers := []string{
		"t=1700000000,v1=" + strings.Repeat("0", 64),
		"garbage",
		services.NewVerifier("whsec_other", 0).Sign([]byte(testPayload), testTimestamp),
	}
	for _, header := range headers {
		w := f.do(t, http.MethodPost, "/webhook", testPayload, map[string]string{services.SignatureHeader: header})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		// The response never says why verification failed.
		assert.Equal(t, "Invalid signature", decode[models.ErrorResponse](t, w).Error)
	}

	assert.Empty(t, f.store.List(context.Background()).Records)
}

func TestWebhookWithoutSecretFailsClosed(t *testing.T) {
	f := newFixture(t, "")
	signed := services.NewVerifier(testSecret, 0).Sign([]byte(testPayload), testTimestamp)

	w := f.do(t, http.MethodPost, "/webhook", testPayload, map[string]string{services.SignatureHeader: signed})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.store.List(context.Background()).Records)
}

func TestWebhookUnhandledEventType(t *testing.T) {
	f := newFixture(t, testSecret)

	payload := `{"id":"evt_1","type":"invoice.paid","data":{"object":{"customer_email":"a@b.com"}}}`
	w := f.postSigned(t, payload)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.WebhookResponse](t, w)
	assert.Equal(t, models.WebhookStatusHandled, resp.Status)
	assert.Equal(t, "invoice.paid", resp.EventType)
	assert.Empty(t, resp.Email)

	assert.Equal(t, store.ReadMissing, f.store.List(context.Background()).Status)
	assert.Zero(t, f.notifier.count())
}

func TestWebhookMalformedPayload(t *testing.T) {
	f := newFixture(t, testSecret)

	payloads := []string{
		"not json",
		`{"data":{}}`,
		`{"type":"checkout.session.completed","data":{"object":{"metadata":{"tier":"pro"}}}}`,
		`{"type":"checkout.session.completed","data":{"object":{"customer_email":"not-an-email"}}}`,
	}
	for _, payload := range payloads {
		w := f.postSigned(t, payload)
		assert.Equal(t, http.StatusBadRequest, w.Code, payload)
		assert.Equal(t, "Invalid payload", decode[models.ErrorResponse](t, w).Error)
	}

	assert.Empty(t, f.store.List(context.Background()).Records)
}

func TestWebhookBodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	verifier := services.NewVerifier(testSecret, 0)
	s := store.NewFileStore(log, filepath.Join(t.TempDir(), "customers.json"))
	h := New(log, verifier, s, nil, Options{MaxBodyBytes: 16})
	router := NewRouter(log, h, config.Features{}, "")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(testPayload))
	req.Header.Set(services.SignatureHeader, verifier.Sign([]byte(testPayload), testTimestamp))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, s.List(context.Background()).Records)
}

func TestWebhookPersistenceFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	verifier := services.NewVerifier(testSecret, 0)
	notifier := &recordingNotifier{}
	h := New(log, verifier, failingStore{}, notifier, Options{})
	router := NewRouter(log, h, config.Features{}, "")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(testPayload))
	req.Header.Set(services.SignatureHeader, verifier.Sign([]byte(testPayload), testTimestamp))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode[models.ErrorResponse](t, w)
	assert.Equal(t, "Internal error", body.Error)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, w.Header().Get(middleware.RequestIDHeader), body.RequestID)
	assert.NotContains(t, w.Body.String(), "disk full")
	assert.Zero(t, notifier.count())
}

func TestWebhookSequentialEventsKeepOrder(t *testing.T) {
	f := newFixture(t, testSecret)

	tiers := []string{"starter", "pro", "enterprise", "pro", ""}
	for i, tier := range tiers {
		metadata := ""
		if tier != "" {
			metadata = fmt.Sprintf(`,"metadata":{"tier":%q,"campaign":"launch"}`, tier)
		}
		payload := fmt.Sprintf(`{"type":"checkout.session.completed","data":{"object":{"customer_email":"user%d@example.com","customer":"cus_%d"%s}}}`, i, i, metadata)
		w := f.postSigned(t, payload)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := f.do(t, http.MethodGet, "/customers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.CustomersResponse](t, w)
	require.Equal(t, len(tiers), resp.Count)
	require.Len(t, resp.Customers, len(tiers))
	for i, c := range resp.Customers {
		wantTier := tiers[i]
		if wantTier == "" {
			wantTier = "starter"
		}
		assert.Equal(t, fmt.Sprintf("user%d@example.com", i), c.Email)
		assert.Equal(t, wantTier, c.Tier)
		assert.Equal(t, fmt.Sprintf("cus_%d", i), c.StripeCustomerID)
	}
}

func TestWebhookDuplicateEventsAccumulate(t *testing.T) {
	f := newFixture(t, testSecret)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, f.postSigned(t, testPayload).Code)
	}

	assert.Len(t, f.store.List(context.Background()).Records, 2)
}

func TestCustomersEmpty(t *testing.T) {
	f := newFixture(t, testSecret)

	w := f.do(t, http.MethodGet, "/customers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"customers":[],"count":0}`, w.Body.String())
}

func TestCustomersCorruptStore(t *testing.T) {
	f := newFixture(t, testSecret)
	require.NoError(t, os.WriteFile(f.store.Path(), []byte("[{broken"), 0o644))

	w := f.do(t, http.MethodGet, "/customers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"customers":[],"count":0}`, w.Body.String())

	require.Equal(t, http.StatusOK, f.postSigned(t, testPayload).Code)

	resp := decode[models.CustomersResponse](t, f.do(t, http.MethodGet, "/customers", "", nil))
	assert.Equal(t, 1, resp.Count)
}

func TestStatusAndHealth(t *testing.T) {
	f := newFixture(t, testSecret)
	f.handler.now = func() time.Time { return testTimestamp }

	require.Equal(t, http.StatusOK, f.postSigned(t, testPayload).Code)
	f.do(t, http.MethodPost, "/webhook", testPayload, nil)

	w := f.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode[models.StatusResponse](t, w)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, ServiceName, status.Service)
	assert.Equal(t, "test", status.Version)
	assert.True(t, status.StripeConfigured)
	assert.True(t, status.WebhookSecretConfigured)
	assert.Equal(t, int64(2), status.WebhooksReceived)
	assert.Equal(t, int64(1), status.CustomersCreated)
	assert.NotContains(t, w.Body.String(), testSecret)

	w = f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[models.HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, health.StripeKeySet)
	assert.True(t, health.WebhookSecretSet)
	assert.Equal(t, "ok", health.Store)
	assert.True(t, testTimestamp.Equal(health.Timestamp))
	assert.NotContains(t, w.Body.String(), testSecret)
}

func TestCountersArePerInstance(t *testing.T) {
	a := newFixture(t, testSecret)
	b := newFixture(t, testSecret)

	require.Equal(t, http.StatusOK, a.postSigned(t, testPayload).Code)

	statusB := decode[models.StatusResponse](t, b.do(t, http.MethodGet, "/", "", nil))
	assert.Zero(t, statusB.WebhooksReceived)
	assert.Zero(t, statusB.CustomersCreated)
}

func TestHealthWithoutSecrets(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	h := New(log, services.NewVerifier("", 0), failingStore{}, nil, Options{})
	router := NewRouter(log, h, config.Features{}, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	health := decode[models.HealthResponse](t, w)
	assert.False(t, health.StripeKeySet)
	assert.False(t, health.WebhookSecretSet)
	assert.Equal(t, "error", health.Store)
}

func TestCustomersAdminGate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)
	s := store.NewFileStore(log, filepath.Join(t.TempDir(), "customers.json"))
	h := New(log, services.NewVerifier(testSecret, 0), s, nil, Options{})
	router := NewRouter(log, h, config.Features{AdminAuthEnabled: true}, "admin-secret")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := services.IssueAdminToken("admin-secret", "ops", time.Hour, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// The webhook itself is authenticated by signature, not by the admin gate.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
