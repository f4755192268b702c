package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	advanceservice "github.com/smallbiznis/nel3/internal/advance/service"
	affiliateservice "github.com/smallbiznis/nel3/internal/affiliate/service"
	agendaservice "github.com/smallbiznis/nel3/internal/agenda/service"
	"github.com/smallbiznis/nel3/internal/authorization"
	catalogservice "github.com/smallbiznis/nel3/internal/catalog/service"
	chargeservice "github.com/smallbiznis/nel3/internal/charge/service"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/invoice/render"
	invoiceservice "github.com/smallbiznis/nel3/internal/invoice/service"
	limitservice "github.com/smallbiznis/nel3/internal/limit/service"
	notificationservice "github.com/smallbiznis/nel3/internal/notification/service"
	overviewservice "github.com/smallbiznis/nel3/internal/overview/service"
	partnerservice "github.com/smallbiznis/nel3/internal/partner/service"
	"github.com/smallbiznis/nel3/internal/ratelimit"
	rateservice "github.com/smallbiznis/nel3/internal/rate/service"
	reconciliationservice "github.com/smallbiznis/nel3/internal/reconciliation/service"
	"github.com/smallbiznis/nel3/internal/session"
	sessiondomain "github.com/smallbiznis/nel3/internal/session/domain"
	sessionservice "github.com/smallbiznis/nel3/internal/session/service"
	settlementservice "github.com/smallbiznis/nel3/internal/settlement/service"
	"github.com/smallbiznis/nel3/internal/storage"
	"github.com/smallbiznis/nel3/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	operatorEmail    = "operador@nel3.com.br"
	operatorPassword = "nel3@2024"
	hospitalEmail    = "contato@saolucas.com.br"
	hospitalPassword = "hospital@2024"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, tweak func(*ServerParams)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, clk := storetest.New(t, true)
	log := zap.NewNop()
	cfg := config.Config{AppName: "nel3", Environment: "test", AuthJWTSecret: "test-secret", AuthTokenTTLMin: 60}
	limits := config.NewStaticLimits(config.DefaultLimits())

	notifications := notificationservice.New(notificationservice.Params{Store: st, Log: log})
	ledger := limitservice.New(limitservice.Params{Store: st, Limits: limits, Log: log})

	sessions, err := sessionservice.New(sessionservice.Params{Config: cfg, KV: storage.NewMemory(), Clock: clk, Log: log})
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer()
	require.NoError(t, err)

	p := ServerParams{
		Gin:               NewEngine(EngineParams{}),
		Cfg:               cfg,
		Store:             st,
		Sessions:          session.NewManager(cfg),
		SessionSvc:        sessions,
		AuthzSvc:          authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer}),
		PartnerSvc:        partnerservice.New(partnerservice.Params{Store: st, Emitter: notifications, Log: log}),
		AffiliateSvc:      affiliateservice.New(affiliateservice.Params{Store: st, Emitter: notifications, Log: log}),
		InvoiceSvc:        invoiceservice.New(invoiceservice.Params{Store: st, Emitter: notifications, Renderer: render.NewRenderer(), Log: log}),
		ChargeSvc:         chargeservice.New(chargeservice.Params{Store: st, Log: log}),
		SettlementSvc:     settlementservice.New(settlementservice.Params{Store: st, Emitter: notifications, Log: log}),
		RateSvc:           rateservice.New(rateservice.Params{Store: st, Log: log}),
		AdvanceSvc:        advanceservice.New(advanceservice.Params{Store: st, Ledger: ledger, Limits: limits, Emitter: notifications, Log: log}),
		ReconciliationSvc: reconciliationservice.New(reconciliationservice.Params{Store: st, Log: log}),
		AgendaSvc:         agendaservice.New(agendaservice.Params{Store: st, Emitter: notifications, Log: log}),
		NotificationSvc:   notifications,
		CatalogSvc:        catalogservice.New(st),
		Ledger:            ledger,
		OverviewSvc:       overviewservice.New(st),
	}
	if tweak != nil {
		tweak(&p)
	}
	return NewServer(p)
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func signIn(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/v1/session", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotEmpty(t, out.Data.Token)
	return out.Data.Token
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var out struct {
		Error struct {
			Type   string            `json:"type"`
			Errors []ValidationError `json:"errors"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return errorPayload{Type: out.Error.Type, Errors: out.Error.Errors}
}

func TestHealthAndFallback(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Type)
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/partners", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/partners", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/session", "", map[string]string{"email": operatorEmail, "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignOutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodGet, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodDelete, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/partners", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHospitalIsScopedToItsPartner(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, hospitalEmail, hospitalPassword)

	w := do(t, s, http.MethodGet, "/api/v1/partners", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var partners []struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &partners)
	require.Len(t, partners, 1)
	assert.Equal(t, "p1", partners[0].ID)

	w = do(t, s, http.MethodGet, "/api/v1/partners/p2", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/partners/p2/limit", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/partners", token, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/store/reset", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the partnerId query cannot widen the scope
	w = do(t, s, http.MethodGet, "/api/v1/advances?partnerId=p4", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var advances []struct {
		PartnerID string `json:"partnerId"`
	}
	decodeData(t, w, &advances)
	require.NotEmpty(t, advances)
	for _, a := range advances {
		assert.Equal(t, "p1", a.PartnerID)
	}

	w = do(t, s, http.MethodGet, "/api/v1/advances/adv3", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHospitalCreatesAdvanceForItself(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, hospitalEmail, hospitalPassword)

	w := do(t, s, http.MethodPost, "/api/v1/advances", token, map[string]any{"partnerId": "p4", "amount": "300"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var adv struct {
		PartnerID string `json:"partnerId"`
		Status    string `json:"status"`
	}
	decodeData(t, w, &adv)
	assert.Equal(t, "p1", adv.PartnerID)
	assert.Equal(t, "requested", adv.Status)

	w = do(t, s, http.MethodPost, "/api/v1/advances/adv1/approve", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdvanceApprovalThroughAPI(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodPost, "/api/v1/advances", token, map[string]any{"partnerId": "p1", "amount": "1000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &created)

	w = do(t, s, http.MethodPost, "/api/v1/advances/"+created.ID+"/approve", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var approved struct {
		Status         string `json:"status"`
		AppliedRatePct string `json:"appliedRatePct"`
	}
	decodeData(t, w, &approved)
	assert.Equal(t, "approved", approved.Status)
	assert.Equal(t, "2.9", approved.AppliedRatePct)

	w = do(t, s, http.MethodGet, "/api/v1/partners/p1/limit", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var usage struct {
		Consumed string `json:"consumed"`
	}
	decodeData(t, w, &usage)
	assert.Equal(t, "3000", usage.Consumed)

	w = do(t, s, http.MethodPost, "/api/v1/advances/"+created.ID+"/settle", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// settled is terminal
	w = do(t, s, http.MethodPost, "/api/v1/advances/"+created.ID+"/reject", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, w).Type)
}

func TestAdvanceOverLimitIsUnprocessable(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodPost, "/api/v1/advances", token, map[string]any{"partnerId": "p1", "amount": "49000"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	decodeData(t, w, &created)

	w = do(t, s, http.MethodPost, "/api/v1/advances/"+created.ID+"/approve", token, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "limit_exceeded", decodeError(t, w).Type)
	assert.Contains(t, w.Body.String(), `"remaining":"48000"`)

	w = do(t, s, http.MethodGet, "/api/v1/advances/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"requested"`)
}

func TestValidationErrorsAreBadRequests(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodPost, "/api/v1/advances", token, map[string]any{"partnerId": "p2", "amount": "10"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	payload := decodeError(t, w)
	assert.Equal(t, "validation_error", payload.Type)
	require.NotEmpty(t, payload.Errors)
	assert.Equal(t, "kyc_not_approved", payload.Errors[0].Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/advances", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = do(t, s, http.MethodGet, "/api/v1/advances/missing", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPartnerKYCThroughAPI(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodPost, "/api/v1/partners/p3/kyc", token, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"kycStatus":"approved"`)

	w = do(t, s, http.MethodPost, "/api/v1/partners/p3/kyc", token, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/partners/p2/kyc", token, map[string]string{"status": "rejected"})
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodGet, "/api/v1/partners/p2", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReconciliationImportAndMatch(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodPost, "/api/v1/reconciliation/import", token, map[string]any{
		"text": "CHG-0001;1250,00\n;99\nNOPE;abc",
		"mode": "strict",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result struct {
		Items       []json.RawMessage `json:"items"`
		Quarantined []json.RawMessage `json:"quarantined"`
	}
	decodeData(t, w, &result)
	assert.Len(t, result.Items, 1)
	assert.Len(t, result.Quarantined, 2)

	w = do(t, s, http.MethodPost, "/api/v1/reconciliation/auto-match", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary struct {
		Matched int `json:"matched"`
	}
	decodeData(t, w, &summary)
	assert.Equal(t, 1, summary.Matched)
}

func TestPrintInvoiceServesHTML(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodGet, "/api/v1/invoices/inv1/print", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "<html")
}

func TestNotificationsUnreadFilter(t *testing.T) {
	s := newTestServer(t)
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodGet, "/api/v1/notifications?unread=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []json.RawMessage
	decodeData(t, w, &list)
	assert.Len(t, list, 2)

	w = do(t, s, http.MethodGet, "/api/v1/notifications?unread=maybe", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/v1/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/v1/notifications?unread=true", token, nil)
	decodeData(t, w, &list)
	assert.Empty(t, list)
}

func TestSignInThrottled(t *testing.T) {
	s := newTestServerWith(t, func(p *ServerParams) {
		p.SignInLimiter = ratelimit.NewLocal(0.001, 2)
	})
	creds := map[string]string{"email": "operador@nel3.com.br", "password": "wrong"}

	for i := 0; i < 2; i++ {
		w := do(t, s, http.MethodPost, "/api/v1/session", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := do(t, s, http.MethodPost, "/api/v1/session", "", creds)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, w).Type)
}

type failingSignOut struct {
	sessiondomain.Service
}

func (failingSignOut) SignOut(context.Context, string) error {
	return errors.New("kv unavailable")
}

func TestSignOutLogsRevocationFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := newTestServerWith(t, func(p *ServerParams) {
		p.SessionSvc = failingSignOut{Service: p.SessionSvc}
		p.Log = zap.New(core)
	})
	token := signIn(t, s, operatorEmail, operatorPassword)

	w := do(t, s, http.MethodDelete, "/api/v1/session", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	entries := logs.FilterMessage("session not revoked").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kv unavailable", entries[0].ContextMap()["error"])
}

func TestSignOutWithStaleTokenDoesNotWarn(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := newTestServerWith(t, func(p *ServerParams) { p.Log = zap.New(core) })

	w := do(t, s, http.MethodDelete, "/api/v1/session", "not-a-token", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, logs.Len())
}
