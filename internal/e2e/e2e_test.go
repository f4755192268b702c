package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/nel3/internal/advance"
	"github.com/smallbiznis/nel3/internal/affiliate"
	"github.com/smallbiznis/nel3/internal/agenda"
	"github.com/smallbiznis/nel3/internal/authorization"
	"github.com/smallbiznis/nel3/internal/catalog"
	"github.com/smallbiznis/nel3/internal/charge"
	"github.com/smallbiznis/nel3/internal/clock"
	"github.com/smallbiznis/nel3/internal/config"
	"github.com/smallbiznis/nel3/internal/invoice"
	"github.com/smallbiznis/nel3/internal/limit"
	"github.com/smallbiznis/nel3/internal/notification"
	"github.com/smallbiznis/nel3/internal/observability"
	"github.com/smallbiznis/nel3/internal/overview"
	"github.com/smallbiznis/nel3/internal/partner"
	"github.com/smallbiznis/nel3/internal/rate"
	"github.com/smallbiznis/nel3/internal/ratelimit"
	"github.com/smallbiznis/nel3/internal/reconciliation"
	"github.com/smallbiznis/nel3/internal/scheduler"
	"github.com/smallbiznis/nel3/internal/server"
	"github.com/smallbiznis/nel3/internal/session"
	"github.com/smallbiznis/nel3/internal/settlement"
	"github.com/smallbiznis/nel3/internal/storage"
	"github.com/smallbiznis/nel3/internal/store"
	"go.uber.org/fx"
)

type testEnv struct {
	app       *fx.App
	server    *server.Server
	scheduler *scheduler.Scheduler
	httpSrv   *httptest.Server
	baseURL   string
}

// startEnv boots the whole application against a sqlite file in dir.
func startEnv(t *testing.T, dir string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	limitsFile := filepath.Join(dir, "limits.yml")
	if _, err := os.Stat(limitsFile); os.IsNotExist(err) {
		body := []byte("limits:\n  dailyDefault: \"50000\"\n  defaultRate: \"2.9\"\n")
		if err := os.WriteFile(limitsFile, body, 0o600); err != nil {
			t.Fatalf("write limits file: %v", err)
		}
	}

	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("HTTP_ADDR", "127.0.0.1:0")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("DATABASE_PATH", filepath.Join(dir, "nel3.db"))
	t.Setenv("LIMITS_FILE", limitsFile)
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("AUTH_JWT_SECRET", "e2e-secret")

	var (
		srv   *server.Server
		sched *scheduler.Scheduler
	)
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		storage.Module,
		store.Module,
		notification.Module,
		limit.Module,
		session.Module,
		authorization.Module,
		ratelimit.Module,
		partner.Module,
		affiliate.Module,
		invoice.Module,
		charge.Module,
		settlement.Module,
		rate.Module,
		advance.Module,
		reconciliation.Module,
		agenda.Module,
		catalog.Module,
		overview.Module,
		scheduler.Module,
		server.Module,
		fx.NopLogger,
		fx.Populate(&srv, &sched),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("start app: %v", err)
	}

	httpSrv := httptest.NewServer(srv.Engine())
	env := &testEnv{app: app, server: srv, scheduler: sched, httpSrv: httpSrv, baseURL: httpSrv.URL}
	t.Cleanup(env.shutdown)
	return env
}

func (e *testEnv) shutdown() {
	if e == nil {
		return
	}
	if e.httpSrv != nil {
		e.httpSrv.Close()
		e.httpSrv = nil
	}
	if e.app != nil {
		_ = e.app.Stop(context.Background())
		e.app = nil
	}
}

type apiClient struct {
	t       *testing.T
	baseURL string
	token   string
}

func (e *testEnv) signIn(t *testing.T, email, password string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, baseURL: e.baseURL}
	var sess struct {
		Token string `json:"token"`
	}
	c.mustDo(http.MethodPost, "/api/v1/session", map[string]string{"email": email, "password": password}, http.StatusOK, &sess)
	if sess.Token == "" {
		t.Fatalf("sign in returned no token")
	}
	c.token = sess.Token
	return c
}

func (c *apiClient) do(method, path string, payload any) (int, []byte) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			c.t.Fatalf("encode json: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		c.t.Fatalf("build request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := (&http.Client{Timeout: 15 * time.Second}).Do(req)
	if err != nil {
		c.t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

// mustDo asserts the status and decodes the "data" envelope into out when non-nil.
func (c *apiClient) mustDo(method, path string, payload any, want int, out any) {
	c.t.Helper()
	status, body := c.do(method, path, payload)
	if status != want {
		c.t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, want, status, string(body))
	}
	if out == nil {
		return
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		c.t.Fatalf("decode data: %v", err)
	}
}

func (c *apiClient) unreadCount() int {
	c.t.Helper()
	var list []json.RawMessage
	c.mustDo(http.MethodGet, "/api/v1/notifications?unread=true", nil, http.StatusOK, &list)
	return len(list)
}

func (c *apiClient) consumed(partnerID string) string {
	c.t.Helper()
	var usage struct {
		Consumed string `json:"consumed"`
	}
	c.mustDo(http.MethodGet, "/api/v1/partners/"+partnerID+"/limit", nil, http.StatusOK, &usage)
	return usage.Consumed
}

func TestE2E_HealthCheck(t *testing.T) {
	env := startEnv(t, t.TempDir())

	resp, err := http.Get(env.baseURL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestE2E_PartnerAdvanceFlow(t *testing.T) {
	env := startEnv(t, t.TempDir())
	op := env.signIn(t, "operador@nel3.com.br", "nel3@2024")

	unreadBefore := op.unreadCount()

	var partner struct {
		ID        string `json:"id"`
		KYCStatus string `json:"kycStatus"`
	}
	op.mustDo(http.MethodPost, "/api/v1/partners", map[string]string{
		"name": "Hospital X",
		"cnpj": "11.222.333/0001-81",
		"city": "São Paulo",
	}, http.StatusCreated, &partner)
	if partner.ID == "" || partner.KYCStatus != "pending" {
		t.Fatalf("unexpected created partner: %+v", partner)
	}
	if got := op.consumed(partner.ID); got != "0" {
		t.Fatalf("expected empty ledger for new partner, got %s", got)
	}

	op.mustDo(http.MethodPost, "/api/v1/partners/"+partner.ID+"/kyc", map[string]string{"status": "approved"}, http.StatusOK, nil)

	var adv struct {
		ID             string `json:"id"`
		Status         string `json:"status"`
		AppliedRatePct string `json:"appliedRatePct"`
	}
	op.mustDo(http.MethodPost, "/api/v1/advances", map[string]string{"partnerId": partner.ID, "amount": "1000"}, http.StatusCreated, &adv)
	if adv.Status != "requested" {
		t.Fatalf("expected requested advance, got %s", adv.Status)
	}

	op.mustDo(http.MethodPost, "/api/v1/advances/"+adv.ID+"/approve", map[string]string{"ratePct": "2.9"}, http.StatusOK, &adv)
	if adv.Status != "approved" || adv.AppliedRatePct != "2.9" {
		t.Fatalf("unexpected approved advance: %+v", adv)
	}

	op.mustDo(http.MethodPost, "/api/v1/advances/"+adv.ID+"/settle", nil, http.StatusOK, &adv)
	if adv.Status != "settled" {
		t.Fatalf("expected settled advance, got %s", adv.Status)
	}

	if got := op.unreadCount() - unreadBefore; got != 3 {
		t.Fatalf("expected 3 new notifications, got %d", got)
	}
	if got := op.consumed(partner.ID); got != "1000" {
		t.Fatalf("expected ledger 1000 for new partner, got %s", got)
	}

	var all []struct {
		Title     string `json:"title"`
		PartnerID string `json:"partnerId"`
	}
	op.mustDo(http.MethodGet, "/api/v1/notifications", nil, http.StatusOK, &all)
	var titles []string
	for _, n := range all {
		if n.PartnerID == partner.ID {
			titles = append(titles, n.Title)
		}
	}
	// newest first
	want := []string{"Antecipação liquidada", "Antecipação aprovada", "KYC aprovado"}
	if len(titles) != len(want) {
		t.Fatalf("expected notifications %v for partner, got %v", want, titles)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected notifications %v for partner, got %v", want, titles)
		}
	}
}

func TestE2E_HospitalCannotApprove(t *testing.T) {
	env := startEnv(t, t.TempDir())
	hospital := env.signIn(t, "contato@saolucas.com.br", "hospital@2024")

	var adv struct {
		ID        string `json:"id"`
		PartnerID string `json:"partnerId"`
	}
	hospital.mustDo(http.MethodPost, "/api/v1/advances", map[string]string{"amount": "500"}, http.StatusCreated, &adv)
	if adv.PartnerID != "p1" {
		t.Fatalf("expected advance bound to p1, got %s", adv.PartnerID)
	}
	hospital.mustDo(http.MethodPost, "/api/v1/advances/"+adv.ID+"/approve", nil, http.StatusForbidden, nil)

	op := env.signIn(t, "operador@nel3.com.br", "nel3@2024")
	op.mustDo(http.MethodPost, "/api/v1/advances/"+adv.ID+"/approve", nil, http.StatusOK, nil)
}

func TestE2E_ReconciliationImportAndScheduledMatch(t *testing.T) {
	env := startEnv(t, t.TempDir())
	op := env.signIn(t, "operador@nel3.com.br", "nel3@2024")

	var result struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	op.mustDo(http.MethodPost, "/api/v1/reconciliation/import", map[string]string{
		"text": "CHG-0001;1.250,00\nTED-000001;42,00",
		"mode": "strict",
	}, http.StatusCreated, &result)
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 imported items, got %d", len(result.Items))
	}

	if err := env.scheduler.AutoMatchJob(context.Background()); err != nil {
		t.Fatalf("auto-match job: %v", err)
	}

	var matched struct {
		Matched      bool   `json:"matched"`
		AmountSystem string `json:"amountSystem"`
		MatchedID    string `json:"matchedId"`
	}
	op.mustDo(http.MethodGet, "/api/v1/reconciliation/"+result.Items[0].ID, nil, http.StatusOK, &matched)
	if !matched.Matched || matched.MatchedID != "c1" || matched.AmountSystem != "1250" {
		t.Fatalf("expected CHG-0001 matched to c1, got %+v", matched)
	}

	var unmatched struct {
		Matched      bool    `json:"matched"`
		AmountSystem *string `json:"amountSystem"`
	}
	op.mustDo(http.MethodGet, "/api/v1/reconciliation/"+result.Items[1].ID, nil, http.StatusOK, &unmatched)
	if unmatched.Matched || unmatched.AmountSystem != nil {
		t.Fatalf("expected TED-000001 unmatched, got %+v", unmatched)
	}
}

func TestE2E_SnapshotSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	env := startEnv(t, dir)
	op := env.signIn(t, "operador@nel3.com.br", "nel3@2024")
	var adv struct {
		ID string `json:"id"`
	}
	op.mustDo(http.MethodPost, "/api/v1/advances", map[string]string{"partnerId": "p1", "amount": "321.45"}, http.StatusCreated, &adv)
	env.shutdown()

	env = startEnv(t, dir)
	op = env.signIn(t, "operador@nel3.com.br", "nel3@2024")
	var got struct {
		Amount string `json:"amount"`
	}
	op.mustDo(http.MethodGet, "/api/v1/advances/"+adv.ID, nil, http.StatusOK, &got)
	if got.Amount != "321.45" {
		t.Fatalf("expected persisted amount 321.45, got %s", got.Amount)
	}
}
