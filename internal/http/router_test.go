package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goodbridge/givestack/internal/mailer"
	"github.com/goodbridge/givestack/internal/payment"
	"github.com/goodbridge/givestack/internal/service"
	"github.com/goodbridge/givestack/internal/store/drivers/sqlite"
	"github.com/goodbridge/givestack/pkg/cryptox"
	"github.com/goodbridge/givestack/pkg/jwtx"
)

type testEnv struct {
	server   *httptest.Server
	provider *payment.FakeProvider
	mail     *mailer.FakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "test-issuer")
	require.NoError(t, err)

	provider := payment.NewFakeProvider()
	mail := mailer.NewFakeMailer()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter(signer, "test", st, logger, []string{"*"})
	router.AuthService = &service.AuthService{
		Store:     st,
		Signer:    signer,
		Issuer:    "test-issuer",
		AccessTTL: time.Minute,
	}
	router.ProfileService = &service.ProfileService{Store: st}
	router.DonationService = &service.DonationService{
		Store:    st,
		Provider: provider,
	}
	router.AdminService = &service.AdminService{Store: st}
	router.PasswordResetService = &service.PasswordResetService{
		Store:  st,
		Mailer: mail,
		OTPTTL: 15 * time.Minute,
	}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, provider: provider, mail: mail}
}

// call sends a JSON request. The ip spreads actors across rate limit buckets
// the way distinct clients would be.
func (e *testEnv) call(t *testing.T, method, path, token, ip string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if ip != "" {
		req.Header.Set("X-Forwarded-For", ip)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func (e *testEnv) webhook(t *testing.T, payload []byte, signature string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/v1/webhooks/payment", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func register(t *testing.T, e *testEnv, name, email, role, ip string) {
	t.Helper()

	body := map[string]any{"name": name, "email": email, "password": "hunter2hunter2"}
	if role != "" {
		body["role"] = role
	}
	resp, _ := e.call(t, http.MethodPost, "/v1/auth/register", "", ip, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func login(t *testing.T, e *testEnv, email, password, ip string) string {
	t.Helper()

	resp, body := e.call(t, http.MethodPost, "/v1/auth/login", "", ip, map[string]any{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestDonationLifecycle(t *testing.T) {
	e := newTestEnv(t)

	register(t, e, "Alice", "alice@example.com", "", "203.0.113.1")

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		resp, body := e.call(t, http.MethodPost, "/v1/auth/register", "", "203.0.113.1", map[string]any{
			"name": "Imposter", "email": "alice@example.com", "password": "hunter2hunter2",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "email_taken", body["error"])
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		resp, _ := e.call(t, http.MethodPost, "/v1/auth/login", "", "203.0.113.1", map[string]any{
			"email": "alice@example.com", "password": "not-the-password",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	token := login(t, e, "alice@example.com", "hunter2hunter2", "203.0.113.1")

	var sessionID string

	t.Run("donation starts pending with a checkout url", func(t *testing.T) {
		resp, body := e.call(t, http.MethodPost, "/v1/donations", token, "203.0.113.1", map[string]any{
			"amount": 50.0, "currency": "usd", "origin_url": "https://app.example",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.NotEmpty(t, body["checkout_url"])

		donation := body["donation"].(map[string]any)
		require.Equal(t, "pending", donation["status"])
		sessionID = donation["session_id"].(string)
		require.NotEmpty(t, sessionID)
	})

	t.Run("donations require authentication", func(t *testing.T) {
		resp, _ := e.call(t, http.MethodPost, "/v1/donations", "", "203.0.113.1", map[string]any{
			"amount": 10.0, "currency": "usd", "origin_url": "https://app.example",
		})
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("profile shows the pending donation", func(t *testing.T) {
		resp, body := e.call(t, http.MethodGet, "/v1/users/me", token, "203.0.113.1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		donations := body["donations"].([]any)
		require.Len(t, donations, 1)
		require.Equal(t, "pending", donations[0].(map[string]any)["status"])
		require.EqualValues(t, 0, body["total_donated"], "pending donations don't count towards the total")
	})

	t.Run("verify degrades when the provider is unreachable", func(t *testing.T) {
		e.provider.StatusErr = errors.New("gateway down")
		defer func() { e.provider.StatusErr = nil }()

		resp, body := e.call(t, http.MethodGet, "/v1/donations/verify/"+sessionID, token, "203.0.113.1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "pending", body["donation"].(map[string]any)["status"])
		require.Equal(t, "unknown", body["payment_status"])
		require.NotEmpty(t, body["message"])
	})

	t.Run("verify before payment keeps it pending", func(t *testing.T) {
		resp, body := e.call(t, http.MethodGet, "/v1/donations/verify/"+sessionID, token, "203.0.113.1", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "pending", body["donation"].(map[string]any)["status"])
	})

	t.Run("paid webhook settles the donation", func(t *testing.T) {
		e.provider.MarkPaid(sessionID)
		payload := e.provider.EventPayload(sessionID)

		resp := e.webhook(t, payload, e.provider.Signature)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// Re-delivery is acknowledged and changes nothing.
		resp = e.webhook(t, payload, e.provider.Signature)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		vresp, body := e.call(t, http.MethodGet, "/v1/donations/verify/"+sessionID, token, "203.0.113.1", nil)
		require.Equal(t, http.StatusOK, vresp.StatusCode)
		require.Equal(t, "success", body["donation"].(map[string]any)["status"])

		presp, profile := e.call(t, http.MethodGet, "/v1/users/me", token, "203.0.113.1", nil)
		require.Equal(t, http.StatusOK, presp.StatusCode)
		require.InDelta(t, 50, profile["total_donated"].(float64), 0.001)
	})

	t.Run("forged webhook signature is rejected", func(t *testing.T) {
		resp := e.webhook(t, []byte(`{}`), "forged")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("verify with unknown session is a 404", func(t *testing.T) {
		resp, _ := e.call(t, http.MethodGet, "/v1/donations/verify/cs_test_unknown", token, "203.0.113.1", nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAdminDashboard(t *testing.T) {
	e := newTestEnv(t)

	register(t, e, "Alice", "alice@example.com", "", "203.0.113.1")
	aliceToken := login(t, e, "alice@example.com", "hunter2hunter2", "203.0.113.1")

	register(t, e, "Root", "admin@example.com", "admin", "203.0.113.2")
	adminToken := login(t, e, "admin@example.com", "hunter2hunter2", "203.0.113.2")

	// One settled and one pending donation.
	resp, body := e.call(t, http.MethodPost, "/v1/donations", aliceToken, "203.0.113.1", map[string]any{
		"amount": 50.0, "currency": "usd", "origin_url": "https://app.example",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID := body["donation"].(map[string]any)["session_id"].(string)

	e.provider.MarkPaid(sessionID)
	require.Equal(t, http.StatusOK, e.webhook(t, e.provider.EventPayload(sessionID), e.provider.Signature).StatusCode)

	resp, _ = e.call(t, http.MethodPost, "/v1/donations", aliceToken, "203.0.113.1", map[string]any{
		"amount": 30.0, "currency": "eur", "origin_url": "https://app.example",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	t.Run("regular users are forbidden", func(t *testing.T) {
		resp, _ := e.call(t, http.MethodGet, "/v1/admin/dashboard", aliceToken, "203.0.113.1", nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admins see the aggregates", func(t *testing.T) {
		resp, body := e.call(t, http.MethodGet, "/v1/admin/dashboard", adminToken, "203.0.113.2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		require.EqualValues(t, 2, body["total_users"])
		require.EqualValues(t, 2, body["total_donations"])
		require.InDelta(t, 50, body["total_amount"].(float64), 0.001, "pending donations don't count")
		require.Len(t, body["recent_users"].([]any), 2)
		require.Len(t, body["recent_donations"].([]any), 2)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	e := newTestEnv(t)

	register(t, e, "Alice", "alice@example.com", "", "203.0.113.1")

	resp, _ := e.call(t, http.MethodPost, "/v1/password-reset/request", "", "203.0.113.1", map[string]any{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	messages := e.mail.Messages()
	require.Len(t, messages, 1)
	code := regexp.MustCompile(`\d{6}`).FindString(messages[0].HTML)
	require.Len(t, code, 6)

	t.Run("unknown emails get the same response", func(t *testing.T) {
		resp, _ := e.call(t, http.MethodPost, "/v1/password-reset/request", "", "203.0.113.9", map[string]any{
			"email": "ghost@example.com",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Len(t, e.mail.Messages(), 1, "no mail for unknown accounts")
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		resp, _ := e.call(t, http.MethodPost, "/v1/password-reset/verify", "", "203.0.113.2", map[string]any{
			"email": "alice@example.com", "code": wrong,
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("code verifies and resets the password", func(t *testing.T) {
		resp, _ := e.call(t, http.MethodPost, "/v1/password-reset/verify", "", "203.0.113.3", map[string]any{
			"email": "alice@example.com", "code": code,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = e.call(t, http.MethodPost, "/v1/password-reset/confirm", "", "203.0.113.3", map[string]any{
			"email": "alice@example.com", "code": code, "new_password": "a-new-password-42",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		login(t, e, "alice@example.com", "a-new-password-42", "203.0.113.4")
	})

	t.Run("the code cannot be reused", func(t *testing.T) {
		resp, _ := e.call(t, http.MethodPost, "/v1/password-reset/confirm", "", "203.0.113.5", map[string]any{
			"email": "alice@example.com", "code": code, "new_password": "yet-another-pass",
		})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.call(t, http.MethodGet, "/livez", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	resp, body = e.call(t, http.MethodGet, "/readyz", "", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestLoginRateLimit(t *testing.T) {
	e := newTestEnv(t)

	register(t, e, "Alice", "alice@example.com", "", "203.0.113.50")

	// Burn through the strict per-IP budget with bad logins.
	var lastCode int
	for range 10 {
		resp, _ := e.call(t, http.MethodPost, "/v1/auth/login", "", "203.0.113.99", map[string]any{
			"email": "alice@example.com", "password": "wrong",
		})
		lastCode = resp.StatusCode
	}
	require.Equal(t, http.StatusTooManyRequests, lastCode)

	// Another client is unaffected.
	login(t, e, "alice@example.com", "hunter2hunter2", "203.0.113.51")
}
