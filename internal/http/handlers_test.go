package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/callboard/internal/application"
)

// ----------------------------- service stubs -----------------------------

type stubAuthService struct {
	registerResult application.AuthResult
	registerErr    error
	loginResult    application.AuthResult
	loginErr       error
	logoutErr      error
	logoutToken    string
}

func (s *stubAuthService) Register(_ context.Context, _ application.RegisterParams) (application.AuthResult, error) {
	return s.registerResult, s.registerErr
}

func (s *stubAuthService) Login(_ context.Context, _ application.LoginParams) (application.AuthResult, error) {
	return s.loginResult, s.loginErr
}

func (s *stubAuthService) Logout(_ context.Context, token string) error {
	s.logoutToken = token
	return s.logoutErr
}

type stubAccountService struct {
	profile    application.Profile
	profileErr error
	user       application.User
	updateErr  error
	counters   []application.Counter
	counter    application.Counter
	counterErr error
	deleteErr  error
}

func (s *stubAccountService) Profile(_ context.Context, _ string) (application.Profile, error) {
	return s.profile, s.profileErr
}

func (s *stubAccountService) UpdateProfile(_ context.Context, _ string, _ application.UpdateProfileParams) (application.User, error) {
	return s.user, s.updateErr
}

func (s *stubAccountService) ListCounters(_ context.Context, _ string) ([]application.Counter, error) {
	return s.counters, nil
}

func (s *stubAccountService) CreateCounter(_ context.Context, _ string, _ application.CreateCounterParams) (application.Counter, error) {
	return s.counter, s.counterErr
}

func (s *stubAccountService) UpdateCounter(_ context.Context, _, _ string, _ application.UpdateCounterParams) (application.Counter, error) {
	return s.counter, s.counterErr
}

func (s *stubAccountService) DeleteCounter(_ context.Context, _, _ string) error {
	return s.deleteErr
}

type stubCommandService struct {
	commands   []application.Command
	listErr    error
	command    application.Command
	createErr  error
	updateErr  error
	deleteErr  error
	stats      application.DashboardStats
	statsErr   error
	lastParams application.CreateCommandParams
}

func (s *stubCommandService) List(_ context.Context, _ string, _ application.ListCommandsParams) ([]application.Command, error) {
	return s.commands, s.listErr
}

func (s *stubCommandService) Create(_ context.Context, _ string, params application.CreateCommandParams) (application.Command, error) {
	s.lastParams = params
	return s.command, s.createErr
}

func (s *stubCommandService) Update(_ context.Context, _, _ string, _ application.UpdateCommandParams) (application.Command, error) {
	return s.command, s.updateErr
}

func (s *stubCommandService) Delete(_ context.Context, _, _ string) error {
	return s.deleteErr
}

func (s *stubCommandService) Stats(_ context.Context, _ string) (application.DashboardStats, error) {
	return s.stats, s.statsErr
}

type stubDisplayService struct {
	data        application.DisplayData
	dataErr     error
	ping        application.PingResult
	pingErr     error
	stats       application.DisplayStats
	statsErr    error
	announceErr error
	ads         application.AdsPayload
	adsErr      error
}

func (s *stubDisplayService) Snapshot(_ context.Context, _ string) (application.DisplayData, error) {
	return s.data, s.dataErr
}

func (s *stubDisplayService) Ping(_ context.Context, _ string) (application.PingResult, error) {
	return s.ping, s.pingErr
}

func (s *stubDisplayService) Stats(_ context.Context, _ string) (application.DisplayStats, error) {
	return s.stats, s.statsErr
}

func (s *stubDisplayService) Announce(_ context.Context, _, _ string) error {
	return s.announceErr
}

func (s *stubDisplayService) Ads(_ context.Context, _ string) (application.AdsPayload, error) {
	return s.ads, s.adsErr
}

type stubSessionValidator struct {
	user application.User
	err  error
}

func (s *stubSessionValidator) ValidateSession(_ context.Context, _ string) (application.User, error) {
	return s.user, s.err
}

// ------------------------------- helpers ---------------------------------

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

type routerOptions struct {
	auth     *stubAuthService
	account  *stubAccountService
	commands *stubCommandService
	display  *stubDisplayService
	session  *stubSessionValidator
}

func newTestRouter(t *testing.T, opts routerOptions) http.Handler {
	t.Helper()
	if opts.auth == nil {
		opts.auth = &stubAuthService{}
	}
	if opts.account == nil {
		opts.account = &stubAccountService{}
	}
	if opts.commands == nil {
		opts.commands = &stubCommandService{}
	}
	if opts.display == nil {
		opts.display = &stubDisplayService{}
	}
	if opts.session == nil {
		opts.session = &stubSessionValidator{user: application.User{ID: "user-1", Email: "test@example.com"}}
	}

	return NewRouter(RouterConfig{
		Auth:           NewAuthHandler(opts.auth, nil),
		Users:          NewUserHandler(opts.account, nil),
		Commands:       NewCommandHandler(opts.commands, nil),
		Display:        NewDisplayHandler(opts.display, nil),
		RequireSession: RequireSession(opts.session, nil),
	})
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer token-test")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// -------------------------------- tests ----------------------------------

func TestRouter_Register(t *testing.T) {
	t.Parallel()

	expires := time.Date(2024, time.March, 17, 9, 30, 0, 0, time.UTC)
	auth := &stubAuthService{registerResult: application.AuthResult{
		User:      application.User{ID: "user-1", Email: "chef@example.com", RestaurantName: "Chez Test"},
		Token:     "token-abc",
		ExpiresAt: expires,
	}}
	router := newTestRouter(t, routerOptions{auth: auth})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"chef@example.com","password":"secret1","restaurant_name":"Chez Test"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Compte créé avec succès" {
		t.Fatalf("unexpected envelope: %+v", env)
	}

	var payload struct {
		User      application.User `json:"user"`
		Token     string           `json:"token"`
		ExpiresAt string           `json:"expires_at"`
	}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.Token != "token-abc" || payload.User.ID != "user-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.ExpiresAt != "2024-03-17T09:30:00Z" {
		t.Fatalf("unexpected expiry: %q", payload.ExpiresAt)
	}
}

func TestRouter_RegisterRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, routerOptions{})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error != "Format de requête invalide" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRouter_LoginFailure(t *testing.T) {
	t.Parallel()

	auth := &stubAuthService{loginErr: application.ErrInvalidCredentials}
	router := newTestRouter(t, routerOptions{auth: auth})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"chef@example.com","password":"mauvais"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error != "Email ou mot de passe incorrect" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRouter_Logout(t *testing.T) {
	t.Parallel()

	auth := &stubAuthService{}
	router := newTestRouter(t, routerOptions{auth: auth})

	req := authedRequest(http.MethodPost, "/api/auth/logout", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if auth.logoutToken != "token-test" {
		t.Fatalf("expected logout to receive bearer token, got %q", auth.logoutToken)
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Déconnexion réussie" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, routerOptions{})
	targets := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/commands"},
		{http.MethodGet, "/api/commands/stats"},
		{http.MethodGet, "/api/users/profile"},
		{http.MethodGet, "/api/users/counters"},
	}

	for _, target := range targets {
		req := httptest.NewRequest(target.method, target.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", target.method, target.path, rec.Code)
		}
		env := decodeEnvelope(t, rec)
		if env.Error != "Token d'authentification requis" {
			t.Fatalf("%s %s: unexpected error %q", target.method, target.path, env.Error)
		}
	}
}

func TestRouter_CreateCommand(t *testing.T) {
	t.Parallel()

	commands := &stubCommandService{command: application.Command{ID: "command-1", Number: "A12", Status: application.CommandStatusActive}}
	router := newTestRouter(t, routerOptions{commands: commands})

	req := authedRequest(http.MethodPost, "/api/commands", `{"number":"A12","message":"Table 4","priority":2}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Commande créée" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if commands.lastParams.Number != "A12" || commands.lastParams.Priority != 2 {
		t.Fatalf("unexpected forwarded params: %+v", commands.lastParams)
	}

	var command application.Command
	if err := json.Unmarshal(env.Data, &command); err != nil {
		t.Fatalf("failed to decode command: %v", err)
	}
	if command.ID != "command-1" {
		t.Fatalf("unexpected command payload: %+v", command)
	}
}

func TestRouter_CreateCommandValidationError(t *testing.T) {
	t.Parallel()

	commands := &stubCommandService{createErr: &application.ValidationError{
		FieldErrors: map[string]string{"number": "Numéro de commande requis"},
	}}
	router := newTestRouter(t, routerOptions{commands: commands})

	req := authedRequest(http.MethodPost, "/api/commands", `{"number":""}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error != "Numéro de commande requis" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRouter_UpdateMissingCommand(t *testing.T) {
	t.Parallel()

	commands := &stubCommandService{updateErr: application.ErrNotFound}
	router := newTestRouter(t, routerOptions{commands: commands})

	req := authedRequest(http.MethodPut, "/api/commands/command-404", `{"status":"completed"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Commande non trouvée" {
		t.Fatalf("unexpected error: %q", env.Error)
	}
}

func TestRouter_DuplicateEmail(t *testing.T) {
	t.Parallel()

	auth := &stubAuthService{registerErr: application.ErrEmailTaken}
	router := newTestRouter(t, routerOptions{auth: auth})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"chef@example.com","password":"secret1","restaurant_name":"Chez Test"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Un compte existe déjà avec cet email" {
		t.Fatalf("unexpected error: %q", env.Error)
	}
}

func TestRouter_DuplicateNumber(t *testing.T) {
	t.Parallel()

	commands := &stubCommandService{createErr: application.ErrNumberActive}
	router := newTestRouter(t, routerOptions{commands: commands})

	req := authedRequest(http.MethodPost, "/api/commands", `{"number":"A12"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Une commande avec ce numéro est déjà active" {
		t.Fatalf("unexpected error: %q", env.Error)
	}
}

func TestRouter_CounterPlanLimit(t *testing.T) {
	t.Parallel()

	account := &stubAccountService{counterErr: application.ErrPlanLimit}
	router := newTestRouter(t, routerOptions{account: account})

	req := authedRequest(http.MethodPost, "/api/users/counters", `{"name":"Bar"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Votre plan ne permet pas d'ajouter plus de guichets" {
		t.Fatalf("unexpected error: %q", env.Error)
	}
}

func TestRouter_DeleteLastCounter(t *testing.T) {
	t.Parallel()

	account := &stubAccountService{deleteErr: application.ErrLastCounter}
	router := newTestRouter(t, routerOptions{account: account})

	req := authedRequest(http.MethodDelete, "/api/users/counters/counter-1", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Impossible de supprimer le dernier guichet" {
		t.Fatalf("unexpected error: %q", env.Error)
	}
}

func TestRouter_DisplaySnapshot(t *testing.T) {
	t.Parallel()

	display := &stubDisplayService{data: application.DisplayData{
		RestaurantName: "Chez Test",
		BrandColor:     "#3b82f6",
	}}
	router := newTestRouter(t, routerOptions{display: display})

	// No Authorization header: display endpoints are public.
	req := httptest.NewRequest(http.MethodGet, "/api/display/user-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	var data application.DisplayData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode display data: %v", err)
	}
	if data.RestaurantName != "Chez Test" {
		t.Fatalf("unexpected display data: %+v", data)
	}
}

func TestRouter_DisplayUnknownTenant(t *testing.T) {
	t.Parallel()

	display := &stubDisplayService{dataErr: application.ErrNotFound}
	router := newTestRouter(t, routerOptions{display: display})

	req := httptest.NewRequest(http.MethodGet, "/api/display/fantome", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Restaurant non trouvé" {
		t.Fatalf("unexpected error: %q", env.Error)
	}
}

func TestRouter_DisplayAnnounce(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, routerOptions{})
	req := httptest.NewRequest(http.MethodPost, "/api/display/user-1/announce/command-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success || env.Message != "Commande annoncée" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestRouter_DisplayAdsForbidden(t *testing.T) {
	t.Parallel()

	display := &stubDisplayService{adsErr: application.ErrForbidden}
	router := newTestRouter(t, routerOptions{display: display})

	req := httptest.NewRequest(http.MethodGet, "/api/display/user-1/ads", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error != "Fonctionnalité non disponible avec votre plan" {
		t.Fatalf("unexpected error: %q", env.Error)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, routerOptions{})
	req := httptest.NewRequest(http.MethodDelete, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodPost {
		t.Fatalf("expected Allow header %q, got %q", http.MethodPost, allow)
	}
}

func TestRouter_UnknownCommandSubpath(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, routerOptions{})
	req := authedRequest(http.MethodPut, "/api/commands/abc/def", "{}")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
