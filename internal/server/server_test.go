package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/rfitrack/internal/auth"
	"github.com/suteetoe/rfitrack/internal/billing"
	"github.com/suteetoe/rfitrack/internal/handler"
	"github.com/suteetoe/rfitrack/internal/model"
	"github.com/suteetoe/rfitrack/internal/rfi"
	"github.com/suteetoe/rfitrack/internal/store"
	"github.com/suteetoe/rfitrack/pkg/config"
	"github.com/suteetoe/rfitrack/pkg/database"
	"github.com/suteetoe/rfitrack/pkg/jwtutil"
	"golang.org/x/crypto/bcrypt"
)

type fakeGateway struct {
	mock.Mock
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	args := g.Called(email, userID)
	return args.String(0), args.Error(1)
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (string, error) {
	args := g.Called(req)
	return args.String(0), args.Error(1)
}

func (g *fakeGateway) ParseEvent(ctx context.Context, payload []byte, signature string) (*billing.Event, error) {
	args := g.Called(string(payload), signature)
	ev, _ := args.Get(0).(*billing.Event)
	return ev, args.Error(1)
}

type lastCodeMailer struct {
	codes map[string]string
}

func (m *lastCodeMailer) SendCode(_ context.Context, email, code string, _ model.OTPPurpose) error {
	m.codes[email] = code
	return nil
}

type testApp struct {
	e       *echo.Echo
	store   *store.Store
	tokens  *jwtutil.JWTUtil
	gateway *fakeGateway
	mailer  *lastCodeMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, err := database.OpenMemory(model.AllModels()...)
	require.NoError(t, err)

	cfg := &config.Config{
		ServiceName: "rfitrack-test",
		Server:      config.ServerConfig{Port: "0", Env: "test", AppURL: "https://app.test", BodyLimit: "1M"},
		Metrics:     config.MetricsConfig{Prefix: "rfitrack-test"},
		Billing:     config.BillingConfig{TrialDays: 7, WebhookMaxBodySize: 65536},
		Auth: config.AuthConfig{
			OTPLength:      6,
			OTPTTL:         10 * time.Minute,
			OTPMaxAttempts: 5,
			BcryptCost:     bcrypt.MinCost,
		},
		RFI: config.RFIConfig{DueSoonWindow: 72 * time.Hour},
	}

	app := &testApp{
		store:   store.New(db),
		tokens:  jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "test", ExpirationHours: 1}),
		gateway: &fakeGateway{},
		mailer:  &lastCodeMailer{codes: map[string]string{}},
	}
	catalog := billing.DefaultCatalog(billing.PriceIDs{Starter: "price_starter", Pro: "price_pro", Team: "price_team"})

	h := handler.New(handler.Deps{
		Store:              app.store,
		RFIs:               rfi.NewService(app.store, cfg.RFI.DueSoonWindow),
		Auth:               auth.NewService(app.store, app.tokens, app.mailer, cfg.Auth),
		Checkout:           billing.NewCheckoutService(app.gateway, app.store, catalog, cfg.Server.AppURL, cfg.Billing.TrialDays),
		Gateway:            app.gateway,
		Reconciler:         billing.NewReconciler(app.store, false),
		Catalog:            catalog,
		WebhookMaxBodySize: cfg.Billing.WebhookMaxBodySize,
	})
	app.e = New(cfg, h, app.tokens)
	return app
}

// user creates a profile and returns a bearer token for it
func (a *testApp) user(t *testing.T, email string) (string, string) {
	t.Helper()
	p := &model.Profile{Email: email}
	require.NoError(t, a.store.CreateProfile(context.Background(), p))
	token, err := a.tokens.GenerateToken(email, p.ID)
	require.NoError(t, err)
	return p.ID, token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type idResponse struct {
	ID string `json:"id"`
}

type rfiResponse struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"project_id"`
	RFINumber  int        `json:"rfi_number"`
	Status     string     `json:"status"`
	Answer     *string    `json:"answer"`
	AnsweredAt *time.Time `json:"answered_at"`
	ClosedAt   *time.Time `json:"closed_at"`
	IsOverdue  bool       `json:"is_overdue"`
}

func (a *testApp) project(t *testing.T, token, name string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/projects", token, echo.Map{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p idResponse
	decode(t, rec, &p)
	return p.ID
}

func (a *testApp) rfi(t *testing.T, token, projectID string, extra echo.Map) rfiResponse {
	t.Helper()
	body := echo.Map{"subject": "Beam size", "question": "Which beam size on grid C?"}
	for k, v := range extra {
		body[k] = v
	}
	rec := a.do(t, http.MethodPost, "/api/projects/"+projectID+"/rfis", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var r rfiResponse
	decode(t, rec, &r)
	return r
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")

	rec = app.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestAPIRequiresAuthentication(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/projects", "/api/rfis", "/api/dashboard", "/api/profile"} {
		rec := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := app.do(t, http.MethodPost, "/checkout", "", echo.Map{"plan": "pro", "priceId": "price_pro"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRFIWorkflow(t *testing.T) {
	app := newTestApp(t)
	_, token := app.user(t, "pm@example.com")
	projectID := app.project(t, token, "Tower A")

	first := app.rfi(t, token, projectID, nil)
	second := app.rfi(t, token, projectID, echo.Map{"priority": "urgent", "due_date": "2020-01-01"})
	assert.Equal(t, 1, first.RFINumber)
	assert.Equal(t, 2, second.RFINumber)
	assert.Equal(t, "open", first.Status)
	assert.True(t, second.IsOverdue)

	// answering an open RFI moves it to answered
	rec := app.do(t, http.MethodPost, "/api/rfis/"+first.ID+"/answer", token, echo.Map{"answer": "Use W12x26"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var answered rfiResponse
	decode(t, rec, &answered)
	assert.Equal(t, "answered", answered.Status)
	require.NotNil(t, answered.AnsweredAt)

	rec = app.do(t, http.MethodPost, "/api/rfis/"+first.ID+"/status", token, echo.Map{"status": "closed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var closed rfiResponse
	decode(t, rec, &closed)
	assert.Equal(t, "closed", closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	// closed is terminal except through reopen
	rec = app.do(t, http.MethodPost, "/api/rfis/"+first.ID+"/status", token, echo.Map{"status": "pending"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = app.do(t, http.MethodPost, "/api/rfis/"+first.ID+"/answer", token, echo.Map{"answer": "changed"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = app.do(t, http.MethodPut, "/api/rfis/"+first.ID, token, echo.Map{"subject": "x", "question": "y"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/rfis/"+first.ID+"/reopen", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reopened rfiResponse
	decode(t, rec, &reopened)
	assert.Equal(t, "open", reopened.Status)
	assert.Nil(t, reopened.ClosedAt)

	rec = app.do(t, http.MethodGet, "/api/projects/"+projectID+"/rfis", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []rfiResponse
	decode(t, rec, &list)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].RFINumber)

	rec = app.do(t, http.MethodGet, "/api/rfis?status=open&limit=1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &list)
	assert.Len(t, list, 1)

	rec = app.do(t, http.MethodDelete, "/api/rfis/"+second.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodGet, "/api/rfis/"+second.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRFIValidation(t *testing.T) {
	app := newTestApp(t)
	_, token := app.user(t, "pm@example.com")
	projectID := app.project(t, token, "Tower A")

	cases := []struct {
		name string
		body echo.Map
		want string
	}{
		{"blank subject", echo.Map{"subject": "  ", "question": "q"}, "subject is required"},
		{"missing question", echo.Map{"subject": "s"}, "question is required"},
		{"bad priority", echo.Map{"subject": "s", "question": "q", "priority": "asap"}, "priority must be one of"},
		{"bad date", echo.Map{"subject": "s", "question": "q", "due_date": "tomorrow"}, "due_date must be a date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/projects/"+projectID+"/rfis", token, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}

	r := app.rfi(t, token, projectID, nil)
	rec := app.do(t, http.MethodPost, "/api/rfis/"+r.ID+"/status", token, echo.Map{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = app.do(t, http.MethodGet, "/api/rfis?limit=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantIsolation(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.user(t, "alice@example.com")
	_, bob := app.user(t, "bob@example.com")

	projectID := app.project(t, alice, "Alice tower")
	r := app.rfi(t, alice, projectID, nil)

	rec := app.do(t, http.MethodPost, "/api/contacts", alice, echo.Map{"name": "Engineer", "email": "eng@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contact idResponse
	decode(t, rec, &contact)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/projects/" + projectID},
		{http.MethodGet, "/api/projects/" + projectID + "/rfis"},
		{http.MethodGet, "/api/rfis/" + r.ID},
		{http.MethodGet, "/api/rfis/" + r.ID + "/attachments"},
		{http.MethodDelete, "/api/rfis/" + r.ID},
		{http.MethodPost, "/api/rfis/" + r.ID + "/reopen"},
		{http.MethodGet, "/api/contacts/" + contact.ID},
		{http.MethodDelete, "/api/contacts/" + contact.ID},
	} {
		rec := app.do(t, tc.method, tc.path, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}

	// bob cannot open RFIs on alice's project or assign alice's contacts
	rec = app.do(t, http.MethodPost, "/api/projects/"+projectID+"/rfis", bob, echo.Map{"subject": "s", "question": "q"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	bobProject := app.project(t, bob, "Bob tower")
	rec = app.do(t, http.MethodPost, "/api/projects/"+bobProject+"/rfis", bob,
		echo.Map{"subject": "s", "question": "q", "assigned_to_id": contact.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/rfis", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []rfiResponse
	decode(t, rec, &list)
	assert.Empty(t, list)

	// alice still sees her RFI
	rec = app.do(t, http.MethodGet, "/api/rfis/"+r.ID, alice, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProjectsAndContacts(t *testing.T) {
	app := newTestApp(t)
	_, token := app.user(t, "pm@example.com")
	projectID := app.project(t, token, "Tower A")
	app.rfi(t, token, projectID, echo.Map{"due_date": time.Now().AddDate(0, 0, -2).Format("2006-01-02")})

	rec := app.do(t, http.MethodPut, "/api/projects/"+projectID, token, echo.Map{"name": "Tower A2", "status": "on_hold"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"on_hold"`)

	rec = app.do(t, http.MethodPut, "/api/projects/"+projectID, token, echo.Map{"name": "Tower A2", "status": "deleted"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/projects", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []struct {
		Name         string      `json:"name"`
		RFICount     int64       `json:"rfi_count"`
		OpenRFICount int64       `json:"open_rfi_count"`
		Stats        rfi.Summary `json:"stats"`
	}
	decode(t, rec, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "Tower A2", projects[0].Name)
	assert.EqualValues(t, 1, projects[0].RFICount)
	assert.EqualValues(t, 1, projects[0].OpenRFICount)
	assert.Equal(t, rfi.Summary{Total: 1, Open: 1, Overdue: 1}, projects[0].Stats)

	rec = app.do(t, http.MethodGet, "/api/projects/"+projectID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Stats rfi.Summary `json:"stats"`
	}
	decode(t, rec, &detail)
	assert.Equal(t, 1, detail.Stats.Total)

	rec = app.do(t, http.MethodPost, "/api/projects/"+projectID+"/contacts", token, echo.Map{"name": "Architect"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var contact idResponse
	decode(t, rec, &contact)

	rec = app.do(t, http.MethodGet, "/api/projects/"+projectID+"/contacts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Architect")

	rec = app.do(t, http.MethodPost, "/api/contacts", token, echo.Map{"name": "Bad", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/contacts/"+contact.ID, token, echo.Map{"name": "Lead Architect", "phone": "555"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Lead Architect")

	rec = app.do(t, http.MethodDelete, "/api/contacts/"+contact.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAttachments(t *testing.T) {
	app := newTestApp(t)
	_, token := app.user(t, "pm@example.com")
	r := app.rfi(t, token, app.project(t, token, "Tower A"), nil)

	rec := app.do(t, http.MethodPost, "/api/rfis/"+r.ID+"/attachments", token, echo.Map{
		"file_name": "detail.pdf",
		"file_url":  "https://files.test/detail.pdf",
		"file_type": "application/pdf",
		"file_size": 1024,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var attachment idResponse
	decode(t, rec, &attachment)

	rec = app.do(t, http.MethodGet, "/api/rfis/"+r.ID+"/attachments", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail.pdf")

	rec = app.do(t, http.MethodDelete, "/api/rfis/"+r.ID+"/attachments/"+attachment.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodDelete, "/api/rfis/"+r.ID+"/attachments/"+attachment.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboard(t *testing.T) {
	app := newTestApp(t)
	_, token := app.user(t, "pm@example.com")
	projectID := app.project(t, token, "Tower A")
	for i := 0; i < 6; i++ {
		app.rfi(t, token, projectID, nil)
	}

	rec := app.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard struct {
		ProjectCount int64         `json:"project_count"`
		Stats        rfi.Summary   `json:"stats"`
		RecentRFIs   []rfiResponse `json:"recent_rfis"`
		Projects     []idResponse  `json:"recent_projects"`
	}
	decode(t, rec, &dashboard)
	assert.EqualValues(t, 1, dashboard.ProjectCount)
	assert.Equal(t, 6, dashboard.Stats.Total)
	assert.Equal(t, 6, dashboard.Stats.Open)
	assert.Len(t, dashboard.RecentRFIs, 5)
	assert.Len(t, dashboard.Projects, 1)
}

func TestProfileAndPassword(t *testing.T) {
	app := newTestApp(t)
	_, token := app.user(t, "pm@example.com")

	rec := app.do(t, http.MethodPatch, "/api/profile", token, echo.Map{"full_name": "Pat Morgan", "company_name": "Acme Build"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Pat Morgan")

	rec = app.do(t, http.MethodPost, "/api/users/password", token, echo.Map{"password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = app.do(t, http.MethodPost, "/api/users/password", token, echo.Map{"password": "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "pm@example.com", "password": "wrong password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")

	rec = app.do(t, http.MethodPost, "/auth/login", "", echo.Map{"email": "PM@example.com", "password": "correct horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"token"`)
}

func TestProfilePartialUpdate(t *testing.T) {
	app := newTestApp(t)
	_, token := app.user(t, "pm@example.com")

	rec := app.do(t, http.MethodPatch, "/api/profile", token, echo.Map{"full_name": "Pat", "company_name": "Acme Build"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodPatch, "/api/profile", token, echo.Map{"full_name": "Pat Morgan"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var profile model.Profile
	decode(t, rec, &profile)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Pat Morgan", *profile.FullName)
	require.NotNil(t, profile.CompanyName)
	assert.Equal(t, "Acme Build", *profile.CompanyName)

	rec = app.do(t, http.MethodPatch, "/api/profile", token, echo.Map{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Acme Build")

	rec = app.do(t, http.MethodPatch, "/api/profile", token, echo.Map{"company_name": ""})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile = model.Profile{}
	decode(t, rec, &profile)
	assert.Nil(t, profile.CompanyName)
	require.NotNil(t, profile.FullName)
	assert.Equal(t, "Pat Morgan", *profile.FullName)
}

func TestOneTimeCodeSignup(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/otp/request", "", echo.Map{"email": "new@example.com", "should_create_user": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"step":"code"`)
	code := app.mailer.codes["new@example.com"]
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = app.do(t, http.MethodPost, "/auth/otp/verify", "", echo.Map{"email": "new@example.com", "code": wrong, "should_create_user": true})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid code")

	rec = app.do(t, http.MethodPost, "/auth/otp/verify", "", echo.Map{"email": "new@example.com", "code": code, "should_create_user": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session struct {
		Token string    `json:"token"`
		Next  auth.Flow `json:"next"`
	}
	decode(t, rec, &session)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, auth.StepProfile, session.Next.Step)

	rec = app.do(t, http.MethodGet, "/api/profile", session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new@example.com")

	// a used code cannot be replayed
	rec = app.do(t, http.MethodPost, "/auth/otp/verify", "", echo.Map{"email": "new@example.com", "code": code, "should_create_user": true})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOneTimeCodeLoginUnknownEmail(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/auth/otp/request", "", echo.Map{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, app.mailer.codes)
}

func TestPlansAndCheckout(t *testing.T) {
	app := newTestApp(t)
	userID, token := app.user(t, "pm@example.com")

	rec := app.do(t, http.MethodGet, "/plans", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"pro"`)

	rec = app.do(t, http.MethodPost, "/checkout", token, echo.Map{"plan": "enterprise", "priceId": "price_x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid plan")

	app.gateway.On("CreateCustomer", "pm@example.com", userID).Return("cus_1", nil).Once()
	app.gateway.On("CreateCheckoutSession", mock.MatchedBy(func(req billing.CheckoutRequest) bool {
		return req.CustomerID == "cus_1" && req.Plan == "pro" && req.TrialDays == 7 &&
			req.SuccessURL == "https://app.test/settings?success=true"
	})).Return("https://checkout.test/s/1", nil).Once()

	rec = app.do(t, http.MethodPost, "/checkout", token, echo.Map{"plan": "pro", "priceId": "price_pro"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "https://checkout.test/s/1")
	app.gateway.AssertExpectations(t)

	profile, err := app.store.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, profile.StripeCustomerID)
	assert.Equal(t, "cus_1", *profile.StripeCustomerID)
}

func TestBillingWebhook(t *testing.T) {
	app := newTestApp(t)
	userID, _ := app.user(t, "pm@example.com")

	post := func(body, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", bytes.NewBufferString(body))
		if signature != "" {
			req.Header.Set("Stripe-Signature", signature)
		}
		rec := httptest.NewRecorder()
		app.e.ServeHTTP(rec, req)
		return rec
	}

	rec := post(`{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing signature")

	app.gateway.On("ParseEvent", `{"forged":true}`, "bad").Return(nil, billing.ErrVerification).Once()
	rec = post(`{"forged":true}`, "bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid signature")

	app.gateway.On("ParseEvent", `{"type":"customer.created"}`, "ok").Return(nil, billing.ErrUnhandledEvent).Once()
	rec = post(`{"type":"customer.created"}`, "ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	oversized := `{"pad":"` + string(bytes.Repeat([]byte("a"), 65536)) + `"}`
	rec = post(oversized, "ok")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request data")
	app.gateway.AssertNotCalled(t, "ParseEvent", oversized, "ok")

	app.gateway.On("ParseEvent", `{"id":"evt_1"}`, "ok").Return(&billing.Event{
		ID:        "evt_1",
		Type:      billing.EventCheckoutCompleted,
		UserID:    userID,
		Plan:      "team",
		CreatedAt: time.Now(),
	}, nil).Once()
	rec = post(`{"id":"evt_1"}`, "ok")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	profile, err := app.store.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, profile.SubscriptionStatus)
	assert.Equal(t, model.SubscriptionActive, *profile.SubscriptionStatus)
	assert.Equal(t, model.TierTeam, *profile.SubscriptionTier)

	app.gateway.On("ParseEvent", `{"id":"evt_2"}`, "ok").Return(&billing.Event{
		ID:     "evt_2",
		Type:   billing.EventPaymentFailed,
		UserID: "no-such-user",
	}, nil).Once()
	rec = post(`{"id":"evt_2"}`, "ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received":true}`, rec.Body.String())

	profile, err = app.store.GetProfile(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, *profile.SubscriptionStatus)
}
