package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorstribe/internal/cache"
	"creatorstribe/internal/config"
	"creatorstribe/internal/creators"
	"creatorstribe/internal/log"
	"creatorstribe/internal/models"
	"creatorstribe/internal/repository"
	"creatorstribe/internal/security"
	"creatorstribe/internal/service"
	"creatorstribe/internal/tablestore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const adminToken = "admin-token"

type stubAuth struct {
	requested  []string
	requestErr error
	verifyErr  error
	loginErr   error
	registered []service.RegisterInput
	loggedOut  []string
}

func (s *stubAuth) Authenticate(_ context.Context, token, _, _ string) (service.Principal, error) {
	if token != adminToken {
		return service.Principal{}, service.ErrInvalidToken
	}
	return service.Principal{
		Admin: models.Admin{
			ID:          "admin-1",
			Email:       "ops@creatorstribe.com",
			DisplayName: "Ops",
			Role:        models.UserRoleAdmin,
			Status:      models.UserStatusActive,
			CreatedAt:   time.UnixMilli(1_700_000_000_000),
		},
		Claims: security.AccessClaims{UserID: "admin-1", SessionID: "sess-1"},
	}, nil
}

func (s *stubAuth) RequestCode(_ context.Context, email string) error {
	s.requested = append(s.requested, email)
	return s.requestErr
}

func (s *stubAuth) VerifyCode(_ context.Context, input service.VerifyInput) (service.AuthResult, error) {
	if s.verifyErr != nil {
		return service.AuthResult{}, s.verifyErr
	}
	return service.AuthResult{
		AccessToken: adminToken,
		ExpiresAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		User:        models.User{UID: "admin-1", Email: input.Email},
	}, nil
}

func (s *stubAuth) Register(_ context.Context, input service.RegisterInput) (service.AuthResult, error) {
	if s.loginErr != nil {
		return service.AuthResult{}, s.loginErr
	}
	s.registered = append(s.registered, input)
	return service.AuthResult{
		AccessToken: adminToken,
		User:        models.User{UID: "admin-2", Name: input.Name, Email: input.Email},
	}, nil
}

func (s *stubAuth) Login(_ context.Context, input service.LoginInput) (service.AuthResult, error) {
	if s.loginErr != nil {
		return service.AuthResult{}, s.loginErr
	}
	return service.AuthResult{
		AccessToken: adminToken,
		User:        models.User{UID: "admin-1", Email: input.Email},
	}, nil
}

func (s *stubAuth) Logout(_ context.Context, sessionID string) error {
	s.loggedOut = append(s.loggedOut, sessionID)
	return nil
}

type stubStats struct {
	stats       creators.Stats
	invalidated int
}

func (s *stubStats) Get(context.Context) (creators.Stats, error) { return s.stats, nil }
func (s *stubStats) Invalidate(context.Context)                  { s.invalidated++ }

type stubUploader struct {
	got service.UploadInput
	err error
}

func (s *stubUploader) Upload(_ context.Context, input service.UploadInput) (service.UploadResult, error) {
	s.got = input
	if s.err != nil {
		return service.UploadResult{}, s.err
	}
	return service.UploadResult{
		Media: models.Media{ID: "m1", ObjectKey: "creators/2025/01/01/m1.png", Format: "png"},
		URL:   "https://cdn.example.com/creators/2025/01/01/m1.png",
	}, nil
}

type stubMedia struct {
	limit, offset int
}

func (s *stubMedia) GetByID(_ context.Context, id string) (models.Media, error) {
	if id != "m1" {
		return models.Media{}, repository.ErrMediaNotFound
	}
	return models.Media{
		ID:        "m1",
		Bucket:    "media",
		ObjectKey: "creators/m1.png",
		Signature: security.SignResource("sig", "m1", "media", "creators/m1.png"),
	}, nil
}

func (s *stubMedia) List(_ context.Context, limit, offset int) ([]models.Media, error) {
	s.limit, s.offset = limit, offset
	return []models.Media{{ID: "m1"}}, nil
}

type stubContact struct {
	got service.Inquiry
	err error
}

func (s *stubContact) Submit(_ context.Context, in service.Inquiry) error {
	s.got = in
	return s.err
}

type fixture struct {
	router   *gin.Engine
	auth     *stubAuth
	repo     *creators.Repository
	stats    *stubStats
	uploads  *stubUploader
	media    *stubMedia
	contact  *stubContact
	pingFail error
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:    &stubAuth{},
		repo:    creators.NewRepository(tablestore.NewMemoryStore("owner-1"), "creators", log.Nop()),
		stats:   &stubStats{stats: creators.Stats{TotalCreators: 3}},
		uploads: &stubUploader{},
		media:   &stubMedia{},
		contact: &stubContact{},
	}
	cfg := &config.AppConfig{
		Environment: "test",
		Table:       config.TableConfig{ProjectID: "creatorstribe"},
		Security:    config.SecurityConfig{SignatureSecret: "sig"},
	}
	set := NewHandlerSet(log.Nop(), cfg, Dependencies{
		Auth:     f.auth,
		Creators: f.repo,
		Stats:    f.stats,
		Uploads:  f.uploads,
		Media:    f.media,
		Contact:  f.contact,
		Checks: []HealthCheck{{Name: "postgres", Ping: func(context.Context) error {
			return f.pingFail
		}}},
	})
	f.router = gin.New()
	set.Register(f.router.Group("/api"))
	return f
}

func (f *fixture) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) seed(t *testing.T, name string, status models.CreatorStatus) tablestore.Key {
	t.Helper()
	key, err := f.repo.Create(context.Background(), models.CreatorForm{
		Name:      name,
		Email:     name + "@example.com",
		Specialty: models.SpecialtyFood,
		Status:    status,
		Rating:    4,
		PortfolioItems: []models.PortfolioItem{
			{Title: "Launch", Metrics: models.PortfolioMetrics{Views: 10}},
		},
	})
	require.NoError(t, err)
	return key
}

func validCreator() map[string]any {
	return map[string]any{
		"name":      "Ama Mensah",
		"email":     "ama@example.com",
		"specialty": "Beauty",
		"status":    "Active",
		"rating":    5,
		"followers": 12000,
		"portfolio_items": []map[string]any{
			{"title": "Glow", "metrics": map[string]any{"views": 100, "likes": 5, "comments": 1}},
		},
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/healthz", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["environment"])

	f.pingFail = errors.New("down")
	body = decodeBody(t, f.do(http.MethodGet, "/api/healthz", nil, false))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]any{"postgres": "error"}, body["checks"])
}

func TestRequestOTP(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/auth/otp", map[string]string{"email": "ops@creatorstribe.com"}, false)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"ops@creatorstribe.com"}, f.auth.requested)

	w = f.do(http.MethodPost, "/api/v1/auth/otp", map[string]string{"email": ""}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.auth.requestErr = errors.New("redis down")
	w = f.do(http.MethodPost, "/api/v1/auth/otp", map[string]string{"email": "ops@creatorstribe.com"}, false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to send verification code")

	f.auth.requestErr = cache.ErrCooldown
	w = f.do(http.MethodPost, "/api/v1/auth/otp", map[string]string{"email": "ops@creatorstribe.com"}, false)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Please wait before requesting another code")
}

func TestRegisterAdmin(t *testing.T) {
	f := newFixture(t)

	body := map[string]string{"name": "Nana", "email": "nana@creatorstribe.com", "password": "s3cret-pass"}
	w := f.do(http.MethodPost, "/api/v1/auth/register", body, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, adminToken, resp["accessToken"])
	assert.Equal(t, "Nana", resp["user"].(map[string]any)["name"])
	require.Len(t, f.auth.registered, 1)
	assert.Equal(t, "s3cret-pass", f.auth.registered[0].Password)

	w = f.do(http.MethodPost, "/api/v1/auth/register", map[string]string{"email": "nana@creatorstribe.com"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	cases := map[error]int{
		service.ErrEmailTaken:   http.StatusConflict,
		service.ErrWeakPassword: http.StatusBadRequest,
		service.ErrNotAllowed:   http.StatusForbidden,
		errors.New("db down"):   http.StatusInternalServerError,
	}
	for err, code := range cases {
		f.auth.loginErr = err
		w = f.do(http.MethodPost, "/api/v1/auth/register", body, false)
		assert.Equal(t, code, w.Code, err.Error())
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	body := map[string]string{"email": "ops@creatorstribe.com", "password": "s3cret-pass"}
	w := f.do(http.MethodPost, "/api/v1/auth/login", body, false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, adminToken, decodeBody(t, w)["accessToken"])

	w = f.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "ops@creatorstribe.com"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.auth.loginErr = service.ErrInvalidCredentials
	w = f.do(http.MethodPost, "/api/v1/auth/login", body, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid email or password")

	f.auth.loginErr = service.ErrAdminSuspended
	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/v1/auth/login", body, false).Code)
}

func TestVerifyOTP(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": "ops@creatorstribe.com", "code": "123456"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, adminToken, body["accessToken"])

	f.auth.verifyErr = service.ErrInvalidCode
	w = f.do(http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": "ops@creatorstribe.com", "code": "000000"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid verification code")

	f.auth.verifyErr = service.ErrTooManyAttempts
	w = f.do(http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": "ops@creatorstribe.com", "code": "000000"}, false)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = f.do(http.MethodPost, "/api/v1/auth/otp/verify", map[string]string{"email": "ops@creatorstribe.com", "code": "abc"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeAndLogout(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/v1/auth/me", nil, false).Code)

	w := f.do(http.MethodGet, "/api/v1/auth/me", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "admin", body["role"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "admin-1", user["uid"])
	assert.Equal(t, "creatorstribe", user["projectId"])

	w = f.do(http.MethodPost, "/api/v1/auth/logout", nil, true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"sess-1"}, f.auth.loggedOut)
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/v1/admin/creators", "/api/v1/admin/stats", "/api/v1/admin/media"} {
		assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, path, nil, false).Code, path)
	}
}

func TestAdminCreatorLifecycle(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/admin/creators", validCreator(), true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody(t, w)
	uid, id := created["uid"].(string), created["id"].(string)
	assert.Equal(t, "admin-1", uid, "records are owned by the creating admin")
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, f.stats.invalidated)

	path := "/api/v1/admin/creators/" + uid + "/" + id
	w = f.do(http.MethodGet, path, nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decodeBody(t, w)
	assert.Equal(t, "ama@example.com", detail["creator"].(map[string]any)["email"])
	portfolio := detail["portfolio"].([]any)
	require.Len(t, portfolio, 1)
	assert.Equal(t, "Glow", portfolio[0].(map[string]any)["title"])
	form := detail["form"].(map[string]any)
	assert.Equal(t, "Ama Mensah", form["name"])
	assert.Len(t, form["portfolio_items"], 1)

	update := validCreator()
	update["name"] = "Ama M."
	update["portfolio_items"] = []map[string]any{}
	w = f.do(http.MethodPut, path, update, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decodeBody(t, w)["creator"].(map[string]any)
	assert.Equal(t, "Ama M.", updated["name"])
	assert.Equal(t, "[]", updated["portfolio_items"])
	assert.Equal(t, detail["creator"].(map[string]any)["joined_date"], updated["joined_date"])

	w = f.do(http.MethodDelete, path, nil, true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 3, f.stats.invalidated)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, nil, true).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, path, validCreator(), true).Code)
}

func TestAdminCreateValidation(t *testing.T) {
	f := newFixture(t)

	cases := map[string]func(map[string]any){
		"missing name":      func(b map[string]any) { delete(b, "name") },
		"bad email":         func(b map[string]any) { b["email"] = "nope" },
		"unknown specialty": func(b map[string]any) { b["specialty"] = "Gaming" },
		"rating too high":   func(b map[string]any) { b["rating"] = 6 },
		"negative":          func(b map[string]any) { b["followers"] = -1 },
		"untitled item":     func(b map[string]any) { b["portfolio_items"] = []map[string]any{{"title": ""}} },
	}
	for name, mutate := range cases {
		body := validCreator()
		mutate(body)
		w := f.do(http.MethodPost, "/api/v1/admin/creators", body, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	assert.Zero(t, f.stats.invalidated)
}

func TestAdminListCreators(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "active", models.CreatorStatusActive)
	f.seed(t, "pending", models.CreatorStatusPending)

	w := f.do(http.MethodGet, "/api/v1/admin/creators", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["creators"], 2)
	assert.Equal(t, "", body["nextCursor"])

	w = f.do(http.MethodGet, "/api/v1/admin/creators?status=Pending", nil, true)
	body = decodeBody(t, w)
	require.Len(t, body["creators"], 1)

	w = f.do(http.MethodGet, "/api/v1/admin/creators?limit=1", nil, true)
	body = decodeBody(t, w)
	assert.Len(t, body["creators"], 1)
	assert.NotEmpty(t, body["nextCursor"])

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/admin/creators?cursor=%21%21", nil, true).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/v1/admin/creators?limit=abc", nil, true).Code)
}

func TestPublicCreatorsHideInactiveAndEmail(t *testing.T) {
	f := newFixture(t)
	active := f.seed(t, "visible", models.CreatorStatusActive)
	hidden := f.seed(t, "hidden", models.CreatorStatusSuspended)

	w := f.do(http.MethodGet, "/api/v1/creators", nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeBody(t, w)["creators"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "visible", item["name"])
	assert.NotContains(t, item, "email")

	w = f.do(http.MethodGet, "/api/v1/creators?specialty=Food", nil, false)
	assert.Len(t, decodeBody(t, w)["creators"], 1)

	w = f.do(http.MethodGet, "/api/v1/creators/"+active.UID+"/"+active.ID, nil, false)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decodeBody(t, w)["creator"].(map[string]any)
	assert.Len(t, profile["portfolio"], 1)
	assert.NotContains(t, profile, "email")

	w = f.do(http.MethodGet, "/api/v1/creators/"+hidden.UID+"/"+hidden.ID, nil, false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/v1/admin/stats", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalCreators":3`)
}

func TestSubmitInquiry(t *testing.T) {
	f := newFixture(t)

	body := map[string]string{"name": "Brand Co", "email": "pr@brand.co", "message": "Campaign in May"}
	w := f.do(http.MethodPost, "/api/v1/contact", body, false)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Brand Co", f.contact.got.Name)

	w = f.do(http.MethodPost, "/api/v1/contact", map[string]string{"name": "x"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.contact.err = errors.New("stream unavailable")
	w = f.do(http.MethodPost, "/api/v1/contact", body, false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func multipartUpload(t *testing.T, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="a.png"`}
	header["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/media", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+adminToken)
	return req
}

func TestUploadMedia(t *testing.T) {
	f := newFixture(t)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, multipartUpload(t, "image/png", []byte("\x89PNG\r\n\x1a\n")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "admin-1", f.uploads.got.AdminID)
	assert.Equal(t, "image/png", f.uploads.got.DeclaredType)
	assert.Contains(t, w.Body.String(), "https://cdn.example.com/")

	f.uploads.err = service.ErrFileTooLarge
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, multipartUpload(t, "image/png", []byte("x")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	f.uploads.err = service.ErrTypeMismatch
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, multipartUpload(t, "image/png", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminListMediaPaging(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/admin/media?page=3&perPage=10", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, f.media.limit)
	assert.Equal(t, 20, f.media.offset)
}

func TestAdminGetMedia(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/admin/media/m1", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["verified"])

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/v1/admin/media/zzz", nil, true).Code)
}
