package admincli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorstribe/internal/apiclient"
	"creatorstribe/internal/log"
	"creatorstribe/internal/models"
	"creatorstribe/internal/session"
)

type fakeProvider struct {
	code      string
	sent      []string
	logoutErr error
}

func (p *fakeProvider) SendCode(_ context.Context, email string) error {
	p.sent = append(p.sent, email)
	return nil
}

func (p *fakeProvider) VerifyCode(_ context.Context, email, code string) (models.User, error) {
	if code != p.code {
		return models.User{}, errors.New("Invalid verification code")
	}
	return models.User{UID: "admin-1", Email: email}, nil
}

func (p *fakeProvider) InvalidateSession(context.Context) error { return p.logoutErr }

type fakeAPI struct {
	page    apiclient.CreatorPage
	params  apiclient.ListParams
	deleted []string
	meErr   error
}

func (f *fakeAPI) Me(context.Context) (models.User, error) { return models.User{}, f.meErr }

func (f *fakeAPI) ListCreators(_ context.Context, p apiclient.ListParams) (apiclient.CreatorPage, error) {
	f.params = p
	return f.page, nil
}

func (f *fakeAPI) GetCreator(_ context.Context, uid, id string) (apiclient.CreatorDetail, error) {
	return apiclient.CreatorDetail{
		Creator:   models.Creator{UID: uid, ID: id, Name: "Nia", Email: "nia@example.com"},
		Portfolio: []models.PortfolioItem{{Title: "Launch", Metrics: models.PortfolioMetrics{Views: 7}}},
	}, nil
}

func (f *fakeAPI) DeleteCreator(_ context.Context, uid, id string) error {
	f.deleted = append(f.deleted, uid+"/"+id)
	return nil
}

func (f *fakeAPI) Stats(context.Context) (map[string]any, error) {
	return map[string]any{"totalCreators": 4, "activeCreators": 2}, nil
}

func newApp(t *testing.T, input string, store session.Store) (*App, *fakeProvider, *fakeAPI, *bytes.Buffer) {
	t.Helper()
	provider := &fakeProvider{code: "123456"}
	s, err := session.New(context.Background(), provider, store, session.Options{Log: log.Nop()})
	require.NoError(t, err)
	api := &fakeAPI{}
	out := &bytes.Buffer{}
	return New(s, api, strings.NewReader(input), out), provider, api, out
}

func TestLogin_RetriesThenSucceeds(t *testing.T) {
	store := &session.MemoryStore{}
	app, provider, _, out := newApp(t, "ops@creatorstribe.com\n000000\n123456\n", store)

	require.NoError(t, app.Run(context.Background(), []string{"login"}))
	assert.Equal(t, []string{"ops@creatorstribe.com"}, provider.sent)
	assert.Contains(t, out.String(), "Invalid verification code")
	assert.Contains(t, out.String(), "signed in as ops@creatorstribe.com")

	persisted, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, persisted.IsAuthenticated)
}

func TestLogin_EmptyCodeCancels(t *testing.T) {
	app, _, _, out := newApp(t, "ops@creatorstribe.com\n\n", &session.MemoryStore{})

	require.NoError(t, app.Run(context.Background(), []string{"login"}))
	assert.Contains(t, out.String(), "login cancelled")
	assert.Equal(t, session.StateUnauthenticated, app.session.Snapshot().State)
}

func TestLogin_GivesUpAfterMaxAttempts(t *testing.T) {
	app, _, _, _ := newApp(t, "ops@creatorstribe.com\n1\n2\n3\n", &session.MemoryStore{})

	err := app.Run(context.Background(), []string{"login"})
	assert.Error(t, err)
	assert.False(t, app.session.Snapshot().IsAuthenticated)
}

func loggedIn(t *testing.T) *session.MemoryStore {
	t.Helper()
	store := &session.MemoryStore{}
	require.NoError(t, store.Save(context.Background(), session.Persisted{
		User:            &models.User{UID: "admin-1", Email: "ops@creatorstribe.com"},
		IsAuthenticated: true,
	}))
	return store
}

func TestCommandsRequireLogin(t *testing.T) {
	app, _, _, out := newApp(t, "", &session.MemoryStore{})

	err := app.Run(context.Background(), []string{"creators", "list"})
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Contains(t, out.String(), "not signed in")
}

func TestCreatorsList(t *testing.T) {
	app, _, api, out := newApp(t, "", loggedIn(t))
	api.page = apiclient.CreatorPage{
		Creators:   []models.Creator{{UID: "u1", ID: "c1", Name: "Nia", Specialty: models.SpecialtyFood, Status: models.CreatorStatusActive, Rating: 5}},
		NextCursor: "abc",
	}

	require.NoError(t, app.Run(context.Background(), []string{"creators", "list", "-specialty", "Food", "-limit", "10"}))
	assert.Equal(t, "Food", api.params.Specialty)
	assert.Equal(t, 10, api.params.Limit)
	assert.Contains(t, out.String(), "Nia")
	assert.Contains(t, out.String(), "-cursor abc")
}

func TestCreatorsGetAndDelete(t *testing.T) {
	app, _, api, out := newApp(t, "", loggedIn(t))

	require.NoError(t, app.Run(context.Background(), []string{"creators", "get", "u1", "c1"}))
	assert.Contains(t, out.String(), "nia@example.com")
	assert.Contains(t, out.String(), "Launch (7 views")

	require.NoError(t, app.Run(context.Background(), []string{"creators", "delete", "u1", "c1"}))
	assert.Equal(t, []string{"u1/c1"}, api.deleted)

	assert.ErrorIs(t, app.Run(context.Background(), []string{"creators", "delete", "u1"}), ErrUsage)
}

func TestStats(t *testing.T) {
	app, _, _, out := newApp(t, "", loggedIn(t))

	require.NoError(t, app.Run(context.Background(), []string{"stats"}))
	assert.Regexp(t, `activeCreators\s+2`, out.String())
	assert.Less(t, strings.Index(out.String(), "activeCreators"), strings.Index(out.String(), "totalCreators"))
}

func TestStatusReportsExpiredServerSession(t *testing.T) {
	app, _, api, out := newApp(t, "", loggedIn(t))
	api.meErr = apiclient.ErrUnauthorized

	require.NoError(t, app.Run(context.Background(), []string{"status"}))
	assert.Contains(t, out.String(), "signed in as ops@creatorstribe.com")
	assert.Contains(t, out.String(), "server session expired")
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	store := loggedIn(t)
	app, provider, _, out := newApp(t, "", store)
	provider.logoutErr = errors.New("network down")

	assert.Error(t, app.Run(context.Background(), []string{"logout"}))
	assert.Contains(t, out.String(), "signed out locally")

	_, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownCommand(t *testing.T) {
	app, _, _, out := newApp(t, "", &session.MemoryStore{})
	assert.ErrorIs(t, app.Run(context.Background(), []string{"frobnicate"}), ErrUsage)
	assert.Contains(t, out.String(), "unknown command")
}
