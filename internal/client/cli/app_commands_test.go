package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/userdesk/internal/client/client"
	"github.com/dmitrijs2005/userdesk/internal/client/collection"
	"github.com/dmitrijs2005/userdesk/internal/client/config"
	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/dmitrijs2005/userdesk/internal/client/router"
	"github.com/dmitrijs2005/userdesk/internal/client/session"
	"github.com/dmitrijs2005/userdesk/internal/client/storage"
	"github.com/dmitrijs2005/userdesk/internal/common"
	"github.com/dmitrijs2005/userdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory client.Client.
type fakeAPI struct {
	mu       sync.Mutex
	users    []models.User
	token    string
	loginErr error
	listErr  error
	nextID   int
	lastIn   models.UserInput
	logins   []models.Credentials
}

func (f *fakeAPI) Login(_ context.Context, creds models.Credentials) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, creds)
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeAPI) GetUser(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, &client.APIError{Op: "get user", Status: 404, Message: "user not found"}
}

func (f *fakeAPI) CreateUser(_ context.Context, in models.UserInput) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastIn = in
	if in.Email == "dup@x.io" {
		return nil, &client.APIError{Op: "create user", Status: 409, Message: "email already registered"}
	}
	f.nextID++
	u := models.User{ID: "new-" + string(rune('0'+f.nextID)), Name: in.Name, Email: in.Email}
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeAPI) UpdateUser(_ context.Context, id string, in models.UserInput) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastIn = in
	for i, u := range f.users {
		if u.ID == id {
			if in.Name != "" {
				u.Name = in.Name
			}
			if in.Email != "" {
				u.Email = in.Email
			}
			f.users[i] = u
			return &u, nil
		}
	}
	return nil, &client.APIError{Op: "update user", Status: 404, Message: "user not found"}
}

func (f *fakeAPI) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return nil
		}
	}
	return &client.APIError{Op: "delete user", Status: 404, Message: "user not found"}
}

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

type testApp struct {
	*App
	api   *fakeAPI
	out   *bytes.Buffer
	store *storage.TokenStore
	meta  *storage.SQLiteMetadataRepository
}

func newTestApp(t *testing.T, api *fakeAPI, token string, input ...string) *testApp {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	meta := storage.NewSQLiteMetadataRepository(db)
	store := storage.NewTokenStore(meta)
	if token != "" {
		require.NoError(t, store.Save(ctx, token))
	}

	sess, err := session.New(ctx, store, api, logging.Discard())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.LoadDefaults()

	out := &bytes.Buffer{}
	reader := bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n"))
	app := assemble(cfg, logging.Discard(), api, sess, collection.NewUsers(api, logging.Discard()), meta, okPinger{}, reader, out)

	return &testApp{App: app, api: api, out: out, store: store, meta: meta}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	orig := getPassword
	getPassword = func(io.Writer) ([]byte, error) {
		return []byte(pw), nil
	}
	t.Cleanup(func() { getPassword = orig })
}

var (
	ana = models.User{ID: "1", Name: "Ana", Email: "ana@x.io"}
	bo  = models.User{ID: "2", Name: "Bo", Email: "bo@x.io"}
)

func TestStartup_AnonymousLandsOnLogin(t *testing.T) {
	a := newTestApp(t, &fakeAPI{users: []models.User{ana}}, "")

	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	assert.Equal(t, router.LoginRoute, a.view())
	assert.Contains(t, a.out.String(), "== Login ==")
	assert.Empty(t, a.users.Snapshot().Items)
}

func TestStartup_PersistedTokenLandsOnUsers(t *testing.T) {
	a := newTestApp(t, &fakeAPI{users: []models.User{ana, bo}}, "persisted")

	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	assert.Equal(t, router.UsersRoute, a.view())
	assert.Len(t, a.users.Snapshot().Items, 2)
	assert.Contains(t, a.out.String(), "Loading...")
	assert.Contains(t, a.out.String(), "ana@x.io")
}

func TestLogin_SuccessNavigatesAndPersists(t *testing.T) {
	stubPassword(t, "password123")
	api := &fakeAPI{users: []models.User{ana}, token: "T1"}
	a := newTestApp(t, api, "", "admin@example.com")
	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, router.UsersRoute, a.view())
	assert.Equal(t, []models.Credentials{{Email: "admin@example.com", Password: "password123"}}, api.logins)

	tok, err := a.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T1", tok)

	last, ok, err := a.meta.Get(context.Background(), common.LastEmailKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "admin@example.com", last)
	assert.Len(t, a.users.Snapshot().Items, 1)
}

func TestLogin_OffersLastEmail(t *testing.T) {
	stubPassword(t, "pw")
	api := &fakeAPI{token: "T"}
	a := newTestApp(t, api, "", "")
	require.NoError(t, a.meta.Set(context.Background(), common.LastEmailKey, "remembered@x.io"))

	require.NoError(t, a.Login(context.Background()))

	assert.Equal(t, "remembered@x.io", api.logins[0].Email)
	assert.Contains(t, a.out.String(), "Enter email [remembered@x.io]")
}

func TestLogin_FailureShowsGenericMessage(t *testing.T) {
	stubPassword(t, "wrong")
	api := &fakeAPI{loginErr: &client.APIError{Op: "login", Status: 401, Message: "invalid credentials"}}
	a := newTestApp(t, api, "", "admin@example.com")
	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	err := a.Login(context.Background())

	var authErr *session.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, router.LoginRoute, a.view())
	assert.Contains(t, a.out.String(), session.LoginFailedMessage)
	assert.NotContains(t, a.out.String(), "invalid credentials")

	_, ok, err := a.meta.Get(context.Background(), common.LastEmailKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogout_ClearsEverything(t *testing.T) {
	a := newTestApp(t, &fakeAPI{users: []models.User{ana}}, "T")
	require.NoError(t, a.router.Navigate(context.Background(), "/"))
	require.NotEmpty(t, a.users.Snapshot().Items)

	require.NoError(t, a.Logout(context.Background()))

	assert.Equal(t, router.LoginRoute, a.view())
	assert.Empty(t, a.users.Snapshot().Items)
	tok, err := a.store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestShow(t *testing.T) {
	a := newTestApp(t, &fakeAPI{users: []models.User{ana}}, "T")

	require.NoError(t, a.Show(context.Background(), "1"))
	assert.Contains(t, a.out.String(), "Name:    Ana")

	err := a.Show(context.Background(), "404")
	require.ErrorIs(t, err, client.ErrNotFound)
	assert.Contains(t, a.out.String(), "User not found")
}

func TestAdd(t *testing.T) {
	stubPassword(t, "longpassword")
	api := &fakeAPI{users: []models.User{ana}}
	a := newTestApp(t, api, "T", "Cy", "cy@x.io")
	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	require.NoError(t, a.Add(context.Background()))

	assert.Equal(t, models.UserInput{Name: "Cy", Email: "cy@x.io", Password: "longpassword"}, api.lastIn)
	items := a.users.Snapshot().Items
	require.Len(t, items, 2)
	assert.Equal(t, "Cy", items[1].Name)
	assert.Contains(t, a.out.String(), "User added")
}

func TestAdd_ServerErrorIsShown(t *testing.T) {
	stubPassword(t, "longpassword")
	a := newTestApp(t, &fakeAPI{}, "T", "Dup", "dup@x.io")

	require.Error(t, a.Add(context.Background()))
	assert.Contains(t, a.out.String(), "Error: email already registered")
}

func TestEdit_KeepsUnchangedFields(t *testing.T) {
	api := &fakeAPI{users: []models.User{ana, bo}}
	a := newTestApp(t, api, "T", "Bob", "")
	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	require.NoError(t, a.Edit(context.Background(), "2"))

	assert.Equal(t, models.UserInput{Name: "Bob"}, api.lastIn)
	assert.Equal(t, []models.User{ana, {ID: "2", Name: "Bob", Email: "bo@x.io"}}, a.users.Snapshot().Items)
}

func TestEdit_NothingToChange(t *testing.T) {
	api := &fakeAPI{users: []models.User{ana}}
	a := newTestApp(t, api, "T", "", "")
	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	require.NoError(t, a.Edit(context.Background(), "1"))
	assert.Contains(t, a.out.String(), "Nothing to change")
	assert.Equal(t, models.UserInput{}, api.lastIn)
}

func TestDelete(t *testing.T) {
	a := newTestApp(t, &fakeAPI{users: []models.User{ana, bo}}, "T")
	require.NoError(t, a.router.Navigate(context.Background(), "/"))

	require.NoError(t, a.Delete(context.Background(), "1"))
	assert.Equal(t, []models.User{bo}, a.users.Snapshot().Items)

	require.Error(t, a.Delete(context.Background(), "1"))
	assert.Contains(t, a.out.String(), "Error: user not found")
}

func TestRefresh_ShowsFetchError(t *testing.T) {
	api := &fakeAPI{listErr: &client.NetworkError{Op: "list users", Err: errors.New("refused")}}
	a := newTestApp(t, api, "T")

	require.NoError(t, a.Refresh(context.Background()))
	assert.Contains(t, a.out.String(), "Error: "+collection.FetchFailed)
}

func TestEdit_UserNotHeldLocallyIsLookedUp(t *testing.T) {
	api := &fakeAPI{users: []models.User{ana}}
	a := newTestApp(t, api, "T", "", "")

	require.NoError(t, a.Edit(context.Background(), "1"))
	assert.Contains(t, a.out.String(), "Enter name [Ana]")
	assert.Contains(t, a.out.String(), "Enter email [ana@x.io]")
	assert.Contains(t, a.out.String(), "Nothing to change")
	assert.Equal(t, models.UserInput{}, api.lastIn)
}

func TestEdit_UnknownUser(t *testing.T) {
	api := &fakeAPI{users: []models.User{ana}}
	a := newTestApp(t, api, "T", "", "")

	err := a.Edit(context.Background(), "404")
	require.ErrorIs(t, err, client.ErrNotFound)
	assert.Contains(t, a.out.String(), "User not found")
	assert.NotContains(t, a.out.String(), "Enter name")
	assert.NotContains(t, a.out.String(), "Nothing to change")
}
