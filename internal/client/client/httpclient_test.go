package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

// recorded is what the fake server saw for the last request.
type recorded struct {
	method string
	path   string
	auth   string
	body   []byte
}

func newTestServer(t *testing.T, status int, respBody string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.auth = r.Header.Get("Authorization")
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newClient(t *testing.T, srv *httptest.Server, tokens TokenSource) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(srv.URL+"/api", tokens, 0)
	require.NoError(t, err)
	return c
}

func TestNewHTTPClient_RejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com/api", nil, 0)
	require.Error(t, err)

	_, err = NewHTTPClient("://nope", nil, 0)
	require.Error(t, err)
}

func TestLogin_SendsCredentialsWithoutBearer(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"token":"jwt-1"}`)
	c := newClient(t, srv, staticToken("stale"))

	tok, err := c.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", tok)

	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/login", rec.path)
	assert.Empty(t, rec.auth, "login must not carry a bearer token")
	assert.JSONEq(t, `{"email":"a@b.c","password":"secret123"}`, string(rec.body))
}

func TestLogin_Rejected(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"error":"invalid credentials"}`)
	c := newClient(t, srv, nil)

	_, err := c.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "x"})
	require.ErrorIs(t, err, ErrUnauthorized)

	msg, ok := ServerMessage(err)
	require.True(t, ok)
	assert.Equal(t, "invalid credentials", msg)
}

func TestLogin_EmptyToken(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{}`)
	c := newClient(t, srv, nil)

	_, err := c.Login(context.Background(), models.Credentials{})
	require.ErrorIs(t, err, ErrEmptyToken)
}

func TestListUsers_AttachesBearer(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[{"id":"1","name":"Ana","email":"ana@x.io"},{"id":"2","name":"Bo","email":"bo@x.io"}]`)
	c := newClient(t, srv, staticToken("tkn"))

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Ana", users[0].Name)
	assert.Equal(t, "2", users[1].ID)

	assert.Equal(t, "Bearer tkn", rec.auth)
	assert.Equal(t, "/api/users", rec.path)
}

func TestListUsers_NoTokenNoHeader(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `[]`)
	c := newClient(t, srv, staticToken(""))

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.Empty(t, rec.auth)
}

func TestListUsers_NullBodyIsEmptySlice(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `null`)
	c := newClient(t, srv, nil)

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.NotNil(t, users)
	assert.Empty(t, users)
}

func TestTokenIsReadPerRequest(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	src := &mutableToken{}
	c, err := NewHTTPClient(srv.URL+"/api", src, 0)
	require.NoError(t, err)

	_, err = c.ListUsers(context.Background())
	require.NoError(t, err)
	src.v = "new"
	_, err = c.ListUsers(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer new"}, seen)
}

type mutableToken struct{ v string }

func (m *mutableToken) Token() string { return m.v }

func TestGetUser(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"id":"42","name":"Cy","email":"cy@x.io"}`)
	c := newClient(t, srv, staticToken("t"))

	u, err := c.GetUser(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "42", Name: "Cy", Email: "cy@x.io"}, u)
	assert.Equal(t, "/api/users/42", rec.path)
}

func TestGetUser_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusNotFound, `{"error":"user not found"}`)
	c := newClient(t, srv, staticToken("t"))

	_, err := c.GetUser(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "user not found", apiErr.Message)
}

func TestCreateUser_Echo(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusCreated, `{"id":"9","name":"Di","email":"di@x.io"}`)
	c := newClient(t, srv, staticToken("t"))

	u, err := c.CreateUser(context.Background(), models.UserInput{Name: "Di", Email: "di@x.io", Password: "longenough"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "9", u.ID)

	assert.Equal(t, http.MethodPost, rec.method)
	var sent map[string]string
	require.NoError(t, json.Unmarshal(rec.body, &sent))
	assert.Equal(t, "longenough", sent["password"])
}

func TestCreateUser_EchoNumericIDKeepsAttributes(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusCreated, `{"id":7,"name":"Ana","role":"admin"}`)
	c := newClient(t, srv, staticToken("t"))

	u, err := c.CreateUser(context.Background(), models.UserInput{Name: "Ana"})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "7", u.ID)
	assert.JSONEq(t, `"admin"`, string(u.Extra["role"]))
}

func TestCreateUser_NoEcho(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":   ``,
		"ack message":  `{"message":"created"}`,
		"only spacing": "  \n",
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newTestServer(t, http.StatusCreated, body)
			c := newClient(t, srv, staticToken("t"))

			u, err := c.CreateUser(context.Background(), models.UserInput{Name: "Di"})
			require.NoError(t, err)
			assert.Nil(t, u)
		})
	}
}

func TestCreateUser_ValidationError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, `{"error":"email already registered"}`)
	c := newClient(t, srv, staticToken("t"))

	_, err := c.CreateUser(context.Background(), models.UserInput{Name: "Di"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "email already registered", apiErr.Message)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}

func TestUpdateUser(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"id":"5","name":"Ed","email":"ed@x.io"}`)
	c := newClient(t, srv, staticToken("t"))

	u, err := c.UpdateUser(context.Background(), "5", models.UserInput{Name: "Ed"})
	require.NoError(t, err)
	assert.Equal(t, "Ed", u.Name)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/users/5", rec.path)
	assert.JSONEq(t, `{"name":"Ed"}`, string(rec.body))
}

func TestDeleteUser(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"message":"user removed"}`)
	c := newClient(t, srv, staticToken("t"))

	require.NoError(t, c.DeleteUser(context.Background(), "5"))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "Bearer t", rec.auth)
}

func TestDeleteUser_Unauthorized_NoMessage(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusForbidden, `not json`)
	c := newClient(t, srv, staticToken("t"))

	err := c.DeleteUser(context.Background(), "5")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, ok := ServerMessage(err)
	assert.False(t, ok)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url+"/api", nil, time.Second)
	require.NoError(t, err)

	_, err = c.ListUsers(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "list users", netErr.Op)
}

func TestCanceledContextIsVisible(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)
	c := newClient(t, srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListUsers(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAPIError_Message(t *testing.T) {
	e := &APIError{Op: "get user", Status: 404, Message: "user not found"}
	assert.Equal(t, "get user: 404 Not Found: user not found", e.Error())

	e = &APIError{Op: "get user", Status: 500}
	assert.Equal(t, "get user: 500 Internal Server Error", e.Error())
}
