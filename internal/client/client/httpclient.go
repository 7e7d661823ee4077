package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/dmitrijs2005/userdesk/internal/common"
	"github.com/hashicorp/go-cleanhttp"
)

const maxResponseBody = 4 << 20

type ctxKey string

const skipTokenKey ctxKey = "skip_token"

// withoutToken marks ctx so the bearer transport leaves the request alone.
func withoutToken(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipTokenKey, true)
}

// bearerTransport attaches the current token to every outgoing request
// unless the request context opted out.
type bearerTransport struct {
	next   http.RoundTripper
	tokens TokenSource
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if skip, _ := req.Context().Value(skipTokenKey).(bool); skip || t.tokens == nil {
		return t.next.RoundTrip(req)
	}

	token := t.tokens.Token()
	if token == "" {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	return t.next.RoundTrip(req)
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for the API rooted at baseURL
// (e.g. "http://127.0.0.1:8080/api"). timeout of zero leaves requests
// bounded only by their context.
func NewHTTPClient(baseURL string, tokens TokenSource, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = timeout
	hc.Transport = &bearerTransport{next: hc.Transport, tokens: tokens}

	return &HTTPClient{baseURL: strings.TrimRight(u.String(), "/"), http: hc}, nil
}

func (c *HTTPClient) Login(ctx context.Context, creds models.Credentials) (string, error) {
	body, err := c.do(withoutToken(ctx), "login", http.MethodPost, "/login", creds)
	if err != nil {
		return "", err
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := decode(body, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: %w", ErrEmptyToken)
	}
	return resp.Token, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.User, error) {
	body, err := c.do(ctx, "list users", http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}

	users := []models.User{}
	if err := decode(body, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, id string) (*models.User, error) {
	body, err := c.do(ctx, "get user", http.MethodGet, userPath(id), nil)
	if err != nil {
		return nil, err
	}

	u, err := decodeEcho(body)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("get user: empty response")
	}
	return u, nil
}

func (c *HTTPClient) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	body, err := c.do(ctx, "create user", http.MethodPost, "/users", in)
	if err != nil {
		return nil, err
	}

	u, err := decodeEcho(body)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (c *HTTPClient) UpdateUser(ctx context.Context, id string, in models.UserInput) (*models.User, error) {
	body, err := c.do(ctx, "update user", http.MethodPut, userPath(id), in)
	if err != nil {
		return nil, err
	}

	u, err := decodeEcho(body)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete user", http.MethodDelete, userPath(id), nil)
	return err
}

func userPath(id string) string {
	return "/users/" + url.PathEscape(id)
}

// do sends one request and returns the raw response body of a 2xx answer.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

// errorMessage extracts the "error" field of a JSON error body.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error
}

func decode(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("empty response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeEcho decodes a user returned by a mutation. An empty body, or an
// object without an id, is "no echo" and yields nil.
func decodeEcho(body []byte) (*models.User, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}
