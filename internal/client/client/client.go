package client

import (
	"context"

	"github.com/dmitrijs2005/userdesk/internal/client/models"
)

// Client is the typed surface of the remote API.
//
// CreateUser and UpdateUser return a nil user without error when the server
// accepted the change but did not echo the entity back.
type Client interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	CreateUser(ctx context.Context, in models.UserInput) (*models.User, error)
	UpdateUser(ctx context.Context, id string, in models.UserInput) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TokenSource yields the bearer token to attach to the next request.
// An empty string means "send no credential".
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }
