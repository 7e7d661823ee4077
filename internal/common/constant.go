// Package common contains constants and sentinel errors shared by the
// userdesk client and server.
package common

const (
	// APIBasePath is the path prefix of every remote operation.
	APIBasePath = "/api"

	// AuthorizationHeader carries the bearer credential on outbound requests.
	AuthorizationHeader = "Authorization"

	// BearerPrefix precedes the token inside AuthorizationHeader.
	BearerPrefix = "Bearer "

	// TokenStorageKey is the well-known key the client persists its token under.
	TokenStorageKey = "auth_token"
)

// LastEmailKey remembers the e-mail of the last successful login so the CLI
// can offer it as the default.
const LastEmailKey = "last_email"
