// Package client is the HTTP adapter between the userdesk state containers
// and the remote /api server.
//
// # Overview
//
// Client describes one method per remote capability: Login, ListUsers,
// GetUser, CreateUser, UpdateUser and DeleteUser. HTTPClient implements it
// over net/http. Its transport reads the current token from a TokenSource
// right before each request is sent and attaches it as a bearer credential;
// login requests are sent without it. A missing token is not an error here,
// the server decides what an anonymous request may do.
//
// # Error Handling
//
// Failures come back as one of two typed errors:
//
//   - *NetworkError: the request never produced a response. Matches
//     ErrUnavailable.
//   - *APIError: the server answered with a non-2xx status. Message holds the
//     server's {"error": "..."} text when there was one. 401/403 match
//     ErrUnauthorized and 404 matches ErrNotFound.
//
// Nothing is retried, and no timeout is applied beyond the one configured on
// the underlying http.Client.
package client
