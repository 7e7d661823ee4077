// Package cli is the interactive userdesk client.
//
// The REPL shows one of two views, selected by the router: the login view
// ("/login") and the users view ("/"). Entering the users view loads the
// collection from the server. A background watcher probes the server's
// health endpoint and shows online/offline in the prompt.
package cli
