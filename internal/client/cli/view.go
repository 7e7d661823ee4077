package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/userdesk/internal/client/collection"
	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/dmitrijs2005/userdesk/internal/client/router"
)

// enterUsers is the users view: it loads the collection and prints it.
func (a *App) enterUsers(ctx context.Context, _ router.Route) error {
	fmt.Fprintln(a.out, "== Users ==")
	if exp, err := a.session.ExpiresAt(); err == nil {
		fmt.Fprintf(a.out, "Session valid until %s\n", exp.Local().Format(time.RFC1123))
	}

	a.users.FetchUsers(ctx)
	renderUsers(a.out, a.users.Snapshot())
	return nil
}

func (a *App) enterLogin(_ context.Context, _ router.Route) error {
	fmt.Fprintln(a.out, "== Login ==")
	if msg := a.session.LastError(); msg != "" {
		fmt.Fprintln(a.out, msg)
	}
	fmt.Fprintln(a.out, "Type 'login' to sign in")
	return nil
}

func renderError(w io.Writer, s collection.State) {
	if s.Error != "" {
		fmt.Fprintln(w, "Error:", s.Error)
	}
}

func renderUsers(w io.Writer, s collection.State) {
	renderError(w, s)
	if len(s.Items) == 0 {
		fmt.Fprintln(w, "No users")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, u := range s.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	_ = tw.Flush()
}

func renderUser(w io.Writer, u models.User) {
	fmt.Fprintf(w, "ID:      %s\n", u.ID)
	fmt.Fprintf(w, "Name:    %s\n", u.Name)
	fmt.Fprintf(w, "Email:   %s\n", u.Email)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Created: %s\n", u.CreatedAt.Local().Format(time.RFC1123))
	}
	if !u.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated: %s\n", u.UpdatedAt.Local().Format(time.RFC1123))
	}
	for _, k := range slices.Sorted(maps.Keys(u.Extra)) {
		fmt.Fprintf(w, "%s: %s\n", k, u.Extra[k])
	}
}

// loadingIndicator prints "Loading..." when the collection starts working.
type loadingIndicator struct {
	w       io.Writer
	mu      sync.Mutex
	loading bool
}

func newLoadingIndicator(w io.Writer) *loadingIndicator {
	return &loadingIndicator{w: w}
}

func (l *loadingIndicator) observe(s collection.State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s.Loading && !l.loading {
		fmt.Fprintln(l.w, "Loading...")
	}
	l.loading = s.Loading
}
