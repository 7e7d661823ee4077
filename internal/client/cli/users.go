package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdesk/internal/client/client"
	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/dmitrijs2005/userdesk/internal/common"
)

// List prints the cached collection without contacting the server.
func (a *App) List(ctx context.Context) error {
	renderUsers(a.out, a.users.Snapshot())
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	a.users.FetchUsers(ctx)
	renderUsers(a.out, a.users.Snapshot())
	return nil
}

// Show fetches one user from the server.
func (a *App) Show(ctx context.Context, id string) error {
	u, err := a.api.GetUser(ctx, id)
	if err != nil {
		a.reportLookupError(err)
		return err
	}
	renderUser(a.out, *u)
	return nil
}

func (a *App) reportLookupError(err error) {
	switch {
	case errors.Is(err, client.ErrNotFound):
		fmt.Fprintln(a.out, "User not found")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}

// Add prompts for a new user's fields and creates it.
func (a *App) Add(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.users.AddUser(ctx, models.UserInput{Name: name, Email: email, Password: string(password)})
	if err != nil {
		renderError(a.out, a.users.Snapshot())
		return err
	}

	fmt.Fprintln(a.out, "User added")
	renderUsers(a.out, a.users.Snapshot())
	return nil
}

// Edit changes a user's name and e-mail. Empty answers keep the current
// value. A user missing from the local list is looked up on the server.
func (a *App) Edit(ctx context.Context, id string) error {
	current, ok := a.users.Find(id)
	if !ok {
		u, err := a.api.GetUser(ctx, id)
		if err != nil {
			a.reportLookupError(err)
			return err
		}
		current = *u
	}

	name, err := getTextWithDefault(a.reader, "Enter name", current.Name, a.out)
	if err != nil {
		return err
	}
	email, err := getTextWithDefault(a.reader, "Enter email", current.Email, a.out)
	if err != nil {
		return err
	}

	in := models.UserInput{}
	if name != current.Name {
		in.Name = name
	}
	if email != current.Email {
		in.Email = email
	}
	if in == (models.UserInput{}) {
		fmt.Fprintln(a.out, "Nothing to change")
		return nil
	}

	if err := a.users.UpdateUser(ctx, id, in); err != nil {
		renderError(a.out, a.users.Snapshot())
		return err
	}

	fmt.Fprintln(a.out, "User updated")
	renderUsers(a.out, a.users.Snapshot())
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.users.RemoveUser(ctx, id); err != nil {
		renderError(a.out, a.users.Snapshot())
		return err
	}

	fmt.Fprintln(a.out, "User removed")
	renderUsers(a.out, a.users.Snapshot())
	return nil
}
