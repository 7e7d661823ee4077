package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userdesk/internal/client/models"
	"github.com/dmitrijs2005/userdesk/internal/client/task"
	"github.com/dmitrijs2005/userdesk/internal/common"
)

// getSimpleText, getTextWithDefault and getPassword are indirections used to
// facilitate testing.
var (
	getSimpleText      = GetSimpleText
	getTextWithDefault = GetTextWithDefault
	getPassword        = GetPassword
)

// Login prompts for credentials and logs in. On success the session
// navigates to the users view. The e-mail of the last successful login is
// offered as the default.
func (a *App) Login(ctx context.Context) error {
	last := a.lastEmail(ctx)

	email, err := getTextWithDefault(a.reader, "Enter email", last, a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.session.Login(ctx, models.Credentials{Email: email, Password: string(password)})
	if errors.Is(err, task.ErrSuperseded) {
		return err
	}
	if err != nil {
		fmt.Fprintln(a.out, a.session.LastError())
		return err
	}

	if email != last {
		if err := a.meta.Set(ctx, common.LastEmailKey, email); err != nil {
			a.log.Warn(ctx, "last email not saved", "error", err)
		}
	}
	return nil
}

func (a *App) lastEmail(ctx context.Context) string {
	v, _, err := a.meta.Get(ctx, common.LastEmailKey)
	if err != nil {
		a.log.Warn(ctx, "last email not loaded", "error", err)
	}
	return v
}

// Logout forgets the token and the cached users and returns to the login
// view.
func (a *App) Logout(ctx context.Context) error {
	a.users.Reset()
	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, "Warning:", err)
		return err
	}
	return nil
}
