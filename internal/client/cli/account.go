package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/questboard/internal/api"
	"github.com/dmitrijs2005/questboard/internal/client/client"
	"github.com/dmitrijs2005/questboard/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/questboard/internal/models"
	"github.com/dmitrijs2005/questboard/internal/session"
)

func (a *App) register(ctx context.Context, _ []string) error {
	var r models.Registration
	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &r.FirstName},
		{"Last name", &r.LastName},
		{"Birthday (YYYY-MM-DD)", &r.Birthday},
		{"Phone number (11 digits)", &r.PhoneNumber},
		{"Email (@" + a.config.EmailDomain + ")", &r.Email},
	}
	for _, f := range fields {
		v, err := a.ask(f.prompt)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	var err error
	if r.Password, err = a.password("Password"); err != nil {
		return err
	}
	if r.ConfirmPassword, err = a.password("Confirm password"); err != nil {
		return err
	}

	if err := r.Validate(a.config.EmailDomain, a.now()); err != nil {
		return err
	}

	rctx, cancel := a.rpc(ctx)
	defer cancel()
	if _, err := a.qb.Register(rctx, r); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account created.")

	return a.signIn(ctx, r.Email, r.Password)
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	if a.me().SignedIn() {
		fmt.Fprintf(a.out, "Already signed in as %s, log out first.\n", a.me().DisplayName)
		return nil
	}

	var email string
	if len(args) == 1 {
		email = args[0]
	} else {
		var err error
		if email, err = a.ask("Email"); err != nil {
			return err
		}
	}
	password, err := a.password("Password")
	if err != nil {
		return err
	}
	return a.signIn(ctx, email, password)
}

func (a *App) signIn(ctx context.Context, email, password string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()

	t, err := a.qb.Login(rctx, email, password)
	if err != nil {
		return err
	}
	return a.establish(rctx, t, "")
}

// establish loads the profile behind t, saves the session locally and
// signs in. fallbackName is shown when the profile cannot be read.
func (a *App) establish(ctx context.Context, t api.Tokens, fallbackName string) error {
	name := fallbackName
	p, err := a.qb.GetProfile(ctx, t.UserID)
	switch {
	case err == nil:
		name = p.DisplayName()
	case name == "":
		return err
	}

	if err := a.sessions.Save(ctx, sessions.Saved{
		UserID:       t.UserID,
		DisplayName:  name,
		RefreshToken: t.RefreshToken,
	}); err != nil {
		fmt.Fprintf(a.out, "warning: could not save session: %v\n", err)
	}
	a.session.SignIn(session.Identity{UserID: t.UserID, DisplayName: name})
	return nil
}

// resume signs in with the refresh token saved by a previous run. A token
// the server no longer accepts is forgotten; an unreachable server leaves
// it in place for the next start.
func (a *App) resume(ctx context.Context) {
	lctx, cancel := a.rpc(ctx)
	defer cancel()

	saved, ok, err := a.sessions.Load(lctx)
	if err != nil {
		fmt.Fprintf(a.out, "Could not read saved session: %v\n", err)
		return
	}
	if !ok {
		return
	}

	t, err := a.qb.Resume(lctx, saved.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Saved session has expired, please log in.")
			a.forget(ctx)
			return
		}
		fmt.Fprintf(a.out, "Could not resume session: %v\n", err)
		return
	}
	if err := a.establish(lctx, t, saved.DisplayName); err != nil {
		fmt.Fprintf(a.out, "Could not resume session: %v\n", err)
	}
}

func (a *App) logout(ctx context.Context, _ []string) error {
	rctx, cancel := a.rpc(ctx)
	defer cancel()
	if err := a.qb.Logout(rctx); err != nil {
		fmt.Fprintf(a.out, "warning: server logout failed: %v\n", err)
	}
	a.forget(ctx)
	return nil
}

// forget drops the local session.
func (a *App) forget(ctx context.Context) {
	cctx, cancel := a.rpc(ctx)
	defer cancel()
	if err := a.sessions.Clear(cctx); err != nil {
		fmt.Fprintf(a.out, "warning: could not clear saved session: %v\n", err)
	}
	clear(a.drafts)
	a.session.SignOut()
}

func (a *App) whoami(_ context.Context, _ []string) error {
	id := a.me()
	if !id.SignedIn() {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", id.DisplayName, id.UserID)
	return nil
}
