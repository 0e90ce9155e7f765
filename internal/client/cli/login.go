package cli

import (
	"context"
	"os"
)

// Login prompts for credentials and exchanges them for a token pair.
// The server must be reachable; queued work is still accessible without it.
func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, email, string(password)); err != nil {
		printlnFn("Login failed:", err)
		return err
	}

	a.userEmail = email
	printlnFn("Logged in as", email)
	return nil
}

// Logout discards the stored token pair and the session state. Pending
// reports and cached reference data stay on disk.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err)
		return err
	}
	a.userEmail = ""
	a.projectID = ""
	printlnFn("Logged out")
	return nil
}
