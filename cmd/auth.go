package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/server"
	"github.com/desertthunder/vtx/internal/services"
	"github.com/desertthunder/vtx/internal/session"
	"github.com/desertthunder/vtx/internal/shared"
)

const defaultOAuthTimeout = 5 * time.Minute

// openBrowser is swapped out by tests.
var openBrowser = shared.OpenBrowser

// AuthLogin signs in with a password and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := services.Credentials{
		Email:    strings.TrimSpace(cmd.String("email")),
		Username: strings.ToLower(strings.TrimSpace(cmd.String("username"))),
		Password: cmd.String("password"),
	}
	if creds.Email == "" && creds.Username == "" {
		return fmt.Errorf("%w: --email or --username", shared.ErrMissingArgument)
	}
	if creds.Password == "" {
		return fmt.Errorf("%w: --password", shared.ErrMissingArgument)
	}

	r.logger.Info("signing in", "email", creds.Email, "username", creds.Username)

	result, err := r.services.Users.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if err := r.session.CompleteLogin(ctx, result.Credential(), result.RefreshToken, result.User); err != nil {
		return err
	}

	return r.writePlain("✓ Signed in as %s\n", r.session.User().DisplayName())
}

// AuthRegister creates an account, signing in when the backend returns a session.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := services.Registration{
		FullName: cmd.String("full-name"),
		Email:    cmd.String("email"),
		Username: cmd.String("username"),
		Password: cmd.String("password"),
		Avatar:   &services.FormFile{Path: cmd.String("avatar")},
	}
	if reg.Password == "" {
		return fmt.Errorf("%w: --password", shared.ErrMissingArgument)
	}
	if cover := cmd.String("cover"); cover != "" {
		reg.CoverImage = &services.FormFile{Path: cover}
	}

	result, err := r.services.Users.Register(ctx, reg)
	if err != nil {
		return err
	}

	if result.Credential() != "" {
		if err := r.session.CompleteLogin(ctx, result.Credential(), result.RefreshToken, result.User); err != nil {
			return err
		}
		return r.writePlain("✓ Account created, signed in as %s\n", r.session.User().DisplayName())
	}

	r.writePlain("✓ Account created for %s\n", reg.Email)
	if result.User != nil && result.User.ID != "" {
		r.writePlainln("Next steps:")
		r.writePlain("1. Check your email for a one-time code\n")
		r.writePlain("2. Run 'vtx auth verify-otp --user-id %s --otp <code>'\n", result.User.ID)
		return r.writePlain("3. Run 'vtx auth login --email %s'\n", reg.Email)
	}
	return nil
}

// AuthGoogle runs the browser sign-in against a local callback server.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = defaultOAuthTimeout
	}

	logger := shared.WithLogger(r.logger, "component", "oauth")
	handler := server.NewOAuthHandler(logger)
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(logger))
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	running, err := server.Listen(addr, router, logger)
	if err != nil {
		return err
	}
	defer running.Shutdown(context.WithoutCancel(ctx))

	authURL := r.services.Users.GoogleAuthURL(r.config.Server.CallbackURL())
	r.writePlain("Open this URL to sign in with Google:\n\n  %s\n\n", authURL)
	if !cmd.Bool("no-browser") {
		if err := openBrowser(authURL); err != nil {
			r.logger.Warn("could not open browser", "error", err)
		}
	}
	r.writePlain("Waiting for the sign-in to complete...\n")

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-running.Err():
		if err == nil {
			err = fmt.Errorf("callback server stopped")
		}
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	case <-time.After(timeout):
		return fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := result.Error(); err != nil {
		return err
	}
	if err := r.session.CompleteLogin(ctx, result.Token.AccessToken, result.Token.RefreshToken, result.User); err != nil {
		return err
	}

	// The token carries a partial profile; replace it with the full one when reachable.
	if user, err := r.services.Users.CurrentUser(ctx); err == nil && user.ID != "" {
		if err := r.session.SetUser(ctx, user); err != nil {
			r.logger.Warn("failed to cache profile", "error", err)
		}
	} else if err != nil {
		r.logger.Debug("profile refresh failed", "error", err)
	}

	return r.writePlain("✓ Signed in as %s\n", r.session.User().DisplayName())
}

// AuthLogout ends the session. It succeeds when already signed out.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	hadSession := r.store.Token(ctx) != ""
	if err := r.session.Logout(ctx); err != nil {
		return err
	}
	if !hadSession {
		return r.writePlain("Already signed out\n")
	}
	return r.writePlain("✓ Signed out\n")
}

type authStatus struct {
	State        string       `json:"state"`
	User         *models.User `json:"user,omitempty"`
	Token        string       `json:"token,omitempty"`
	RefreshToken bool         `json:"refreshToken"`
	Persistent   bool         `json:"persistent"`
	Backend      string       `json:"backend"`
}

// AuthStatus resolves the session and reports it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	snap := r.session.Init(ctx, session.HomeRoute)

	status := authStatus{
		State:        snap.State.String(),
		User:         snap.User,
		RefreshToken: r.store.RefreshToken(ctx) != "",
		Persistent:   r.db != nil,
		Backend:      r.config.API.BaseURL,
	}
	if token := r.store.Token(ctx); token != "" {
		status.Token = shared.MaskToken(token)
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Session")
	r.writePlain("Backend:  %s\n", status.Backend)
	r.writePlain("State:    %s\n", status.State)
	if snap.User != nil {
		r.writePlain("User:     %s (%s)\n", snap.User.Username, snap.User.Email)
		if snap.User.IsAdmin() {
			r.writePlain("Role:     admin\n")
		}
	}
	if status.Token != "" {
		r.writePlain("Token:    %s\n", status.Token)
	}
	if !status.Persistent {
		r.writePlain("Store:    in-memory (sign-in will not persist)\n")
	}
	return nil
}

// AuthWhoami fetches the signed-in account.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	user, err := r.requireUser(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", user.DisplayName())
	r.writePlain("  id:       %s\n", user.ID)
	r.writePlain("  username: %s\n", user.Username)
	r.writePlain("  email:    %s\n", user.Email)
	if user.Role != "" {
		r.writePlain("  role:     %s\n", user.Role)
	}
	return nil
}

// AuthPassword changes the account password.
func (r *Runner) AuthPassword(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.requireUser(ctx); err != nil {
		return err
	}
	if err := r.services.Users.ChangePassword(ctx, cmd.String("old"), cmd.String("new")); err != nil {
		return err
	}
	return r.writePlain("✓ Password changed\n")
}

// AuthVerifyOTP confirms the registration code.
func (r *Runner) AuthVerifyOTP(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user-id")
	if userID == "" {
		user, err := r.requireUser(ctx)
		if err != nil {
			return fmt.Errorf("%w: --user-id", shared.ErrMissingArgument)
		}
		userID = user.ID
	}

	if err := r.services.Users.VerifyOTP(ctx, userID, cmd.String("otp")); err != nil {
		return err
	}
	return r.writePlain("✓ Account verified\n")
}
