package services

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/vtx/internal/models"
)

// UserService covers the users/* endpoints.
type UserService struct {
	c *client
}

// Credentials identify an account at login. Either Email or Username is required.
type Credentials struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

// LoginResult is the payload of a successful login. The backend names the access
// token either accessToken or token.
type LoginResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
}

// Credential returns whichever access token field was populated.
func (r *LoginResult) Credential() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// TokenPair is the payload of the refresh endpoint.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Registration is the sign-up form.
type Registration struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *FormFile
	CoverImage *FormFile
}

// AccountUpdate changes profile fields. Empty fields are left out.
type AccountUpdate struct {
	FullName    string `json:"fullName,omitempty"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
}

// Login exchanges credentials for a session.
func (s *UserService) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var result LoginResult
	if err := s.c.sendJSON(ctx, http.MethodPost, endpoint("users", "login"), creds, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account. Some deployments log the new user in directly, in
// which case the result carries tokens; otherwise only User is set.
func (s *UserService) Register(ctx context.Context, reg Registration) (*LoginResult, error) {
	if reg.Avatar != nil && reg.Avatar.Field == "" {
		reg.Avatar.Field = "avatar"
	}
	if reg.CoverImage != nil && reg.CoverImage.Field == "" {
		reg.CoverImage.Field = "coverImage"
	}

	form := NewForm().
		Field("fullName", reg.FullName).
		Field("email", reg.Email).
		Field("username", strings.ToLower(reg.Username)).
		Field("password", reg.Password).
		File(reg.Avatar).
		File(reg.CoverImage)

	var raw struct {
		LoginResult
		models.User
	}
	if err := s.c.sendForm(ctx, http.MethodPost, endpoint("users", "register"), form, &raw); err != nil {
		return nil, err
	}

	result := raw.LoginResult
	if result.User == nil && raw.User.ID != "" {
		u := raw.User
		result.User = &u
	}
	return &result, nil
}

// Logout ends the session on the backend.
func (s *UserService) Logout(ctx context.Context) error {
	return s.c.doRequest(ctx, jsonless(http.MethodPost, endpoint("users", "logout")), nil)
}

// RefreshToken asks for a new access token. The pipeline refreshes on its own; this
// is exposed for explicit use.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair TokenPair
	body := map[string]string{}
	if refreshToken != "" {
		body["refreshToken"] = refreshToken
	}
	if err := s.c.sendJSON(ctx, http.MethodPost, endpoint("users", "refresh-token"), body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// CurrentUser returns the account behind the stored credential.
func (s *UserService) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.c.get(ctx, endpoint("users", "current-user"), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChannelProfile returns a public channel with one page of its uploads.
func (s *UserService) ChannelProfile(ctx context.Context, username string, q models.PageQuery) (*models.Channel, error) {
	var channel models.Channel
	if err := s.c.get(ctx, endpoint("users", "c", username), pageQuery(q, 10), &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// UpdateAccount patches profile fields.
func (s *UserService) UpdateAccount(ctx context.Context, update AccountUpdate) (*models.User, error) {
	var user models.User
	if err := s.c.sendJSON(ctx, http.MethodPatch, endpoint("users", "update-account"), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateAvatar replaces the avatar image.
func (s *UserService) UpdateAvatar(ctx context.Context, file FormFile) (*models.User, error) {
	return s.updateImage(ctx, "avatar", "avatar", file)
}

// UpdateCoverImage replaces the channel cover image.
func (s *UserService) UpdateCoverImage(ctx context.Context, file FormFile) (*models.User, error) {
	return s.updateImage(ctx, "cover-image", "coverImage", file)
}

func (s *UserService) updateImage(ctx context.Context, path, field string, file FormFile) (*models.User, error) {
	if file.Field == "" {
		file.Field = field
	}

	var user models.User
	if err := s.c.sendForm(ctx, http.MethodPatch, endpoint("users", path), NewForm().File(&file), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword replaces the account password.
func (s *UserService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return s.c.sendJSON(ctx, http.MethodPost, endpoint("users", "change-password"), body, nil)
}

// VerifyOTP confirms the one-time code mailed after registration.
func (s *UserService) VerifyOTP(ctx context.Context, userID, otp string) error {
	body := map[string]string{"userId": userID, "otp": strings.TrimSpace(otp)}
	return s.c.sendJSON(ctx, http.MethodPost, endpoint("users", "verify-otp"), body, nil)
}

// GoogleAuthURL is the browser entry point of the Google OAuth flow. The backend
// redirects to redirectURI with accessToken and refreshToken query parameters.
func (s *UserService) GoogleAuthURL(redirectURI string) string {
	u := strings.TrimRight(s.c.baseURL, "/") + endpoint("users", "auth", "google")
	if redirectURI == "" {
		return u
	}
	return u + "?" + url.Values{"redirect": {redirectURI}}.Encode()
}
