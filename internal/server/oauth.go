package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/desertthunder/vtx/internal/models"
	"github.com/desertthunder/vtx/internal/shared"
)

// CallbackPath is where the backend redirects after Google sign-in.
const CallbackPath = "/auth/callback"

// OAuthResult contains the result of an OAuth sign-in.
type OAuthResult struct {
	Token *oauth2.Token
	User  *models.User
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// profileClaims are the profile fields the backend signs into its access tokens.
type profileClaims struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// ProfileFromToken reads the profile claims of an access token without verifying the
// signature. The backend issued and verified the token before redirecting.
func ProfileFromToken(accessToken string) (*models.User, *oauth2.Token, error) {
	var claims profileClaims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil {
		return nil, nil, fmt.Errorf("%w: malformed access token: %v", shared.ErrAuthFailed, err)
	}

	if claims.ID == "" {
		return nil, nil, fmt.Errorf("%w: access token carries no user id", shared.ErrAuthFailed)
	}

	token := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	if claims.ExpiresAt != nil {
		token.Expiry = claims.ExpiresAt.Time
	}

	user := &models.User{
		ID:       claims.ID,
		Email:    claims.Email,
		Username: claims.Username,
		FullName: claims.FullName,
	}
	return user, token, nil
}

// OAuthHandler handles the sign-in redirect.
//
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	logger      *log.Logger
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a callback handler.
func NewOAuthHandler(logger *log.Logger) *OAuthHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &OAuthHandler{
		logger:     logger,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{CallbackPath}
}

// ServeHTTP reads accessToken, refreshToken and error from the query and sends the
// result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.fail(w, fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam))
		return
	}

	accessToken := q.Get("accessToken")
	if accessToken == "" {
		h.fail(w, fmt.Errorf("%w: no access token received", shared.ErrAuthFailed))
		return
	}

	user, token, err := ProfileFromToken(accessToken)
	if err != nil {
		h.fail(w, err)
		return
	}
	token.RefreshToken = q.Get("refreshToken")

	h.logger.Info("sign-in callback received", "user", user.Username, "token", shared.MaskToken(accessToken))
	h.Send(OAuthResult{Token: token, User: user})
	h.render(w, http.StatusOK, callbackPage{Title: "Signed in", Message: "You can close this window and return to the terminal.", OK: true})
}

func (h *OAuthHandler) fail(w http.ResponseWriter, err error) {
	h.logger.Warn("sign-in callback failed", "error", err)
	h.Send(OAuthResult{err: err})
	h.render(w, http.StatusBadRequest, callbackPage{Title: "Authentication failed", Message: "Return to the terminal and try again."})
}

type callbackPage struct {
	Title   string
	Message string
	OK      bool
}

var callbackTemplate = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #0f0a1e; }
        .container { text-align: center; background: #1b1535; padding: 2rem; border-radius: 8px; }
        h1 { margin: 0 0 1rem 0; color: {{if .OK}}#22c55e{{else}}#ef4444{{end}}; }
        p { color: #9ca3af; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{if .OK}}✓{{else}}✗{{end}} {{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func (h *OAuthHandler) render(w http.ResponseWriter, status int, page callbackPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := callbackTemplate.Execute(w, page); err != nil {
		h.logger.Error("failed to render callback page", "error", err)
	}
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
