package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/vtx/internal/shared"
)

// ProxyPrefix is the path space forwarded to the backend.
const ProxyPrefix = "/api/v1/"

// ProxyHandler forwards [ProxyPrefix] to the backend origin unchanged.
type ProxyHandler struct {
	target *url.URL
	proxy  *httputil.ReverseProxy
	logger *log.Logger
}

// NewProxyHandler creates a proxy to backend, an absolute http(s) origin.
func NewProxyHandler(backend string, logger *log.Logger) (*ProxyHandler, error) {
	target, err := url.Parse(backend)
	if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, fmt.Errorf("%w: proxy target %q", shared.ErrInvalidConfig, backend)
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	h := &ProxyHandler{target: target, logger: logger}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: h.proxyError,
	}
	return h, nil
}

// Routes returns the HTTP routes this handler serves.
func (h *ProxyHandler) Routes() []string {
	return []string{ProxyPrefix}
}

// Target is the backend origin.
func (h *ProxyHandler) Target() *url.URL { return h.target }

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.proxy.ServeHTTP(w, r)
}

func (h *ProxyHandler) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("backend unreachable", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusBadGateway, map[string]any{
		"statusCode": http.StatusBadGateway,
		"message":    "backend unavailable",
		"success":    false,
	})
}
