package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/vtx/internal/pipeline"
	"github.com/desertthunder/vtx/internal/store"
)

// newTestServices starts handler and returns services wired through a real pipeline
// holding the token "test-token".
func newTestServices(t *testing.T, handler http.HandlerFunc) (*Services, *store.Store, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	st := store.NewMemory()
	if err := st.SetToken(context.Background(), "test-token"); err != nil {
		t.Fatalf("failed to seed token: %v", err)
	}

	p := pipeline.New(st, pipeline.Options{BaseURL: server.URL, Client: server.Client()})
	return New(p, server.URL), st, server
}

func writeEnvelope(w http.ResponseWriter, status int, data string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"statusCode":%d,"data":%s,"message":"ok","success":true}`, status, data)
}
