package testinfra

import (
	"context"
	"formflow/authority"
	"formflow/session"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/fundwit/go-commons/types"
)

// BuildSession build session with given identity and capabilities
func BuildSession(uid types.ID, perms ...string) *session.Session {
	if perms == nil {
		perms = []string{}
	}
	return &session.Session{
		Context:  context.Background(),
		Token:    "test-token-" + uid.String(),
		Identity: session.Identity{ID: uid, Name: "user" + uid.String()},
		Perms:    authority.Permissions(perms),
	}
}

func ExecuteRequest(req *http.Request, handler http.Handler) (int, string, *http.Response) {
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, string(body), resp
}
