package devtools

import (
	"context"
	"net/http"
)

type Demo interface {
	Resolve(name string) Scenario
	SetState(ctx context.Context, cacheDir string, state string, rendered bool) error
	Seed(b *FakeBackend)
}

// Backend is what `integral serve-fake` and the tests need from a fake server.
type Backend interface {
	Handler() http.Handler
	AddUser(first, last, email, password string) int64
	IssueResetToken(email string) string
	Calls(method, path string) int
}
