package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"integralcli/internal/api"
	"integralcli/internal/catalog"
	"integralcli/internal/devtools"
	"integralcli/internal/graph"
	"integralcli/internal/state"
	"integralcli/internal/telemetry"
	"integralcli/internal/validate"
)

// ErrNotLoggedIn is returned by the one-shot commands that need a session.
var ErrNotLoggedIn = errors.New("not logged in; run `integral login` first")

// FormError carries every field error of a rejected form, in form order.
type FormError struct {
	Errs validate.Errors
}

func (e *FormError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, fe := range e.Errs {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// RequestError is a failed backend call. Its message is the same friendly
// text the TUI shows.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return api.FriendlyMessage(e.Err) }

func (e *RequestError) Unwrap() error { return e.Err }

// sessionError maps a rejected session to ErrNotLoggedIn.
func sessionError(err error) error {
	if err == nil {
		return nil
	}
	if api.IsUnauthorized(err) {
		return ErrNotLoggedIn
	}
	return &RequestError{Err: err}
}

// Client runs single requests against the backend outside the TUI. It shares
// the cookie store with the interactive client, so a login here carries over.
type Client struct {
	cfg     Config
	logger  EventLogger
	store   Store
	backend Backend
	catalog catalog.Catalog
	fake    *http.Server
}

func OpenClient(cfg Config) (*Client, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}
	logger, err := telemetry.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return nil, err
	}
	store, err := state.NewSQLite(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := store.EnsureSchema(context.Background()); err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	cat, err := catalog.Builtin()
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	var fake *http.Server
	if cfg.Fake {
		fake, cfg.APIURL, err = startFakeBackend(cat, devtools.NewManager())
		if err != nil {
			_ = store.Close()
			_ = logger.Close()
			return nil, err
		}
	}
	backend, err := api.New(api.Options{BaseURL: cfg.APIURL, Logger: logger})
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}
	c := NewClientWith(cfg, Deps{Logger: logger, Store: store, Backend: backend, Catalog: cat})
	c.fake = fake
	return c, nil
}

// NewClientWith builds a Client over existing collaborators and restores any
// remembered session. Deps.View is ignored.
func NewClientWith(cfg Config, deps Deps) *Client {
	c := &Client{cfg: cfg, logger: deps.Logger, store: deps.Store, backend: deps.Backend, catalog: deps.Catalog}
	cookies, err := c.store.LoadCookies(context.Background(), c.backend.BaseURL(), time.Now())
	if err != nil {
		c.logger.Error("cookies.load_failed", map[string]any{"error": err.Error()})
	} else {
		c.backend.SetCookies(cookies)
	}
	return c
}

func (c *Client) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if c.fake != nil {
		_ = c.fake.Shutdown(ctx)
	}
	_ = c.store.Close()
	_ = c.logger.Close()
}

func (c *Client) BaseURL() string { return c.backend.BaseURL() }

func (c *Client) Login(ctx context.Context, form validate.LoginForm) (*api.User, error) {
	if errs := validate.Login(form); !errs.Valid() {
		return nil, &FormError{Errs: errs}
	}
	resp, err := c.backend.Login(ctx, api.LoginRequest{Email: strings.TrimSpace(form.Email), Password: form.Password})
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	return c.finishAuth(ctx, resp)
}

func (c *Client) Signup(ctx context.Context, form validate.SignupForm) (*api.User, error) {
	if errs := validate.Signup(form); !errs.Valid() {
		return nil, &FormError{Errs: errs}
	}
	resp, err := c.backend.Signup(ctx, api.SignupRequest{
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Email:     strings.TrimSpace(form.Email),
		Password:  form.Password,
	})
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	return c.finishAuth(ctx, resp)
}

func (c *Client) finishAuth(ctx context.Context, resp *api.AuthResponse) (*api.User, error) {
	user := resp.User
	if user == nil {
		var err error
		if user, err = c.backend.Me(ctx); err != nil {
			return nil, &RequestError{Err: err}
		}
	}
	if err := c.store.SaveCookies(ctx, c.backend.BaseURL(), c.backend.Cookies()); err != nil {
		c.logger.Error("cookies.save_failed", map[string]any{"error": err.Error()})
	}
	c.logger.Info("auth.login", map[string]any{"user": user.ID, "via": "cli"})
	return user, nil
}

// Logout forgets the local session even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.backend.Logout(ctx)
	if cerr := c.store.ClearCookies(ctx, c.backend.BaseURL()); cerr != nil {
		c.logger.Error("cookies.clear_failed", map[string]any{"error": cerr.Error()})
	}
	return err
}

func (c *Client) WhoAmI(ctx context.Context) (*api.User, error) {
	ctx, cancel := context.WithTimeout(ctx, api.FixedTimeout)
	defer cancel()
	user, err := c.backend.Me(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	return user, nil
}

func (c *Client) History(ctx context.Context, page int) (*api.HistoryPage, error) {
	res, err := c.backend.History(ctx, page, historyPageSize)
	if err != nil {
		return nil, sessionError(err)
	}
	return res, nil
}

// HistoryLine is the one-line listing of a saved problem.
func (c *Client) HistoryLine(it api.HistoryItem) string {
	mode := catalog.ParseMode(it.SolverType)
	label := "Regular"
	if sm, ok := c.catalog.SolverMode(mode); ok {
		label = sm.Label
	}
	input := strings.ReplaceAll(displayFor(mode, it.Input), "\n", " / ")
	return fmt.Sprintf("%-6d %-10s %s = %s", it.ID, label, input, it.Solution)
}

// Solve validates values the way the solver screen does and returns the
// solution as markdown, with the graph block appended for polar areas.
func (c *Client) Solve(ctx context.Context, mode catalog.Mode, values map[string]string) (string, error) {
	if _, ok := c.catalog.SolverMode(mode); !ok {
		return "", errors.New(msgSelectSolver)
	}
	in, errs, blank := buildSolveInput(c.catalog, mode, values)
	switch {
	case blank != "":
		return "", errors.New(strings.TrimSpace(strings.TrimPrefix(blank, "⚠️")))
	case in.payload == "":
		return "", errors.New(msgIntegralBlank)
	case len(errs) > 0:
		field := firstErrorField(c.catalog, mode, errs)
		return "", fmt.Errorf("%s: %s", field, errs[field])
	}
	res, err := c.backend.Solve(ctx, api.SolveRequest{Integral: in.payload, SolverType: string(mode)})
	if err != nil {
		return "", sessionError(err)
	}
	md := solutionMarkdown(c.catalog, mode, res)
	if mode == catalog.ModePolar {
		md += "\n```\n" + strings.Join(graph.PolarRegion(in.inner, in.outer).Lines(), "\n") + "\n```\n"
	}
	return md, nil
}
