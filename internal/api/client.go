// Package api is the HTTP client for the integral solver backend. Sessions
// ride entirely on cookies; no bearer token is ever attached.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"integralcli/internal/catalog"

	"github.com/sony/gobreaker"
	"golang.org/x/net/publicsuffix"
)

// FixedTimeout bounds the login, signup and forgot-password requests. Every
// other request runs until it completes or the caller's context ends.
const FixedTimeout = 10 * time.Second

const maxBodyBytes = 4 << 20

type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Options struct {
	BaseURL   string
	Transport http.RoundTripper
	Jar       http.CookieJar
	Logger    Logger
	// BreakerFailures is the number of consecutive transport failures that
	// open the breaker. Zero means 5.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type Client struct {
	base    *url.URL
	http    *http.Client
	jar     *sessionJar
	breaker *gobreaker.CircuitBreaker
	logger  Logger
}

func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("api: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", base.Scheme)
	}
	jar := opts.Jar
	if jar == nil {
		jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := opts.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 15 * time.Second
	}
	sj := newSessionJar(jar)
	c := &Client{
		base:   base,
		http:   &http.Client{Transport: opts.Transport, Jar: sj},
		jar:    sj,
		logger: opts.Logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Only the transport counts against the breaker; a cancelled
			// request says nothing about the server.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logInfo("api.breaker", map[string]any{"name": name, "from": from.String(), "to": to.String()})
		},
	})
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

// Cookies returns the session cookies currently held for the backend, with
// the expiry and flags the server set on them.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.attributed(c.base)
}

func (c *Client) SetCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	c.http.Jar.SetCookies(c.base, cookies)
}

// OAuthURL is the browser entry point for a third-party sign in.
func (c *Client) OAuthURL(provider string) string {
	return c.resolve("/login/" + url.PathEscape(strings.ToLower(strings.TrimSpace(provider))))
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, &DecodeError{Err: errors.New("missing user")}
	}
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, FixedTimeout)
	defer cancel()
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, FixedTimeout)
	defer cancel()
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, FixedTimeout)
	defer cancel()
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": email}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/verify-reset-token", map[string]string{"token": token}, &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	body := map[string]string{"token": token, "newPassword": newPassword}
	if err := c.do(ctx, http.MethodPost, "/api/auth/reset-password", body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdate) (*User, error) {
	var out struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/auth/update-profile", req, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) ChangePassword(ctx context.Context, req PasswordChange) error {
	return c.do(ctx, http.MethodPut, "/api/auth/change-password", req, nil)
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/auth/delete-account", nil, nil)
}

func (c *Client) UserStats(ctx context.Context) (*UserStats, error) {
	var out UserStats
	if err := c.do(ctx, http.MethodGet, "/api/auth/user-stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PracticeStats(ctx context.Context) (*PracticeStats, error) {
	var out PracticeStats
	if err := c.do(ctx, http.MethodGet, "/api/practice/user-stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Solve(ctx context.Context, req SolveRequest) (*Solution, error) {
	var out Solution
	if err := c.do(ctx, http.MethodPost, "/api/solver/solve", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Save(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	var out SaveResult
	if err := c.do(ctx, http.MethodPost, "/api/solver/save", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context, page, perPage int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	var out HistoryPage
	if err := c.do(ctx, http.MethodGet, "/api/solver/history?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FetchProblem(ctx context.Context, pt catalog.PracticeType, difficulty int) (*Problem, error) {
	var out struct {
		Problem *Problem `json:"problem"`
	}
	path := strings.TrimRight(pt.ProblemsPath, "/") + "/" + strconv.Itoa(difficulty)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Problem == nil {
		return nil, &DecodeError{Err: errors.New("missing problem")}
	}
	return out.Problem, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, pt catalog.PracticeType, req AnswerRequest) (*AnswerResult, error) {
	var out AnswerResult
	if err := c.do(ctx, http.MethodPost, pt.SubmitPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GiveUp(ctx context.Context, req GiveUpRequest) (*GiveUpResult, error) {
	var out GiveUpResult
	if err := c.do(ctx, http.MethodPost, "/api/practice/give-up", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends a JSON request with the session cookies and decodes a JSON reply.
// Non-2xx replies become *Error; undecodable 2xx bodies become *DecodeError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.http.Do(req)
	})
	fields := map[string]any{"method": method, "path": path, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		fields["error"] = err.Error()
		c.logError("api.request_failed", fields)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	resp := res.(*http.Response)
	defer resp.Body.Close()
	fields["status"] = resp.StatusCode
	c.logInfo("api.request", fields)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

func (c *Client) resolve(path string) string {
	return c.base.String() + path
}

func (c *Client) logInfo(msg string, fields map[string]any) {
	if c.logger != nil {
		c.logger.Info(msg, fields)
	}
}

func (c *Client) logError(msg string, fields map[string]any) {
	if c.logger != nil {
		c.logger.Error(msg, fields)
	}
}
