package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"integralcli/internal/catalog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const SessionCookie = "session"

var fakeEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type fakeUser struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	Password     string
	AuthProvider string
	CreatedAt    time.Time
}

func (u *fakeUser) payload() map[string]any {
	out := map[string]any{
		"id":        u.ID,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
	}
	if u.AuthProvider != "" {
		out["authProvider"] = u.AuthProvider
	}
	return out
}

type savedProblem struct {
	ID         int64
	UserID     int64
	Input      string
	Solution   string
	Steps      []string
	SolverType string
	CreatedAt  time.Time
}

type fakeProblem struct {
	payload map[string]any
	answer  string
	latex   string
}

type failure struct {
	status  int
	message string
}

// FakeBackend is an in-memory stand-in for the solver REST API. It keeps
// users, cookie sessions, saved problems and per-route call counts, and can
// be told to fail or stall specific routes.
type FakeBackend struct {
	mu       sync.Mutex
	catalog  catalog.Catalog
	users    map[string]*fakeUser
	sessions map[string]int64
	tokens   map[string]string
	saved    []savedProblem
	attempts map[string]int
	calls    map[string]int
	bodies   map[string][]map[string]any
	failures map[string]failure
	delays   map[string]time.Duration
	ttl      time.Duration
	nextID   int64
	router   chi.Router
}

func NewFakeBackend(cat catalog.Catalog) *FakeBackend {
	b := &FakeBackend{
		catalog:  cat,
		users:    map[string]*fakeUser{},
		sessions: map[string]int64{},
		tokens:   map[string]string{},
		attempts: map[string]int{},
		calls:    map[string]int{},
		bodies:   map[string][]map[string]any{},
		failures: map[string]failure{},
		delays:   map[string]time.Duration{},
		nextID:   1,
	}
	b.router = b.routes()
	return b
}

func (b *FakeBackend) Handler() http.Handler { return b.router }

func (b *FakeBackend) AddUser(first, last, email, password string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(first, last, email, password, "")
}

func (b *FakeBackend) AddOAuthUser(first, last, email, provider string) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(first, last, email, "", provider)
}

func (b *FakeBackend) addUserLocked(first, last, email, password, provider string) int64 {
	id := b.nextID
	b.nextID++
	b.users[strings.ToLower(email)] = &fakeUser{
		ID:           id,
		FirstName:    first,
		LastName:     last,
		Email:        strings.ToLower(email),
		Password:     password,
		AuthProvider: provider,
		CreatedAt:    time.Now().UTC(),
	}
	return id
}

// IssueResetToken returns a token the reset endpoints will accept once.
func (b *FakeBackend) IssueResetToken(email string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	token := uuid.NewString()
	b.tokens[token] = strings.ToLower(email)
	return token
}

// Calls counts requests by "METHOD /path" (query excluded).
func (b *FakeBackend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

func (b *FakeBackend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// Bodies returns the decoded JSON bodies received on a route, oldest first.
func (b *FakeBackend) Bodies(method, path string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.bodies[method+" "+path]...)
}

// Fail makes every later request to path answer status with {"error": message}.
// A zero status clears it.
func (b *FakeBackend) Fail(path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, path)
		return
	}
	b.failures[path] = failure{status: status, message: message}
}

// Delay stalls requests to path before they are handled.
func (b *FakeBackend) Delay(path string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delays[path] = d
}

func (b *FakeBackend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)

	r.Route("/api/auth", func(r chi.Router) {
		r.Get("/me", b.handleMe)
		r.Post("/login", b.handleLogin)
		r.Post("/signup", b.handleSignup)
		r.Post("/logout", b.handleLogout)
		r.Post("/forgot-password", b.handleForgot)
		r.Post("/verify-reset-token", b.handleVerifyToken)
		r.Post("/reset-password", b.handleResetPassword)
		r.Group(func(r chi.Router) {
			r.Use(b.requireUser)
			r.Put("/update-profile", b.handleUpdateProfile)
			r.Put("/change-password", b.handleChangePassword)
			r.Delete("/delete-account", b.handleDeleteAccount)
			r.Get("/user-stats", b.handleUserStats)
		})
	})
	r.Route("/api/solver", func(r chi.Router) {
		r.Use(b.requireUser)
		r.Post("/solve", b.handleSolve)
		r.Post("/save", b.handleSave)
		r.Get("/history", b.handleHistory)
	})
	r.Route("/api/practice", func(r chi.Router) {
		r.Use(b.requireUser)
		r.Get("/user-stats", b.handlePracticeStats)
		r.Get("/problems/{difficulty}", b.handleProblem(catalog.ModeIntegral))
		r.Get("/parametric/problems/{difficulty}", b.handleProblem(catalog.ModeParametric))
		r.Get("/polar/problems/{difficulty}", b.handleProblem(catalog.ModePolar))
		r.Post("/submit-answer", b.handleSubmit(catalog.ModeIntegral))
		r.Post("/parametric/submit-answer", b.handleSubmit(catalog.ModeParametric))
		r.Post("/polar/submit-answer", b.handleSubmit(catalog.ModePolar))
		r.Post("/give-up", b.handleGiveUp)
	})
	r.Get("/login/{provider}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/authorize/"+chi.URLParam(r, "provider"), http.StatusFound)
	})
	return r
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		var body map[string]any
		if r.Body != nil && r.ContentLength != 0 {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		b.mu.Lock()
		b.calls[key]++
		if body != nil {
			b.bodies[key] = append(b.bodies[key], body)
		}
		fail, failing := b.failures[r.URL.Path]
		delay := b.delays[r.URL.Path]
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeJSON(w, fail.status, map[string]any{"error": fail.message})
			return
		}
		next.ServeHTTP(w, r.WithContext(withBody(r.Context(), body)))
	})
}

func (b *FakeBackend) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.currentUser(r) == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Not logged in"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) currentUser(r *http.Request) *fakeUser {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.sessions[c.Value]
	if !ok {
		return nil
	}
	for _, u := range b.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// SetSessionTTL makes new session cookies expire d after they are issued.
// Zero issues browser-session cookies.
func (b *FakeBackend) SetSessionTTL(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ttl = d
}

func (b *FakeBackend) startSession(w http.ResponseWriter, u *fakeUser) {
	sid := uuid.NewString()
	b.mu.Lock()
	b.sessions[sid] = u.ID
	ttl := b.ttl
	b.mu.Unlock()
	c := &http.Cookie{Name: SessionCookie, Value: sid, Path: "/", HttpOnly: true}
	if ttl > 0 {
		c.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(w, c)
}

func (b *FakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Not logged in"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u.payload()})
}

func (b *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	email := strings.ToLower(strings.TrimSpace(str(body, "email")))
	b.mu.Lock()
	u := b.users[email]
	b.mu.Unlock()
	if u == nil || u.Password == "" || u.Password != str(body, "password") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid email or password"})
		return
	}
	b.startSession(w, u)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Login successful!", "user": u.payload()})
}

func (b *FakeBackend) handleSignup(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	first := strings.TrimSpace(str(body, "firstName"))
	last := strings.TrimSpace(str(body, "lastName"))
	email := strings.ToLower(strings.TrimSpace(str(body, "email")))
	password := str(body, "password")
	switch {
	case first == "" || len(first) > 100:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "First name must be 1-100 characters"})
		return
	case last == "" || len(last) > 100:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Last name must be 1-100 characters"})
		return
	case !fakeEmailPattern.MatchString(email):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid email format"})
		return
	case len(password) < 8:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Password must be at least 8 characters"})
		return
	}
	b.mu.Lock()
	if _, exists := b.users[email]; exists {
		b.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Email already registered"})
		return
	}
	b.addUserLocked(first, last, email, password, "")
	u := b.users[email]
	b.mu.Unlock()
	b.startSession(w, u)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Account created successfully!", "user": u.payload()})
}

func (b *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		b.mu.Lock()
		delete(b.sessions, c.Value)
		b.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

func (b *FakeBackend) handleForgot(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(str(bodyFrom(r.Context()), "email")))
	if !fakeEmailPattern.MatchString(email) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid email format"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "If an account exists with this email, you will receive password reset instructions.",
	})
}

func (b *FakeBackend) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	token := str(bodyFrom(r.Context()), "token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Token required"})
		return
	}
	b.mu.Lock()
	_, ok := b.tokens[token]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid or expired token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

func (b *FakeBackend) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	token := str(body, "token")
	password := str(body, "newPassword")
	if token == "" || password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Token and new password required"})
		return
	}
	if len(password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Password must be at least 8 characters"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.tokens[token]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid or expired token"})
		return
	}
	delete(b.tokens, token)
	if u := b.users[email]; u != nil {
		u.Password = password
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Password reset successfully! You can now log in."})
}

func (b *FakeBackend) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	body := bodyFrom(r.Context())
	first := strings.TrimSpace(str(body, "firstName"))
	last := strings.TrimSpace(str(body, "lastName"))
	email := strings.ToLower(strings.TrimSpace(str(body, "email")))
	if first == "" || last == "" || len(first) > 100 || len(last) > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid name"})
		return
	}
	if !fakeEmailPattern.MatchString(email) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid email format"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if other, ok := b.users[email]; ok && other.ID != u.ID {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Email already in use"})
		return
	}
	delete(b.users, u.Email)
	u.FirstName, u.LastName, u.Email = first, last, email
	b.users[email] = u
	writeJSON(w, http.StatusOK, map[string]any{"message": "Profile updated successfully!", "user": u.payload()})
}

func (b *FakeBackend) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	body := bodyFrom(r.Context())
	current := str(body, "currentPassword")
	next := str(body, "newPassword")
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case u.Password == "" || u.Password != current:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Current password is incorrect"})
	case len(next) < 8:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "New password must be at least 8 characters"})
	case next == current:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "New password must be different"})
	default:
		u.Password = next
		writeJSON(w, http.StatusOK, map[string]any{"message": "Password changed successfully!"})
	}
}

func (b *FakeBackend) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	b.mu.Lock()
	delete(b.users, u.Email)
	for sid, id := range b.sessions {
		if id == u.ID {
			delete(b.sessions, sid)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Account deleted successfully"})
}

func (b *FakeBackend) handleUserStats(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	b.mu.Lock()
	count := 0
	var last time.Time
	for _, p := range b.saved {
		if p.UserID == u.ID {
			count++
			if p.CreatedAt.After(last) {
				last = p.CreatedAt
			}
		}
	}
	b.mu.Unlock()
	lastActivity := "No activity yet"
	if !last.IsZero() {
		lastActivity = last.Format("January 02, 2006")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"problemsSolved": count,
		"memberSince":    u.CreatedAt.Format("January 02, 2006"),
		"lastActivity":   lastActivity,
		"user":           u.payload(),
	})
}

func (b *FakeBackend) handlePracticeStats(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	prefix := strconv.FormatInt(u.ID, 10) + "/"
	b.mu.Lock()
	attempted, completed := 0, 0
	for k, n := range b.attempts {
		if !strings.HasPrefix(k, prefix) || n == 0 {
			continue
		}
		if strings.HasSuffix(k, "/done") {
			completed++
		} else {
			attempted++
		}
	}
	b.mu.Unlock()
	total := 3 * len(b.catalog.Difficulties)
	pct := 0.0
	if total > 0 {
		pct = float64(completed) * 100 / float64(total)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_attempted":       attempted,
		"total_completed":       completed,
		"total_available":       total,
		"completion_percentage": pct,
		"accuracy":              pct,
	})
}

func (b *FakeBackend) handleSolve(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	integral := strings.TrimSpace(str(body, "integral"))
	solverType := str(body, "solverType")
	if solverType == "" {
		solverType = "integral"
	}
	if integral == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Expression required"})
		return
	}
	if len(integral) > 500 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Expression too long"})
		return
	}
	solution, steps := cannedSolution(solverType, integral)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":             id,
		"input":          integral,
		"input_latex":    integral,
		"solution":       solution,
		"solution_latex": solution,
		"steps":          steps,
		"solver_type":    solverType,
		"solved_at":      time.Now().UTC().Format(time.RFC3339),
	})
}

func cannedSolution(solverType, integral string) (string, []string) {
	switch solverType {
	case "parametric":
		return "∫ y(t)·x'(t) dt + C", []string{"Differentiate x(t)", "Multiply by y(t)", "Integrate with respect to t"}
	case "polar":
		return "(1/2)∫(r2² - r1²) dθ", []string{"Find the intersections", "Square both radii", "Integrate over [0, 2π]"}
	}
	known := map[string]string{
		"x^2":    "x^3/3 + C",
		"x":      "x^2/2 + C",
		"sin(x)": "-cos(x) + C",
		"cos(x)": "sin(x) + C",
		"exp(x)": "exp(x) + C",
	}
	if s, ok := known[strings.ReplaceAll(integral, " ", "")]; ok {
		return s, []string{"Apply the power or standard rule", "Add the constant of integration"}
	}
	return "F(x) + C", []string{"Integrate term by term", "Add the constant of integration"}
}

func (b *FakeBackend) handleSave(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	body := bodyFrom(r.Context())
	input := strings.TrimSpace(str(body, "input"))
	solution := strings.TrimSpace(str(body, "solution"))
	if input == "" || solution == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Input and solution required"})
		return
	}
	if len(input) > 500 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Input expression too long"})
		return
	}
	var steps []string
	if raw, ok := body["steps"].([]any); ok {
		for _, s := range raw {
			steps = append(steps, fmt.Sprint(s))
		}
	}
	solverType := str(body, "solver_type")
	if solverType == "" {
		solverType = "integral"
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.saved = append(b.saved, savedProblem{
		ID: id, UserID: u.ID, Input: input, Solution: solution, Steps: steps,
		SolverType: solverType, CreatedAt: time.Now().UTC(),
	})
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Problem saved successfully!", "id": id})
}

func (b *FakeBackend) handleHistory(w http.ResponseWriter, r *http.Request) {
	u := b.currentUser(r)
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 50 {
		perPage = 50
	}
	b.mu.Lock()
	mine := make([]savedProblem, 0)
	for i := len(b.saved) - 1; i >= 0; i-- {
		if b.saved[i].UserID == u.ID {
			mine = append(mine, b.saved[i])
		}
	}
	b.mu.Unlock()
	start := (page - 1) * perPage
	items := make([]map[string]any, 0)
	for i := start; i < len(mine) && i < start+perPage; i++ {
		p := mine[i]
		items = append(items, map[string]any{
			"id":             p.ID,
			"input":          p.Input,
			"input_latex":    p.Input,
			"solution":       p.Solution,
			"solution_latex": p.Solution,
			"steps":          p.Steps,
			"solver_type":    p.SolverType,
			"created_at":     p.CreatedAt.Format(time.RFC3339),
		})
	}
	pages := (len(mine) + perPage - 1) / perPage
	writeJSON(w, http.StatusOK, map[string]any{"problems": items, "total": len(mine), "pages": pages, "current_page": page})
}

func (b *FakeBackend) handleProblem(mode catalog.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		difficulty, err := strconv.Atoi(chi.URLParam(r, "difficulty"))
		if err != nil || difficulty < 1 || difficulty > 4 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Difficulty must be between 1 and 4"})
			return
		}
		p := practiceProblem(mode, difficulty)
		u := b.currentUser(r)
		key := attemptKey(u.ID, p.payload["id"].(int64))
		b.mu.Lock()
		attempts := b.attempts[key]
		_, done := b.attempts[key+"/done"]
		b.mu.Unlock()
		payload := map[string]any{}
		for k, v := range p.payload {
			payload[k] = v
		}
		payload["user_progress"] = map[string]any{"completed": done, "attempts": attempts}
		writeJSON(w, http.StatusOK, map[string]any{"problem": payload})
	}
}

func (b *FakeBackend) handleSubmit(mode catalog.Mode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := bodyFrom(r.Context())
		id := int64(num(body, "problem_id"))
		answer := strings.TrimSpace(str(body, "answer"))
		if id == 0 || answer == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Problem ID and answer required"})
			return
		}
		p, ok := problemByID(mode, id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Problem not found"})
			return
		}
		u := b.currentUser(r)
		key := attemptKey(u.ID, id)
		correct := normalizeAnswer(answer) == normalizeAnswer(p.answer)
		b.mu.Lock()
		b.attempts[key]++
		if correct {
			b.attempts[key+"/done"] = 1
		}
		attempts := b.attempts[key]
		_, done := b.attempts[key+"/done"]
		b.mu.Unlock()
		msg := "Incorrect, try again!"
		if correct {
			msg = "Correct!"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"correct":        correct,
			"correct_answer": p.answer,
			"attempts":       attempts,
			"completed":      done,
			"message":        msg,
		})
	}
}

func (b *FakeBackend) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r.Context())
	id := int64(num(body, "problem_id"))
	if id == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Problem ID required"})
		return
	}
	mode := catalog.ParseMode(str(body, "problem_type"))
	if mode == catalog.ModeNone {
		mode = catalog.ModeIntegral
	}
	p, ok := problemByID(mode, id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Problem not found"})
		return
	}
	u := b.currentUser(r)
	key := attemptKey(u.ID, id)
	b.mu.Lock()
	b.attempts[key]++
	b.attempts[key+"/done"] = 1
	attempts := b.attempts[key]
	b.mu.Unlock()
	out := map[string]any{"correct_answer": p.answer, "attempts": attempts, "message": "Problem skipped"}
	if mode != catalog.ModePolar {
		out["correct_answer_latex"] = p.latex
	}
	writeJSON(w, http.StatusOK, out)
}

func attemptKey(userID, problemID int64) string {
	return strconv.FormatInt(userID, 10) + "/" + strconv.FormatInt(problemID, 10)
}

func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, " ", ""))
	return strings.TrimSuffix(s, "+c")
}

func problemByID(mode catalog.Mode, id int64) (fakeProblem, bool) {
	for d := 1; d <= 4; d++ {
		p := practiceProblem(mode, d)
		if p.payload["id"].(int64) == id {
			return p, true
		}
	}
	return fakeProblem{}, false
}

// practiceProblem returns one deterministic problem per family and level.
// Ids are family*100 + level so they never collide across families.
func practiceProblem(mode catalog.Mode, difficulty int) fakeProblem {
	n := strconv.Itoa(difficulty + 1)
	switch mode {
	case catalog.ModeParametric:
		id := int64(200 + difficulty)
		return fakeProblem{
			payload: map[string]any{
				"id": id, "difficulty": difficulty,
				"x_t_text": "t", "x_t_latex": "t",
				"y_t_text": "t^" + n, "y_t_latex": "t^{" + n + "}",
				"hint":  "Area under a parametric curve is ∫ y(t) x'(t) dt",
				"steps": []string{"x'(t) = 1", "Integrate t^" + n},
			},
			answer: "t^" + strconv.Itoa(difficulty+2) + "/" + strconv.Itoa(difficulty+2),
			latex:  "\\frac{t^{" + strconv.Itoa(difficulty+2) + "}}{" + strconv.Itoa(difficulty+2) + "}",
		}
	case catalog.ModePolar:
		id := int64(300 + difficulty)
		return fakeProblem{
			payload: map[string]any{
				"id": id, "difficulty": difficulty,
				"inner_function_text": "1", "inner_function_latex": "1",
				"outer_function_text": n, "outer_function_latex": n,
				"lower_bound": 0, "upper_bound": 6.283185307179586,
				"lower_bound_display": "0", "upper_bound_display": "2π",
				"hint":  "Area between curves is (1/2)∫(outer² - inner²) dθ",
				"steps": []string{"Square both radii", "Integrate over one full turn"},
			},
			answer: strconv.Itoa((difficulty+1)*(difficulty+1)-1) + "pi",
		}
	default:
		id := int64(100 + difficulty)
		return fakeProblem{
			payload: map[string]any{
				"id": id, "difficulty": difficulty,
				"problem_text": "x^" + strconv.Itoa(difficulty), "problem_latex": "\\int x^{" + strconv.Itoa(difficulty) + "}\\,dx",
				"technique": "power rule", "hint": "Raise the power by one",
				"steps": []string{"Add one to the exponent", "Divide by the new exponent"},
			},
			answer: "x^" + n + "/" + n,
			latex:  "\\frac{x^{" + n + "}}{" + n + "} + C",
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func str(body map[string]any, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func num(body map[string]any, key string) float64 {
	switch v := body[key].(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyFrom(ctx context.Context) map[string]any {
	body, _ := ctx.Value(bodyKey{}).(map[string]any)
	return body
}
