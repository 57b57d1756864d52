package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"integralcli/internal/api"
	"integralcli/internal/catalog"
	"integralcli/internal/devtools"
	"integralcli/internal/state"
	"integralcli/internal/telemetry"
	"integralcli/internal/ui"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type App struct {
	cfg Config

	logger  EventLogger
	store   Store
	backend Backend
	catalog catalog.Catalog
	view    View
	demo    *devtools.Manager

	runID string
	sess  *Session

	fakeServer *http.Server

	devMu     sync.Mutex
	devServer *http.Server
	demoMu    sync.Mutex
	devState  struct {
		State     string
		Demo      string
		RenderSeq int
		Rendered  bool
		Pending   bool
		Error     string
	}
}

// Deps are the collaborators New builds for a real run. Tests pass their own.
type Deps struct {
	Logger  EventLogger
	Store   Store
	Backend Backend
	Catalog catalog.Catalog
	View    View
}

func New(cfg Config) (*App, error) {
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

	demo := devtools.NewManager()
	var fake *http.Server
	if cfg.Fake {
		fake, cfg.APIURL, err = startFakeBackend(cat, demo)
		if err != nil {
			_ = store.Close()
			_ = logger.Close()
			return nil, err
		}
		logger.Info("fake_backend.start", map[string]any{"url": cfg.APIURL})
	}

	client, err := api.New(api.Options{BaseURL: cfg.APIURL, Logger: logger})
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.Debug,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
		MouseScope:   cfg.UI.MouseScope,
	})

	a := NewWith(cfg, Deps{Logger: logger, Store: store, Backend: client, Catalog: cat, View: view})
	a.demo = demo
	a.fakeServer = fake
	return a, nil
}

// NewWith wires an App over existing collaborators and registers it as the
// view's controller.
func NewWith(cfg Config, deps Deps) *App {
	a := &App{
		cfg:     cfg,
		logger:  deps.Logger,
		store:   deps.Store,
		backend: deps.Backend,
		catalog: deps.Catalog,
		view:    deps.View,
		demo:    devtools.NewManager(),
		runID:   uuid.NewString(),
		sess:    newSession(strings.TrimSpace(cfg.Message), strings.TrimSpace(cfg.ResetToken)),
	}
	a.view.SetController(a)
	return a
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"run": a.runID, "api": a.backend.BaseURL()})
	a.restoreCookies(ctx)
	if err := a.store.SaveSettings(ctx, map[string]string{
		"style":   a.cfg.UI.StyleVariant,
		"api_url": a.backend.BaseURL(),
	}); err != nil {
		a.logger.Error("settings.save_failed", map[string]any{"error": err.Error()})
	}

	if err := a.Start(ctx); err != nil {
		return err
	}

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
		if a.cfg.DemoScenario != "" {
			_, err := a.runDemoScenario(context.Background(), a.cfg.DemoScenario, 30*time.Second)
			if err != nil {
				a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
			}
		} else {
			a.setDevState(a.currentScreen().String(), "")
			_ = a.demo.SetState(context.Background(), a.devCacheDir(), a.currentScreen().String(), true)
		}
	}

	return a.view.Run()
}

// Start derives the session and paints the first screen. The one-shot start
// parameters are consumed here.
func (a *App) Start(ctx context.Context) error {
	a.CheckAuthOnLoad(ctx)

	a.sess.mu.Lock()
	token := a.sess.takeResetToken()
	message := a.sess.takeMessage()
	a.sess.mu.Unlock()

	a.setScreen(ui.ScreenHome)
	if token != "" {
		a.openReset(ctx, token)
		return nil
	}
	if message == messageSolverSignupRequired {
		a.showSignupRequired()
	}
	return nil
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.devServer != nil {
		_ = a.devServer.Shutdown(ctx)
	}
	a.persistCookies(ctx)
	if a.fakeServer != nil {
		_ = a.fakeServer.Shutdown(ctx)
	}
	_ = a.store.Close()
	a.logger.Info("app.stop", map[string]any{"run": a.runID})
	_ = a.logger.Close()
}

func (a *App) OnQuit() {
	a.view.Stop()
}

func (a *App) OnNavigate(screen ui.Screen) {
	a.sess.mu.Lock()
	authed := a.sess.authenticated()
	a.sess.mu.Unlock()

	switch screen {
	case ui.ScreenSolver:
		if !authed {
			a.showSignupRequired()
			return
		}
		a.setScreen(ui.ScreenSolver)
		a.paintSolver()
	case ui.ScreenProfile:
		if !authed {
			a.setScreen(ui.ScreenLogin)
			return
		}
		a.setScreen(ui.ScreenProfile)
		a.loadProfile(context.Background())
	case ui.ScreenLogin, ui.ScreenSignup:
		if authed {
			a.setScreen(ui.ScreenHome)
			return
		}
		a.setScreen(screen)
	case ui.ScreenReset:
		a.openReset(context.Background(), "")
	default:
		a.setScreen(ui.ScreenHome)
	}
}

// OnRefresh re-derives the session the way a page reload would.
func (a *App) OnRefresh() {
	ctx := context.Background()
	a.CheckAuthOnLoad(ctx)
	a.sess.mu.Lock()
	authed := a.sess.authenticated()
	screen := a.sess.screen
	a.sess.mu.Unlock()

	switch {
	case !authed && (screen == ui.ScreenSolver || screen == ui.ScreenProfile):
		a.setScreen(ui.ScreenHome)
	case screen == ui.ScreenProfile:
		a.loadProfile(ctx)
	case screen == ui.ScreenHome && authed:
		a.loadHomeStats(ctx)
	}
	a.view.FlashStatus("Refreshed")
}

func (a *App) OnModalAction(kind ui.ModalKind, value string) {
	ctx := context.Background()
	switch kind {
	case ui.ModalSignupRequired:
		switch value {
		case valueSignup:
			a.OnNavigate(ui.ScreenSignup)
		case valueLogin:
			a.OnNavigate(ui.ScreenLogin)
		}
	case ui.ModalDeleteAccount:
		if value == valueConfirm {
			a.deleteAccount(ctx)
		}
	case ui.ModalSaveConfirm:
		if value == valueConfirm {
			a.saveSolution(ctx)
		}
	case ui.ModalModePicker:
		a.SelectMode(catalog.ParseMode(value))
	case ui.ModalHistory:
		a.loadHistoryItem(value)
	}
}

func (a *App) OnSelectOption(action, value string) {
	switch action {
	case actionMode:
		a.SelectMode(catalog.ParseMode(value))
	case actionPractice:
		a.StartPractice()
	case actionPracticeType:
		a.SelectPracticeType(catalog.ParseMode(value))
	case actionDifficulty:
		var level int
		if _, err := fmt.Sscanf(value, "%d", &level); err != nil {
			a.logger.Error("practice.bad_difficulty", map[string]any{"value": value})
			return
		}
		a.SelectPracticeDifficulty(context.Background(), level)
	case actionNextProblem:
		a.NextProblem()
	default:
		a.logger.Error("ui.unknown_option", map[string]any{"action": action, "value": value})
	}
}

func (a *App) setScreen(screen ui.Screen) {
	a.sess.mu.Lock()
	a.sess.screen = screen
	a.sess.mu.Unlock()
	a.view.SetScreen(screen)
	a.logger.Debug("screen.set", map[string]any{"screen": screen.String()})
	if a.cfg.Dev {
		a.setDevState(screen.String(), "")
	}
}

func (a *App) currentScreen() ui.Screen {
	a.sess.mu.Lock()
	defer a.sess.mu.Unlock()
	return a.sess.screen
}

func (a *App) toastError(text string) {
	a.view.ShowToast(ui.Toast{Kind: ui.ToastError, Text: text, Duration: toastError})
}

func (a *App) toastSuccess(text string, d time.Duration) {
	a.view.ShowToast(ui.Toast{Kind: ui.ToastSuccess, Text: text, Duration: d})
}

func (a *App) restoreCookies(ctx context.Context) {
	cookies, err := a.store.LoadCookies(ctx, a.backend.BaseURL(), time.Now())
	if err != nil {
		a.logger.Error("cookies.load_failed", map[string]any{"error": err.Error()})
		return
	}
	a.backend.SetCookies(cookies)
	a.logger.Debug("cookies.restored", map[string]any{"count": len(cookies)})
}

func (a *App) persistCookies(ctx context.Context) {
	a.sess.mu.Lock()
	authed := a.sess.authenticated()
	a.sess.mu.Unlock()
	var err error
	if authed {
		err = a.store.SaveCookies(ctx, a.backend.BaseURL(), a.backend.Cookies())
	} else {
		err = a.store.ClearCookies(ctx, a.backend.BaseURL())
	}
	if err != nil {
		a.logger.Error("cookies.save_failed", map[string]any{"error": err.Error()})
	}
}

func startFakeBackend(cat catalog.Catalog, demo *devtools.Manager) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, "", fmt.Errorf("fake backend: %w", err)
	}
	fb := devtools.NewFakeBackend(cat)
	demo.Seed(fb)
	srv := &http.Server{Handler: fb.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	return srv, "http://" + ln.Addr().String(), nil
}

func (a *App) applyDemoScenario(ctx context.Context, scenario string) error {
	s := a.demo.Resolve(scenario)
	a.logger.Info("dev.demo.apply.begin", map[string]any{"requested": scenario, "resolved": s.Name})

	a.sess.mu.Lock()
	authed := a.sess.authenticated()
	a.sess.mu.Unlock()
	switch {
	case s.Authenticated && !authed:
		if err := a.login(ctx, devtools.DemoEmail, devtools.DemoPassword); err != nil {
			return fmt.Errorf("demo login: %w", err)
		}
	case !s.Authenticated && authed:
		a.Logout(ctx)
	}

	if s.Message == messageSolverSignupRequired {
		a.showSignupRequired()
	}

	switch ui.ParseScreen(s.Screen) {
	case ui.ScreenSolver:
		a.OnNavigate(ui.ScreenSolver)
		switch {
		case s.Practice:
			a.StartPractice()
		case s.Mode != catalog.ModeNone && s.Mode != "":
			a.SelectMode(s.Mode)
			mode, ok := a.catalog.SolverMode(s.Mode)
			if !ok {
				return fmt.Errorf("demo mode %q not in catalog", s.Mode)
			}
			values := map[string]string{}
			for i, f := range mode.Fields {
				if i < len(s.Expression) {
					values[f.ID] = s.Expression[i]
				}
			}
			a.view.SetFormValues(ui.FormSolver, values)
		}
	case ui.ScreenProfile:
		a.OnNavigate(ui.ScreenProfile)
	default:
		a.setScreen(ui.ScreenHome)
	}

	a.logger.Info("dev.demo.apply.ready", map[string]any{"requested": scenario, "resolved": s.Name})
	return nil
}

func (a *App) setDevState(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = true
	a.devState.Pending = false
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevPending(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = true
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevError(state, demo, errText string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = false
	a.devState.Error = errText
	a.devState.RenderSeq++
}

func (a *App) getDevState() map[string]any {
	a.sess.mu.Lock()
	session := map[string]any{
		"authenticated": a.sess.authenticated(),
		"mode":          string(a.sess.mode),
		"generation":    a.sess.generation,
		"bubbles":       len(a.sess.entries),
		"practice":      a.sess.practice.active,
	}
	a.sess.mu.Unlock()

	a.devMu.Lock()
	defer a.devMu.Unlock()
	return map[string]any{
		"ok":         true,
		"run":        a.runID,
		"state":      a.devState.State,
		"demo":       a.devState.Demo,
		"render_seq": a.devState.RenderSeq,
		"rendered":   a.devState.Rendered,
		"pending":    a.devState.Pending,
		"error":      a.devState.Error,
		"session":    session,
	}
}

func (a *App) devCacheDir() string {
	return filepath.Join(a.cfg.DataDir, "dev")
}

func (a *App) runDemoScenario(ctx context.Context, requested string, timeout time.Duration) (string, error) {
	resolved := a.demo.Resolve(requested).Name
	a.logger.Info("dev.demo.dispatch.begin", map[string]any{"requested": requested, "resolved": resolved})
	a.setDevPending(resolved, requested)

	a.demoMu.Lock()
	defer a.demoMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := a.applyDemoScenario(ctx, requested); err != nil {
		a.logger.Error("dev.demo.dispatch.apply_failed", map[string]any{"requested": requested, "resolved": resolved, "error": err.Error()})
		a.setDevError(resolved, requested, err.Error())
		_ = a.demo.SetState(ctx, a.devCacheDir(), resolved, false)
		return resolved, err
	}
	a.logger.Info("dev.demo.dispatch.done", map[string]any{"requested": requested, "resolved": resolved})
	a.setDevState(resolved, resolved)
	if err := a.demo.SetState(ctx, a.devCacheDir(), resolved, true); err != nil {
		a.logger.Error("dev_state.write_failed", map[string]any{"state": resolved, "error": err.Error()})
	}
	return resolved, nil
}

// devRouter serves the /__dev endpoints used by scripted walkthroughs.
func (a *App) devRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/__dev/ready", func(w http.ResponseWriter, r *http.Request) {
		writeDevJSON(w, http.StatusOK, a.getDevState())
	})
	r.Post("/__dev/demo", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Demo string `json:"demo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDevJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
			return
		}
		req.Demo = strings.TrimSpace(req.Demo)
		if req.Demo == "" {
			writeDevJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "demo is required"})
			return
		}
		a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo})

		resolved, err := a.runDemoScenario(context.Background(), req.Demo, 30*time.Second)
		if err != nil {
			a.logger.Error("dev.demo.apply_failed", map[string]any{"demo": req.Demo, "resolved": resolved, "error": err.Error()})
			writeDevJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "state": resolved})
			return
		}
		writeDevJSON(w, http.StatusOK, map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
	})
	return r
}

func (a *App) startDevHTTP() error {
	ln, err := net.Listen("tcp", a.cfg.DevHTTP)
	if err != nil {
		return fmt.Errorf("dev http: %w", err)
	}
	a.devServer = &http.Server{Handler: a.devRouter(), ReadHeaderTimeout: 5 * time.Second}
	a.setDevState(a.currentScreen().String(), a.cfg.DemoScenario)
	go func() {
		if err := a.devServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	return nil
}

func writeDevJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
