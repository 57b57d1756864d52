package main

import (
	"github.com/spf13/cobra"

	"integralcli/internal/app"
)

type rootOptions struct {
	envFile    string
	apiURL     string
	dataDir    string
	logPath    string
	style      string
	message    string
	resetToken string
	demo       string
	dev        bool
	debug      bool
	fake       bool
	ascii      bool

	cfg app.Config
}

func (o *rootOptions) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.envFile, "env-file", ".env", "dotenv file read before the environment")
	f.StringVar(&o.apiURL, "api-url", "", "solver backend base url (INTEGRAL_API_URL)")
	f.StringVar(&o.dataDir, "data-dir", "", "directory for the local database (INTEGRAL_DATA_DIR)")
	f.StringVar(&o.logPath, "log", "", "append JSON logs to this file (INTEGRAL_LOG)")
	f.StringVar(&o.style, "style", "", "color theme: midnight, chalkboard or terminal (INTEGRAL_STYLE)")
	f.BoolVar(&o.debug, "debug", false, "verbose logging (INTEGRAL_DEBUG)")
	f.BoolVar(&o.fake, "fake", false, "run against an in-process fake backend (INTEGRAL_FAKE)")

	l := cmd.Flags()
	l.StringVar(&o.message, "message", "", "start message, e.g. solver_signup_required")
	l.StringVar(&o.resetToken, "reset-token", "", "open the password reset screen with this token")
	l.StringVar(&o.demo, "demo", "", "apply a demo scenario after start (needs --dev)")
	l.BoolVar(&o.dev, "dev", false, "serve the /__dev endpoints (INTEGRAL_DEV)")
	l.BoolVar(&o.ascii, "ascii", false, "ASCII-only borders and glyphs (INTEGRAL_ASCII)")
}

// load layers flags the user actually set over the dotenv and environment
// configuration.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := app.LoadConfig(o.envFile)
	if err != nil {
		return err
	}
	changed := func(name string) bool {
		fl := cmd.Flag(name)
		return fl != nil && fl.Changed
	}
	if changed("api-url") {
		cfg.APIURL = o.apiURL
	}
	if changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if changed("log") {
		cfg.LogPath = o.logPath
	}
	if changed("style") {
		cfg.UI.StyleVariant = o.style
	}
	if changed("debug") {
		cfg.Debug = o.debug
	}
	if changed("fake") {
		cfg.Fake = o.fake
	}
	if changed("dev") {
		cfg.Dev = o.dev
	}
	if changed("ascii") {
		cfg.ASCIIOnly = o.ascii
	}
	if changed("demo") {
		cfg.DemoScenario = o.demo
	}
	cfg.Message = o.message
	cfg.ResetToken = o.resetToken
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}
