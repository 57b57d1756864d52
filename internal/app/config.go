package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"integralcli/internal/ui"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config controls runtime behavior for the client.
type Config struct {
	APIURL       string `env:"API_URL"`
	Dev          bool   `env:"DEV"`
	DevHTTP      string `env:"DEV_HTTP"`
	LogPath      string `env:"LOG"`
	Debug        bool   `env:"DEBUG"`
	DemoScenario string `env:"DEMO"`
	ASCIIOnly    bool   `env:"ASCII"`
	DataDir      string `env:"DATA_DIR"`
	// Fake serves an in-process fake backend seeded with the demo account
	// and points APIURL at it.
	Fake bool `env:"FAKE"`

	// Message and ResetToken are one-shot start parameters; each is consumed
	// by the first screen that reads it.
	Message    string
	ResetToken string

	UI UIConfig
}

type UIConfig struct {
	StyleVariant string `env:"STYLE"`
	MotionLevel  string `env:"MOTION"`
	MouseScope   string `env:"MOUSE"`
}

const envPrefix = "INTEGRAL_"

func DefaultConfig() Config {
	return Config{
		APIURL:  "http://127.0.0.1:5000",
		DevHTTP: "127.0.0.1:17321",
		UI: UIConfig{
			StyleVariant: ui.StyleVariants[0],
			MotionLevel:  "full",
			MouseScope:   "scoped",
		},
	}
}

// LoadConfig layers INTEGRAL_* environment variables, optionally read from a
// .env file, over DefaultConfig. Unset variables keep their defaults.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.APIURL)
	}

	c.UI.StyleVariant = strings.ToLower(strings.TrimSpace(c.UI.StyleVariant))
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = ui.StyleVariants[0]
	}
	if !slices.Contains(ui.StyleVariants, c.UI.StyleVariant) {
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	switch c.UI.MouseScope {
	case "", "off", "scoped", "full":
	default:
		return fmt.Errorf("invalid ui mouse scope %q", c.UI.MouseScope)
	}
	if c.UI.MouseScope == "" {
		c.UI.MouseScope = "scoped"
	}

	switch strings.TrimSpace(c.Message) {
	case "", messageSolverSignupRequired:
	default:
		return fmt.Errorf("unknown start message %q", c.Message)
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "integral")
	}
	return nil
}
