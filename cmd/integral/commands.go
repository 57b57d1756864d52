package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"integralcli/internal/api"
	"integralcli/internal/app"
	"integralcli/internal/catalog"
	"integralcli/internal/devtools"
	"integralcli/internal/validate"
)

func runTUI(ctx context.Context, cfg app.Config) error {
	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

// withClient opens a one-shot client for the duration of fn.
func withClient(opts *rootOptions, fn func(*app.Client) error) error {
	c, err := app.OpenClient(opts.cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var form validate.LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Email == "" || form.Password == "" {
				if err := huh.NewForm(huh.NewGroup(
					huh.NewInput().Title("Email address").Value(&form.Email).Validate(checkWith(validate.Email)),
					huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&form.Password),
				)).Run(); err != nil {
					return promptErr(err)
				}
			}
			return withClient(opts, func(c *app.Client) error {
				user, err := c.Login(cmd.Context(), form)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Welcome back, %s!\n", user.FirstName)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password (prompted when empty)")
	return cmd
}

func newSignupCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var form validate.SignupForm
			if err := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("First name").Value(&form.FirstName).Validate(checkName("First name")),
				huh.NewInput().Title("Last name").Value(&form.LastName).Validate(checkName("Last name")),
				huh.NewInput().Title("Email address").Value(&form.Email).Validate(checkWith(validate.Email)),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&form.Password).Validate(checkWith(validate.Password)),
			)).Run(); err != nil {
				return promptErr(err)
			}
			return withClient(opts, func(c *app.Client) error {
				user, err := c.Signup(cmd.Context(), form)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account created. Welcome, %s!\n", user.FirstName)
				return nil
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the remembered session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(opts, func(c *app.Client) error {
				if err := c.Logout(cmd.Context()); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", api.FriendlyMessage(err))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
				return nil
			})
		},
	}
}

func newWhoAmICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(opts, func(c *app.Client) error {
				user, err := c.WhoAmI(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s <%s>\n", user.FirstName, user.LastName, user.Email)
				if user.IsOAuth() {
					fmt.Fprintf(out, "signed in with %s\n", user.AuthProvider)
				}
				fmt.Fprintf(out, "server %s\n", c.BaseURL())
				return nil
			})
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved problems, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(opts, func(c *app.Client) error {
				res, err := c.History(cmd.Context(), page)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(res.Problems) == 0 {
					fmt.Fprintln(out, "No recent problems")
					return nil
				}
				for _, it := range res.Problems {
					fmt.Fprintln(out, c.HistoryLine(it))
				}
				fmt.Fprintf(out, "page %d of %d (%d saved)\n", res.CurrentPage, res.Pages, res.Total)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newSolveCmd(opts *rootOptions) *cobra.Command {
	var (
		mode   string
		values = map[string]string{}
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "solve [expression]",
		Short: "Solve one integral and print the worked solution",
		Example: `  integral solve "x^2"
  integral solve --mode parametric --x t --y "t^2"
  integral solve --mode polar --inner "2 + sin(theta)" --outer "5*cos(theta)"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := catalog.ParseMode(mode)
			if len(args) == 1 {
				values["expression"] = args[0]
			}
			for _, id := range []string{"x", "y", "inner", "outer"} {
				if fl := cmd.Flag(id); fl != nil && fl.Changed {
					values[id] = fl.Value.String()
				}
			}
			return withClient(opts, func(c *app.Client) error {
				md, err := c.Solve(cmd.Context(), m, values)
				if err != nil {
					return err
				}
				if raw {
					fmt.Fprint(cmd.OutOrStdout(), md)
					return nil
				}
				rendered, err := glamour.Render(md, "dark")
				if err != nil {
					rendered = md
				}
				fmt.Fprint(cmd.OutOrStdout(), rendered)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&mode, "mode", "integral", "integral, parametric or polar")
	f.String("x", "", "x(t) for parametric mode")
	f.String("y", "", "y(t) for parametric mode")
	f.String("inner", "", "inner r(θ) for polar mode; blank means 0")
	f.String("outer", "", "outer r(θ) for polar mode")
	f.BoolVar(&raw, "raw", false, "print markdown without rendering")
	return cmd
}

func newServeFakeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-fake",
		Short: "Serve the in-memory fake backend with the demo account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := catalog.Builtin()
			if err != nil {
				return err
			}
			fb := devtools.NewFakeBackend(cat)
			devtools.NewManager().Seed(fb)

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			srv := &http.Server{Handler: fb.Handler(), ReadHeaderTimeout: 5 * time.Second}
			fmt.Fprintf(cmd.OutOrStdout(), "fake backend on http://%s (demo login %s / %s)\n",
				ln.Addr(), devtools.DemoEmail, devtools.DemoPassword)

			errc := make(chan error, 1)
			go func() { errc <- srv.Serve(ln) }()
			select {
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:5000", "listen address")
	return cmd
}

func checkWith(fn func(string) validate.Result) func(string) error {
	return func(s string) error {
		if r := fn(s); !r.Valid {
			return errors.New(r.Message)
		}
		return nil
	}
}

func checkName(label string) func(string) error {
	return func(s string) error {
		if r := validate.Name(label, s); !r.Valid {
			return errors.New(r.Message)
		}
		return nil
	}
}

// promptErr treats an aborted prompt as a clean exit.
func promptErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errAborted
	}
	return err
}
