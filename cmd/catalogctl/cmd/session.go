package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-catalog-admin/mutation"
	"github.com/goliatone/go-catalog-admin/pkg/di"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in with the identity provider. When the provider refuses the reference account
(403) or cannot be reached, a local MOCK token is issued instead.`,
	Run: execute(func(ctx context.Context, w io.Writer, c *di.Container) int {
		return runLogin(ctx, w, c, mutation.LoginRequest{Email: loginEmail, Password: loginPassword})
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session token and every cached page",
	Run:   execute(runLogout),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session and the configured endpoints",
	Run:   execute(runStatus),
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}

// runLogin authenticates and stores the token.
func runLogin(ctx context.Context, w io.Writer, c *di.Container, req mutation.LoginRequest) int {
	res, err := c.Login().Submit(ctx, req)
	if err != nil {
		return failed(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, map[string]any{"authenticated": true, "mock": res.Mock})
	}
	return exitOK
}

// runLogout ends the session and purges cached data.
func runLogout(ctx context.Context, w io.Writer, c *di.Container) int {
	if err := c.Session().Reset(ctx); err != nil {
		return fail(w, err)
	}
	if IsJSONOutput() {
		writeJSON(w, map[string]any{"authenticated": false})
	} else {
		fmt.Fprintln(w, "Logged out.")
	}
	return exitOK
}

type statusReport struct {
	Authenticated bool   `json:"authenticated"`
	Mock          bool   `json:"mock"`
	CatalogURL    string `json:"catalog_url"`
	AuthURL       string `json:"auth_url"`
	SessionDB     string `json:"session_db"`
	PageSize      int    `json:"page_size"`
}

// runStatus prints the session state.
func runStatus(_ context.Context, w io.Writer, c *di.Container) int {
	cfg := c.Config()
	report := statusReport{
		Authenticated: c.Session().IsAuthenticated(),
		Mock:          c.Session().IsMock(),
		CatalogURL:    cfg.CatalogBaseURL,
		AuthURL:       cfg.AuthBaseURL,
		SessionDB:     cfg.SessionDBPath,
		PageSize:      cfg.PageSize,
	}

	if IsJSONOutput() {
		writeJSON(w, report)
		return exitOK
	}
	fmt.Fprintln(w, formatStatusHuman(report))
	return exitOK
}

func formatStatusHuman(r statusReport) string {
	session := "not logged in"
	switch {
	case r.Mock:
		session = "logged in (MOCK token)"
	case r.Authenticated:
		session = "logged in"
	}

	return fmt.Sprintf(`Session:   %s
Catalog:   %s
Identity:  %s
Token DB:  %s
Page size: %d`,
		session,
		r.CatalogURL,
		r.AuthURL,
		r.SessionDB,
		r.PageSize)
}
