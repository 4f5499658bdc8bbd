package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-catalog-admin/config"
	"github.com/goliatone/go-catalog-admin/errs"
	"github.com/goliatone/go-catalog-admin/pkg/di"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitSetup  = 2
)

var (
	envFile    string
	catalogURL string
	authURL    string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Manage the product catalog",
	Long: `catalogctl signs in to the identity provider and manages products in the remote catalog.

Settings come from the environment, optionally from a .env file, and finally from flags.

Environment Variables:
  CATALOG_BASE_URL     Catalog API (default: https://dummyjson.com)
  AUTH_BASE_URL        Identity provider (default: https://reqres.in/api)
  AUTH_API_KEY         Sent as x-api-key to the identity provider
  SESSION_DB_PATH      Where the session token is kept
  PAGE_SIZE            Products per page (default: 10)
  LOG_LEVEL            debug, info, warn or error (default: info)`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Read settings from this file instead of ./.env")
	rootCmd.PersistentFlags().StringVar(&catalogURL, "catalog-url", "", "Catalog API URL (overrides CATALOG_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&authURL, "auth-url", "", "Identity provider URL (overrides AUTH_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// loadConfig reads the configuration and applies the flag overrides.
func loadConfig() (config.Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return config.Config{}, err
	}

	if catalogURL != "" {
		cfg.CatalogBaseURL = catalogURL
	}
	if authURL != "" {
		cfg.AuthBaseURL = authURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// runFunc is the body of a command once the container is built.
type runFunc func(ctx context.Context, w io.Writer, c *di.Container) int

// execute adapts fn to cobra: it builds the container, runs fn and exits with its code.
func execute(fn runFunc) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		w := cmd.OutOrStdout()
		code := withContainer(ctx, w, fn)
		if code != exitOK {
			cancel()
			os.Exit(code)
		}
	}
}

func withContainer(ctx context.Context, w io.Writer, fn runFunc) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitSetup
	}

	c, err := di.NewContainer(ctx, cfg, di.WithNotifier(newNotifier(w)))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitSetup
	}
	defer c.Close()

	return fn(ctx, w, c)
}

// IsJSONOutput returns whether JSON output is requested.
func IsJSONOutput() bool {
	return jsonOutput
}

// writerNotifier prints mutation outcomes.
type writerNotifier struct {
	w io.Writer
}

func newNotifier(w io.Writer) *writerNotifier {
	return &writerNotifier{w: w}
}

func (n *writerNotifier) Success(title, message string) {
	if IsJSONOutput() {
		return
	}
	fmt.Fprintf(n.w, "%s: %s\n", title, message)
}

func (n *writerNotifier) Failure(title, message string) {
	if IsJSONOutput() {
		return
	}
	fmt.Fprintf(n.w, "%s: %s\n", title, message)
}

// fail prints err and maps it onto an exit code.
func fail(w io.Writer, err error) int {
	switch {
	case IsJSONOutput():
		writeJSON(w, map[string]string{
			"error": errs.Message(err),
			"kind":  errs.KindOf(err).String(),
		})
	case errs.Is(err, errs.KindUnauthenticated):
		fmt.Fprintf(w, "Error: %s Run `catalogctl login` first.\n", errs.Message(err))
	default:
		fmt.Fprintf(w, "Error: %s\n", errs.Message(err))
	}
	return exitCode(err)
}

// failed maps the error of a coordinator, which has already been announced, onto an exit code.
func failed(w io.Writer, err error) int {
	if IsJSONOutput() {
		return fail(w, err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	if errs.Is(err, errs.KindUnauthenticated) {
		return exitSetup
	}
	return exitFailed
}

func writeJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
