// Command membranectl drives the membrane-connect API from a terminal:
// search and register services, list and run actions, and start agent
// sessions that keep polling across restarts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"membrane-connect-be/internal/pkg/logger"
	"membrane-connect-be/pkg/agentsession"
	"membrane-connect-be/pkg/apiclient"
	"membrane-connect-be/pkg/appstate"
	"membrane-connect-be/pkg/localstore"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	apiURL    string
	token     string
	stateFile string
	redisURL  string
	ephemeral bool
	logFile   string
	quiet     bool
	timeout   time.Duration

	app *cliApp
)

type cliApp struct {
	client   *apiclient.Client
	storage  localstore.Storage
	state    *appstate.Store
	log      logger.ILogger
	notifier agentsession.Notifier
	closers  []func()
}

func (a *cliApp) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".membranectl"
	}
	return filepath.Join(home, ".membranectl")
}

var rootCmd = &cobra.Command{
	Use:           "membranectl",
	Short:         "Command line client for membrane-connect",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "watch", "help":
			return nil
		}
		a, err := newCLIApp(cmd.Context())
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.close()
		}
	},
}

func newCLIApp(ctx context.Context) (*cliApp, error) {
	if token == "" {
		return nil, fmt.Errorf("no session token: set MEMBRANECTL_TOKEN or pass --token")
	}

	if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	log := logger.NewFileLogger(logFile)

	a := &cliApp{
		client: apiclient.New(apiURL, token, timeout),
		state:  appstate.NewStore(nil),
		log:    log,
	}
	a.closers = append(a.closers, func() { _ = log.Sync() }, func() { _ = a.state.Close() })

	switch {
	case ephemeral:
		a.storage = localstore.NewMemoryStorage()
	case redisURL != "":
		rs, err := localstore.NewRedisStorageFromURL(ctx, redisURL, "membranectl:")
		if err != nil {
			return nil, err
		}
		a.storage = rs
		a.closers = append(a.closers, func() { _ = rs.Close() })
	default:
		a.storage = localstore.NewFileStorage(stateFile, log)
	}

	if quiet {
		a.notifier = agentsession.NewLogNotifier(log)
	} else {
		a.notifier = newColorNotifier(os.Stderr)
	}
	return a, nil
}

func init() {
	_ = godotenv.Load()

	dir := defaultDir()
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("MEMBRANECTL_API_URL", "http://localhost:3000/api"), "membrane-connect API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MEMBRANECTL_TOKEN"), "app session JWT")
	rootCmd.PersistentFlags().StringVar(&stateFile, "state-file", envOr("MEMBRANECTL_STATE_FILE", filepath.Join(dir, "state.json")), "local state file")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis-url", os.Getenv("MEMBRANECTL_REDIS_URL"), "keep local state in Redis instead of the state file")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep local state in memory for this run only")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", envOr("MEMBRANECTL_LOG_FILE", filepath.Join(dir, "membranectl.log")), "log file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "write progress to the log file only")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 45*time.Second, "per-request timeout")

	rootCmd.AddCommand(tokenCmd, searchCmd, servicesCmd, actionsCmd, buildCmd, addActionCmd, resumeCmd, runCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
