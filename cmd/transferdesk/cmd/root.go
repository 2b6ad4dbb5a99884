// Package cmd holds the transferdesk command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/transferdesk/transferdesk/internal/admin"
	"github.com/transferdesk/transferdesk/internal/config"
	"github.com/transferdesk/transferdesk/internal/events"
	"github.com/transferdesk/transferdesk/internal/fileview"
	"github.com/transferdesk/transferdesk/internal/logging"
	"github.com/transferdesk/transferdesk/internal/metrics"
	"github.com/transferdesk/transferdesk/internal/session"
	"github.com/transferdesk/transferdesk/pkg/client"
	"github.com/transferdesk/transferdesk/pkg/retry"
)

// errReported marks a failure the console already printed.
var errReported = errors.New("reported")

// offline commands run without building the backend stores.
const offline = "offline"

var (
	apiURL      string
	tokenFile   string
	logLevel    string
	metricsAddr string

	settings *config.Config
	desk     *app
)

var rootCmd = &cobra.Command{
	Use:   "transferdesk",
	Short: "TransferDesk - console for the S3 and SFTP transfer service",
	Long: `TransferDesk is a terminal console for the file transfer service.

Run without a subcommand to open the interactive shell. The subcommands run
a single action and exit, which suits scripts. Settings come from the
TRANSFERDESK_* environment variables and can be overridden by flags.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		flags := cmd.Flags()
		if flags.Changed("url") {
			cfg.APIURL = apiURL
		}
		if flags.Changed("token-file") {
			cfg.TokenFile = tokenFile
		}
		if flags.Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if flags.Changed("metrics-addr") {
			cfg.MetricsAddr = metricsAddr
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
			return fmt.Errorf("init logging: %w", err)
		}
		settings = cfg
		if isOffline(cmd) {
			return nil
		}
		desk = newApp(cfg)
		return desk.start(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if desk != nil {
			desk.close()
		}
		_ = logging.Sync()
	},
	RunE: runShell,
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if desk != nil {
			desk.close()
		}
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", client.Message(err))
		}
		return 1
	}
	return 0
}

func init() {
	defaults := config.Load()
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", defaults.APIURL, "Transfer service API base URL (TRANSFERDESK_URL)")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", defaults.TokenFile, "Where the session token is kept (TRANSFERDESK_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel, "debug, info, warn or error (TRANSFERDESK_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", defaults.MetricsAddr, "Serve Prometheus metrics on this address (TRANSFERDESK_METRICS_ADDR)")
}

// isOffline reports whether cmd runs without the backend. Help and shell
// completion never need it.
func isOffline(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[offline] == "true" || c.Name() == "help" || c.Name() == "completion" {
			return true
		}
	}
	return false
}

// app wires the client, the stores and the metrics listener.
type app struct {
	cfg *config.Config
	log *zap.Logger

	api       *client.Client
	bus       *events.Broadcaster
	session   *session.Store
	files     *fileview.Store
	users     *admin.Users
	activity  *admin.Activity
	dashboard *admin.Dashboard
	sftp      *admin.SFTP

	metricsServer *http.Server
	closed        bool
}

func newApp(cfg *config.Config) *app {
	a := &app{cfg: cfg, log: logging.Named("console"), bus: events.NewBroadcaster()}

	a.api = client.New(client.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.Timeout,
		Retry:     retry.Backoff(cfg.Retries),
		Transport: metrics.Transport(nil),
		Logger:    logging.Named("client"),
	})
	a.session = session.NewStore(a.api, session.FileTokenStore{Path: cfg.TokenFile}, a.bus,
		session.Options{Logger: logging.Named("session")})
	a.api.OnUnauthorized(a.session.Expire)

	a.files = fileview.NewStore(a.api, a.bus, fileview.Options{
		ClearClipboardOnFailure: cfg.ClearClipboardOnFailure,
		OperationTTL:            cfg.OperationTTL,
		Logger:                  logging.Named("files"),
	})
	opts := admin.Options{Logger: logging.Named("admin")}
	a.users = admin.NewUsers(a.api, a.bus, opts)
	a.activity = admin.NewActivity(a.api, a.bus, opts)
	a.dashboard = admin.NewDashboard(a.api, a.bus, opts)
	a.sftp = admin.NewSFTP(a.api, a.bus, opts)
	return a
}

// start serves metrics when configured and restores the saved session.
func (a *app) start(ctx context.Context) error {
	if a.cfg.MetricsAddr != "" {
		a.metricsServer = &http.Server{Addr: a.cfg.MetricsAddr, Handler: metrics.Handler()}
		go func() {
			logging.Info("metrics server listening", zap.String("addr", a.cfg.MetricsAddr))
			if err := a.metricsServer.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("metrics server error", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()
	err := a.session.Init(ctx)
	switch {
	case errors.Is(err, session.ErrSessionExpired):
		fmt.Fprintln(os.Stderr, "Your session has expired. Please log in again.")
	case err != nil:
		logging.Warn("restore session", zap.Error(err))
	}
	return nil
}

func (a *app) close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = a.metricsServer.Shutdown(ctx)
	}
}
