package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/crmterm/internal/api"
	"github.com/nhle/crmterm/internal/app"
	"github.com/nhle/crmterm/internal/credential"
	"github.com/nhle/crmterm/internal/logging"
	"github.com/nhle/crmterm/internal/model"
	"github.com/nhle/crmterm/internal/notify"
	"github.com/nhle/crmterm/internal/prefs"
	"github.com/nhle/crmterm/internal/store"
)

// globals are the persistent flags shared by every command.
type globals struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:     "crmterm",
		Short:   "Terminal client for the CRM backend",
		Version: version,
		Long: `crmterm browses bids, contracts, client objects and equipment,
and shows a toast whenever a new bid is created on the server.

The API endpoint is read from the config file, CRM_API_URL, or the
settings screen (S). The API token is kept in the system keyring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), g)
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", model.DefaultConfigPath(), "config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides the config)")
	root.SetVersionTemplate("crmterm {{.Version}}\n")

	root.AddCommand(newWatchCommand(g), newDevServerCommand(g))
	return root
}

// loadConfig reads .env files and the config file, then applies the
// --log-level override.
func (g *globals) loadConfig() (*model.AppConfig, error) {
	if err := model.LoadEnvFiles("."); err != nil {
		return nil, err
	}
	cfg, err := model.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

// session holds the collaborators shared by the TUI and watch commands.
type session struct {
	cfg       *model.AppConfig
	log       zerolog.Logger
	tokens    *credential.Tokens
	client    *api.Client
	presenter *notify.Presenter
}

func newSession(cfg *model.AppConfig, log zerolog.Logger, sound, desktop bool) (*session, error) {
	ring, err := credential.Open()
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	tokens := credential.NewTokens(ring)

	opts := notify.PresenterOptions{
		Display: cfg.Notifications.DisplayDuration(),
		Logger:  log,
	}
	if sound {
		opts.Cue = notify.BeepCue{}
	}
	if desktop {
		opts.Sinks = append(opts.Sinks, notify.DesktopSink{})
	}

	s := &session{
		cfg:       cfg,
		log:       log,
		tokens:    tokens,
		presenter: notify.NewPresenter(opts),
	}
	s.client = s.newClient(cfg)
	return s, nil
}

func (s *session) newClient(cfg *model.AppConfig) *api.Client {
	return api.NewClient(cfg.APIBase(), s.tokens,
		api.WithTimeout(time.Duration(cfg.API.TimeoutSec)*time.Second),
		api.WithLogger(logging.Component(s.log, "api")),
	)
}

// newChannel builds a notification channel whose handshake carries the
// stored token.
func (s *session) newChannel(url string, fetcher notify.LatestFetcher) *notify.Channel {
	header := http.Header{}
	if token, err := s.tokens.Token(); err == nil && token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	n := s.cfg.Notifications
	return notify.New(notify.Options{
		URL:            url,
		Dialer:         notify.WebSocketDialer{Header: header},
		Fetcher:        fetcher,
		Handler:        s.presenter.Show,
		Logger:         s.log,
		ReconnectDelay: n.ReconnectDelay(),
		MaxAttempts:    n.MaxReconnectAttempts,
		PollInterval:   n.PollInterval(),
		RecencyWindow:  n.RecencyWindow(),
	})
}

// probe checks a candidate endpoint and token from the settings screen.
func (s *session) probe(ctx context.Context, apiBase, token string) (string, error) {
	c := api.NewClient(apiBase, api.StaticToken(token),
		api.WithLogger(logging.Component(s.log, "probe")))
	me, err := c.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if me.User.FullName != "" {
		return me.User.FullName, nil
	}
	return me.User.Login, nil
}

func runTUI(ctx context.Context, g *globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	log, logCloser, err := logging.New(logging.Config{Level: cfg.Logging.Level, Output: cfg.Logging.File})
	if err != nil {
		return err
	}
	defer closeQuietly(logCloser)

	sess, err := newSession(cfg, log, cfg.Notifications.Sound, cfg.Notifications.Desktop)
	if err != nil {
		return err
	}

	db, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening preferences store: %w", err)
	}
	defer closeQuietly(db)

	registry := prefs.NewRegistry(db)
	registry.RegisterDefaults(cfg.Display.PageSize)

	link := app.NewLink(sess.newChannel, log)
	link.Start(cfg.WSURL(), sess.client)

	ui := app.New(app.Deps{
		Config:     cfg,
		ConfigPath: g.configPath,
		Client:     sess.client,
		NewClient:  sess.newClient,
		Registry:   registry,
		Tokens:     sess.tokens,
		Probe:      sess.probe,
		Presenter:  sess.presenter,
		Link:       link,
		Logger:     log,
	})

	log.Info().Str("api", cfg.APIBase()).Str("ws", cfg.WSURL()).Msg("starting crmterm")
	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()

	// Quitting through the UI already stops these; a signal does not.
	link.Stop()
	sess.presenter.Close()
	return err
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
