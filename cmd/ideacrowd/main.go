package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/jask/ideacrowd/internal/config"
	"github.com/jask/ideacrowd/internal/diag"
	"github.com/jask/ideacrowd/internal/logging"
	"github.com/jask/ideacrowd/internal/metrics"
	"github.com/jask/ideacrowd/internal/route"
	"github.com/jask/ideacrowd/internal/session"
	"github.com/jask/ideacrowd/internal/tui"
	"github.com/jask/ideacrowd/internal/tui/views"
)

type options struct {
	configPath string
	startPath  string
	demo       bool
}

func main() {
	var opts options
	pflag.StringVar(&opts.configPath, "config", "", "config file (default $HOME/.config/ideacrowd/config.toml)")
	pflag.StringVar(&opts.startPath, "path", "", "path to open at start")
	pflag.BoolVar(&opts.demo, "demo", false, "accept any credentials and keep nothing")
	pflag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "ideacrowd: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.configPath != "" {
		if err := os.Setenv("IDEACROWD_CONFIG", opts.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logFile, err := logging.Open(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	defer logFile.Close()

	ctx := context.Background()
	ident, err := openProvider(ctx, &cfg, opts.demo, log)
	if err != nil {
		log.Error().Err(err).Msg("identity provider")
		return fmt.Errorf("identity: %w", err)
	}
	defer ident.close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	store := session.NewStore(ident.provider,
		session.WithLogger(log.With().Str("component", "session").Logger()),
		session.WithRecorder(collector),
	)
	defer store.Close()

	registry, err := route.NewRegistry(views.Routes()...)
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	guard, err := route.NewGuard(registry, route.GuardConfig{
		SignInPath:   cfg.Routes.SignInPath,
		DefaultPath:  cfg.Routes.DefaultPath,
		NotFoundView: views.NotFound,
	})
	if err != nil {
		return fmt.Errorf("routes: %w", err)
	}

	signOutLog := log.With().Str("component", "signout").Logger()
	signOut := session.NewSignOutAction(ident.provider, store, session.SignOutConfig{
		Timeout:  cfg.Identity.SignOutTimeout,
		Logger:   &signOutLog,
		Recorder: collector,
	})

	if cfg.Diagnostics.Addr != "" {
		srv, err := diag.Listen(cfg.Diagnostics.Addr, diag.Routes(reg, store.Err), log)
		if err != nil {
			return fmt.Errorf("diagnostics: %w", err)
		}
		go srv.Serve()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	keys := tui.NewKeyRegistry(append(tui.DefaultKeyBindings(), views.KeyBindings()...))
	m, err := tui.New(tui.Deps{
		Store:   store,
		Guard:   guard,
		SignOut: signOut,
		Views: views.Factories(views.Deps{
			Auth:     ident.auth,
			Settings: views.SettingsInfo{Provider: ident.name, ConfigPath: config.Path(), LogPath: cfg.Log.Path},
		}),
		Keys:             keys,
		Recorder:         collector,
		Logger:           log.With().Str("component", "tui").Logger(),
		AppName:          cfg.UI.AppName,
		SidebarCollapsed: cfg.UI.SidebarCollapsed,
		StartPath:        opts.startPath,
		OnSidebarToggle:  saveSidebar(log),
	})
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info().Str("provider", ident.name).Str("state", store.Current().String()).Msg("starting")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}

// saveSidebar persists the collapsed flag. Failures are logged only; the
// shell keeps working with the in-memory value.
func saveSidebar(log zerolog.Logger) func(bool) {
	return func(collapsed bool) {
		if err := config.SaveSidebarCollapsed(collapsed); err != nil {
			log.Warn().Err(err).Msg("save sidebar preference")
		}
	}
}
