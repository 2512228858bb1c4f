package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gfranca/ripple/internal/app"
	"github.com/gfranca/ripple/internal/config"
	"github.com/gfranca/ripple/internal/session"
	"github.com/gfranca/ripple/internal/storage"
	"github.com/gfranca/ripple/internal/stream"
	"github.com/gfranca/ripple/internal/tui"
	"github.com/gfranca/ripple/internal/viewport"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbPath string
	var apiBase string

	cmd := &cobra.Command{
		Use:   "ripple",
		Short: "Terminal client for a ripple notes stream",
		Long: `ripple is a terminal client for a paginated notes stream.
It keeps long sessions light by materializing only a window of the
feed around the cursor while the full sequence stays pageable.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(dbPath, apiBase)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local cache database (overrides RIPPLE_DB_PATH)")
	cmd.Flags().StringVar(&apiBase, "api", "", "API base URL (overrides RIPPLE_API_BASE_URL)")
	return cmd
}

func run(dbPath, apiBase string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if apiBase != "" {
		cfg.APIBaseURL = apiBase
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("storage init: %w", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		return fmt.Errorf("storage schema: %w", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		return fmt.Errorf("storage write check failed (%w), verify %s is writable", err, cfg.DBPath)
	}

	client := stream.NewClient(cfg.APIBaseURL, cfg.Token, nil)
	service := app.NewService(client, repo)

	cacheLoadStart := time.Now()
	cached, err := service.ListCached(ctx, app.DefaultCacheLimit)
	if err != nil {
		return fmt.Errorf("cannot load cached notes: %w", err)
	}
	cacheLoadDuration := time.Since(cacheLoadStart)

	store := session.NewStore()
	ledger := viewport.NewLedger()

	// Window recomputations arrive on a capacity-1 channel. A stale
	// update is dropped in favor of the newest one so the UI never
	// applies an outdated window.
	applied := make(chan tui.WindowUpdate, 1)
	push := func(notes []stream.Note, cursor int) {
		update := tui.WindowUpdate{Notes: notes, Cursor: cursor}
		for {
			select {
			case applied <- update:
				return
			default:
				select {
				case <-applied:
				default:
				}
			}
		}
	}

	manager := viewport.NewManager(store, viewport.Config{
		CleanupThreshold: cfg.WindowThreshold,
		WindowRadius:     cfg.WindowRadius,
	},
		viewport.WithApplyFunc(push),
		viewport.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
	)
	manager.Start()
	defer manager.Close()

	rows := viewport.NewRowSource(viewport.SourceConfig{Enabled: true}, nil)
	factory := func(cfg viewport.SourceConfig, deliver func([]viewport.Observation)) viewport.Source {
		rows.Bind(cfg, deliver)
		return rows
	}
	tracker := viewport.NewTracker(factory, viewport.TrackerConfig{
		Source:    viewport.SourceConfig{Enabled: true, Margin: 5},
		Restoring: store.Restoring,
	})
	defer tracker.Close()

	model := tui.NewModel(service, manager, tracker, rows, ledger, store, applied).
		WithCachedNotes(cached).
		WithStartupCacheStats(len(cached), cacheLoadDuration)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
