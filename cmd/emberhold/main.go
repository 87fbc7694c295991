// Command emberhold runs the Emberhold settlement simulation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/emberhold/internal/api"
	"github.com/talgya/emberhold/internal/brain"
	"github.com/talgya/emberhold/internal/config"
	"github.com/talgya/emberhold/internal/engine"
	"github.com/talgya/emberhold/internal/persistence"
	"github.com/talgya/emberhold/internal/weather"
)

var rootCmd = &cobra.Command{
	Use:   "emberhold",
	Short: "Emberhold settlement simulator",
	Long: `Emberhold simulates a small frontier settlement one hour at a time.
Residents wake, work, squabble, and vote in an evening council; the engine
narrates what happens and a scribe writes a chronicle before dawn each day.
State lives in a local SQLite file, so the settlement survives restarts.

Run 'emberhold serve' to let it live in real time behind an HTTP API,
or 'emberhold tick' to advance it by hand.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Optional .env for API keys.
	_ = godotenv.Load()
	viper.SetEnvPrefix("EMBERHOLD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "settlement config file (YAML)")
	rootCmd.PersistentFlags().String("db", "data/emberhold.db", "SQLite database path")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("debug", false, "verbose logging")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tickCmd())
	rootCmd.AddCommand(bootstrapCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(chronicleCmd())
}

func setupLogging() {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

func serveCmd() *cobra.Command {
	var port int
	var interval time.Duration
	var speed float64
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the settlement in real time with the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			return withStore(func(store *persistence.Store) error {
				eng := buildEngine(cmd.Context(), cfg)
				st, fresh, err := loadSettlement(eng, cfg, store)
				if err != nil {
					return err
				}
				if fresh {
					slog.Info("no saved settlement found, founding a new one",
						"seed", cfg.Seed, "residents", len(st.Agents))
					if err := store.SaveSnapshot(st); err != nil {
						slog.Error("initial save failed", "error", err)
					}
					if err := store.SaveMeta("seed", strconv.FormatInt(cfg.Seed, 10)); err != nil {
						slog.Error("meta save failed", "error", err)
					}
				} else {
					slog.Info("settlement restored",
						"tick", st.Tick, "day", st.Day, "hour", st.Hour, "residents", len(st.Agents))
				}

				runner := engine.NewRunner(eng, st, interval, speed)

				adminKey := os.Getenv("EMBERHOLD_ADMIN_KEY")
				if adminKey == "" {
					slog.Warn("EMBERHOLD_ADMIN_KEY not set, admin POST endpoints will be disabled")
				}
				srv := &api.Server{
					Runner:   runner,
					Store:    store,
					Port:     port,
					AdminKey: adminKey,
				}

				// Archive every tick; snapshot once per day at the scribe's hour.
				runner.OnResult = func(res *engine.Result) {
					if err := store.AppendResult(res); err != nil {
						slog.Error("archive append failed", "error", err)
					}
					if res.State.Hour == cfg.Hours.PreDawn {
						if err := store.SaveSnapshot(res.State); err != nil {
							slog.Error("daily save failed", "error", err)
						}
					}
					srv.Broadcast(res)
				}

				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()

				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				go func() {
					sig := <-sigCh
					slog.Info("received signal, shutting down", "signal", sig)
					cancel()
				}()

				srv.Start()
				startWeatherOverlay(ctx, runner)

				fmt.Printf("\n%s is alive: %d residents on day %d, %02d:00.\n",
					st.Settlement, len(st.Agents), st.Day, st.Hour)
				fmt.Printf("API: http://localhost:%d/api/v1/status\n", port)
				fmt.Println("Starting simulation... (Ctrl+C to stop)")

				runner.Run(ctx)

				slog.Info("final save...")
				if err := store.SaveSnapshot(runner.Snapshot()); err != nil {
					slog.Error("final save failed", "error", err)
				}
				fmt.Println("Simulation stopped. Settlement saved.")
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP API port")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "real time per simulated hour")
	cmd.Flags().Float64Var(&speed, "speed", 1, "speed multiplier on the interval")
	return cmd
}

func tickCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Advance the settlement by N simulated hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			return withStore(func(store *persistence.Store) error {
				// Offline ticks always use the template voices; batch
				// advancement should not block on a narration API.
				eng := engine.New(cfg, nil)
				st, fresh, err := loadSettlement(eng, cfg, store)
				if err != nil {
					return err
				}
				if fresh {
					fmt.Printf("Founded %s with %d residents.\n", st.Settlement, len(st.Agents))
				}
				runner := engine.NewRunner(eng, st, time.Second, 1)
				runner.OnResult = func(res *engine.Result) {
					if err := store.AppendResult(res); err != nil {
						slog.Error("archive append failed", "error", err)
					}
				}
				res := runner.Step(count)
				if err := store.SaveSnapshot(res.State); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"ticked": count,
						"tick":   res.State.Tick,
						"day":    res.State.Day,
						"hour":   res.State.Hour,
						"phase":  res.State.Phase,
					})
				}
				fmt.Printf("Advanced %d hour(s): day %d, %02d:00 (%s), %s skies.\n",
					count, res.State.Day, res.State.Hour, res.State.Phase, res.State.Weather)
				for _, n := range res.News {
					fmt.Printf("  %s\n", n.Headline)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "hours to advance")
	return cmd
}

func bootstrapCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Found a fresh settlement",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			return withStore(func(store *persistence.Store) error {
				if _, err := store.LoadLatest(); err == nil {
					if !force {
						return fmt.Errorf("a saved settlement exists; pass --force to replace it")
					}
				} else if !errors.Is(err, persistence.ErrNoSnapshot) {
					return err
				}
				eng := engine.New(cfg, nil)
				st := eng.NewWorld()
				if err := store.SaveSnapshot(st); err != nil {
					return err
				}
				if err := store.SaveMeta("seed", strconv.FormatInt(cfg.Seed, 10)); err != nil {
					return err
				}
				fmt.Printf("Founded %s: %d residents on a %dx%d map, seed %d.\n",
					st.Settlement, len(st.Agents), cfg.Map.Width, cfg.Map.Height, cfg.Seed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing settlement")
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the settlement at a glance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.Store) error {
				st, err := loadLatest(store)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{
						"settlement": st.Settlement,
						"tick":       st.Tick,
						"day":        st.Day,
						"hour":       st.Hour,
						"phase":      st.Phase,
						"weather":    st.Weather,
						"population": len(st.Agents),
						"metrics":    st.Metrics,
						"council":    st.Council.Active,
					})
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Field", "Value"})
				tw.AppendRow(table.Row{"Settlement", st.Settlement})
				tw.AppendRow(table.Row{"Clock", fmt.Sprintf("day %d, %02d:00 (%s)", st.Day, st.Hour, st.Phase)})
				tw.AppendRow(table.Row{"Weather", st.Weather})
				tw.AppendRow(table.Row{"Residents", len(st.Agents)})
				tw.AppendRow(table.Row{"Food / Water", fmt.Sprintf("%d / %d days", st.Metrics.FoodDays, st.Metrics.WaterDays)})
				tw.AppendRow(table.Row{"Morale", st.Metrics.Morale})
				tw.AppendRow(table.Row{"Unrest", st.Metrics.Unrest})
				tw.AppendRow(table.Row{"Health risk", st.Metrics.HealthRisk})
				tw.AppendRow(table.Row{"Fire stability", st.Metrics.FireStability})
				if st.Council.Active {
					tw.AppendRow(table.Row{"Council", "in session"})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the residents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.Store) error {
				st, err := loadLatest(store)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(st.Agents)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Archetype", "Age", "Status", "Energy", "Stress", "Influence", "Allies", "Rivals"})
				for _, a := range st.Agents {
					tw.AppendRow(table.Row{
						shortID(a.ID), a.Name, a.Archetype, a.AgeGroup, a.Status,
						a.Energy, a.Stress, a.Influence, len(a.Allies), len(a.Rivals),
					})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	var n int
	var showEvents bool
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show recent news, or raw world events with --events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.Store) error {
				if showEvents {
					items, err := store.RecentEvents(n)
					if err != nil {
						return err
					}
					if viper.GetBool("json") {
						return printJSON(items)
					}
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Day", "Hour", "Category", "Description"})
					for _, ev := range items {
						tw.AppendRow(table.Row{ev.Day, fmt.Sprintf("%02d:00", ev.Hour), ev.Category, ev.Description})
					}
					tw.Render()
					return nil
				}
				items, err := store.RecentNews(n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Day", "Hour", "Kind", "Headline"})
				for _, item := range items {
					tw.AppendRow(table.Row{item.Day, fmt.Sprintf("%02d:00", item.Hour), item.Kind, item.Headline})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().BoolVar(&showEvents, "events", false, "show raw world events instead of news")
	return cmd
}

func chronicleCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "chronicle",
		Short: "Read the day-by-day chronicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(store *persistence.Store) error {
				entries, err := store.Chronicles(n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				if len(entries) == 0 {
					fmt.Println("No chronicle entries yet; the scribe writes before dawn each day.")
					return nil
				}
				for _, e := range entries {
					fmt.Printf("Day %d\n", e.Day)
					for _, h := range e.Headlines {
						fmt.Printf("  - %s\n", h)
					}
					if e.CouncilOutcome != "" {
						fmt.Printf("  Council: %s\n", e.CouncilOutcome)
					}
					for _, m := range e.TopMoments {
						fmt.Printf("  Moment: %s\n", m)
					}
					fmt.Printf("  Morale %d, unrest %d, food %dd, water %dd\n\n",
						e.Metrics.Morale, e.Metrics.Unrest, e.Metrics.FoodDays, e.Metrics.WaterDays)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 7, "days to show")
	return cmd
}

// --- helpers ---

// buildEngine wires the narration provider. Without a key the engine runs
// on the built-in template voices.
func buildEngine(ctx context.Context, cfg *config.Config) *engine.Engine {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		slog.Warn("GEMINI_API_KEY not set, narration will use template voices")
		return engine.New(cfg, nil)
	}
	gem, err := brain.NewGemini(ctx, key, os.Getenv("GEMINI_MODEL"))
	if err != nil {
		slog.Warn("gemini client failed, falling back to templates", "error", err)
		return engine.New(cfg, nil)
	}
	slog.Info("gemini narration enabled")
	return engine.New(cfg, gem)
}

// startWeatherOverlay maps live conditions onto the settlement sky when an
// OpenWeather key is present. Seeded weather keeps drifting otherwise.
func startWeatherOverlay(ctx context.Context, runner *engine.Runner) {
	client := weather.NewClient(os.Getenv("OPENWEATHER_API_KEY"), os.Getenv("EMBERHOLD_LOCATION"))
	if client == nil {
		slog.Info("OPENWEATHER_API_KEY not set, skies follow the seed")
		return
	}
	slog.Info("live weather overlay enabled")
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		apply := func() {
			cond, err := client.Fetch()
			if err != nil {
				slog.Debug("weather fetch failed", "error", err)
				return
			}
			kind := weather.MapToKind(cond, runner.Snapshot().Weather)
			runner.SetWeather(kind)
		}
		apply()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				apply()
			}
		}
	}()
}

// loadSettlement reads the newest snapshot, or founds a new settlement when
// the database has none. The bool reports a fresh founding.
func loadSettlement(eng *engine.Engine, cfg *config.Config, store *persistence.Store) (*engine.State, bool, error) {
	st, err := store.LoadLatest()
	if errors.Is(err, persistence.ErrNoSnapshot) {
		return eng.NewWorld(), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	st.Repair(cfg)
	return st, false, nil
}

// loadLatest is the read-only variant for inspection commands.
func loadLatest(store *persistence.Store) (*engine.State, error) {
	st, err := store.LoadLatest()
	if errors.Is(err, persistence.ErrNoSnapshot) {
		return nil, fmt.Errorf("no saved settlement yet; run 'emberhold serve' or 'emberhold tick' first")
	}
	return st, err
}

func withStore(fn func(store *persistence.Store) error) error {
	path := viper.GetString("db")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	store, err := persistence.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
