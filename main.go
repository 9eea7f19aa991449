package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/hashgrid/config"
	"github.com/pthm-cable/hashgrid/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed, then time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	validateEvery := flag.Int("validate-every", 0, "Ticks between index validations (0 = use config)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Sim.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		ValidateEvery:  *validateEvery,
	}

	if *headless {
		os.Exit(runHeadless(opts, *maxTicks))
	}
	os.Exit(runWindow(cfg, opts, *maxTicks))
}

// runHeadless steps the simulation without raylib. Returns the exit code.
func runHeadless(opts game.Options, maxTicks int) int {
	g, err := game.NewGame(config.Cfg(), opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		return 1
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		if err := g.UpdateHeadless(); err != nil {
			slog.Error("simulation stopped", "tick", g.Tick(), "error", err)
			return 1
		}
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return 0
		}
	}
}

// runWindow runs the graphical loop. A halted simulation keeps the window
// open and exits non-zero when it closes.
func runWindow(cfg *config.Config, opts game.Options, maxTicks int) int {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Spatial Hash Grid")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(cfg, opts)
	if err != nil {
		slog.Error("failed to start simulation", "error", err)
		return 1
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}

	if err := g.Err(); err != nil {
		slog.Error("simulation halted", "tick", g.Tick(), "error", err)
		return 1
	}
	return 0
}
