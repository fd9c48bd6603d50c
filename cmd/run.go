package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"montagereg/internal/dewarp"
	"montagereg/internal/opt"
	"montagereg/internal/register"
	"montagereg/internal/store"
)

var (
	configPath string
	dataDir    string
	resume     bool
	writeTrace bool

	runSettings = DefaultSettings()
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run dewarp registration over a tile directory",
	Long: `Loads grayscale PNG tiles named c<col>_r<row>.png, builds the montage,
and searches for the dewarp parameters that best align the tile overlaps.`,
	RunE: runRegistration,
}

func init() {
	runCmd.Flags().StringVar(&runSettings.TilesDir, "tiles", "", "Tile directory (required)")
	runCmd.Flags().IntVar(&runSettings.Cols, "cols", 0, "Montage columns (0 = infer from filenames)")
	runCmd.Flags().IntVar(&runSettings.Rows, "rows", 0, "Montage rows (0 = infer from filenames)")
	runCmd.Flags().Float64Var(&runSettings.Overlap, "overlap", 0.1, "Nominal overlap fraction between adjacent tiles")
	runCmd.Flags().StringVar(&runSettings.Optimizer, "optimizer", "amoeba", "Optimizer backend: amoeba, mayfly")
	runCmd.Flags().IntVar(&runSettings.MaxIterations, "iters", 500, "Objective evaluation budget")
	runCmd.Flags().BoolVar(&runSettings.Restarts, "restarts", false, "Restart the simplex from the best solution on convergence")
	runCmd.Flags().Float64Var(&runSettings.FractionalTolerance, "ftol", 1e-5, "Function-value convergence tolerance")
	runCmd.Flags().IntVar(&runSettings.PopSize, "pop", 20, "Population size (mayfly only)")
	runCmd.Flags().Int64Var(&runSettings.Seed, "seed", 42, "Random seed (mayfly only)")
	runCmd.Flags().StringVar(&configPath, "config", "", "YAML settings file; flags override its values")
	runCmd.Flags().StringVar(&dataDir, "data", "./data", "Directory for run records")
	runCmd.Flags().BoolVar(&resume, "resume", false, "Seed the search from the latest stored run")
	runCmd.Flags().BoolVar(&writeTrace, "trace", false, "Write a per-evaluation score trace next to the run record")

	runCmd.MarkFlagRequired("tiles")
	rootCmd.AddCommand(runCmd)
}

func runRegistration(cmd *cobra.Command, args []string) error {
	settings := runSettings
	if configPath != "" {
		fileSettings, err := LoadSettings(configPath)
		if err != nil {
			return err
		}
		// File values win only where the flag was left at its default.
		applyFileSettings(cmd, &settings, fileSettings)
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}

	m, rows, cols, err := loadTileMontage(settings.TilesDir, settings.Rows, settings.Cols, settings.Overlap)
	if err != nil {
		return err
	}
	settings.Rows, settings.Cols = rows, cols

	slog.Info("Loaded montage", "rows", rows, "cols", cols, "tiles_dir", settings.TilesDir)

	model := dewarp.NewPolyModel()
	cost := register.NewConvolutionCostFunction(model)
	if err := cost.Initialize(m, intensityName); err != nil {
		return err
	}

	start := model.IdentityParameters()
	if resume {
		latest, err := runStore.Latest()
		if err != nil {
			return fmt.Errorf("cannot resume: %w", err)
		}
		if len(latest.BestParameters) != model.ParameterCount() {
			return fmt.Errorf("cannot resume: stored run has %d parameters, model expects %d",
				len(latest.BestParameters), model.ParameterCount())
		}
		start = latest.BestParameters
		slog.Info("Resuming from stored run", "run_id", latest.ID, "best_score", latest.BestScore)
	}

	runID := uuid.New().String()
	var progress func(int, float64)
	var trace *store.TraceWriter
	if writeTrace {
		trace, err = store.NewTraceWriter(dataDir, runID)
		if err != nil {
			return err
		}
		defer trace.Close()
		progress = func(evaluation int, bestScore float64) {
			trace.Write(store.TraceEntry{
				Evaluation: evaluation,
				Score:      bestScore,
				Timestamp:  time.Now(),
			})
		}
	}

	var result *register.Result
	switch settings.Optimizer {
	case "amoeba":
		amoeba := opt.NewAmoeba()
		amoeba.MaximumNumberOfIterations = settings.MaxIterations
		amoeba.FractionalTolerance = settings.FractionalTolerance
		amoeba.OptimizeWithRestarts = settings.Restarts

		// Interrupts cancel the search and keep the best solution so far.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			if _, ok := <-sigCh; ok {
				slog.Warn("Interrupt received, cancelling registration")
				amoeba.Cancel()
			}
		}()

		result, err = register.Register(cost, amoeba, start, progress)
		if err != nil {
			return err
		}

	case "mayfly":
		result, err = runMayfly(cost, settings, start, progress)
		if err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown optimizer: %s", settings.Optimizer)
	}

	record := store.NewRunRecord(store.RunSettings{
		TilesDir:            settings.TilesDir,
		Rows:                settings.Rows,
		Cols:                settings.Cols,
		Optimizer:           settings.Optimizer,
		MaxIterations:       settings.MaxIterations,
		Restarts:            settings.Restarts,
		FractionalTolerance: settings.FractionalTolerance,
	}, result.BestParameters, result.BestScore, result.InitialScore, result.StopCondition, result.Evaluations)
	record.ID = runID

	if err := runStore.SaveRun(record); err != nil {
		return err
	}

	fmt.Printf("Run %s: score %.4g -> %.4g after %d evaluations (%s)\n",
		record.ID, result.InitialScore, result.BestScore, result.Evaluations, result.StopCondition)
	return nil
}

// runMayfly drives the global-search backend over fixed symmetric bounds on
// the parameter vector and shapes its outcome like an engine result.
func runMayfly(cost *register.ConvolutionCostFunction, settings Settings, start []float64, progress func(int, float64)) (*register.Result, error) {
	dim := cost.NumParameters()
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := range lower {
		lower[i] = -2
		upper[i] = 2
	}

	initial := cost.Value(start)

	evaluations := 0
	bestSeen := initial
	eval := func(p []float64) float64 {
		score := cost.Value(p)
		evaluations++
		if score > bestSeen {
			bestSeen = score
		}
		if progress != nil {
			progress(evaluations, bestSeen)
		}
		return -score
	}

	mayfly := opt.NewMayfly(settings.MaxIterations, settings.PopSize, settings.Seed)
	best, negScore := mayfly.Run(eval, lower, upper, dim)

	return &register.Result{
		BestParameters: best,
		BestScore:      -negScore,
		InitialScore:   initial,
		StopCondition:  "mayfly search complete",
		Evaluations:    evaluations,
	}, nil
}

// applyFileSettings copies file values into settings for every knob whose
// flag was not set explicitly on the command line.
func applyFileSettings(cmd *cobra.Command, settings *Settings, file Settings) {
	if !cmd.Flags().Changed("tiles") && file.TilesDir != "" {
		settings.TilesDir = file.TilesDir
	}
	if !cmd.Flags().Changed("rows") {
		settings.Rows = file.Rows
	}
	if !cmd.Flags().Changed("cols") {
		settings.Cols = file.Cols
	}
	if !cmd.Flags().Changed("overlap") && file.Overlap != 0 {
		settings.Overlap = file.Overlap
	}
	if !cmd.Flags().Changed("optimizer") && file.Optimizer != "" {
		settings.Optimizer = file.Optimizer
	}
	if !cmd.Flags().Changed("iters") && file.MaxIterations != 0 {
		settings.MaxIterations = file.MaxIterations
	}
	if !cmd.Flags().Changed("restarts") {
		settings.Restarts = file.Restarts
	}
	if !cmd.Flags().Changed("ftol") && file.FractionalTolerance != 0 {
		settings.FractionalTolerance = file.FractionalTolerance
	}
	if !cmd.Flags().Changed("pop") && file.PopSize != 0 {
		settings.PopSize = file.PopSize
	}
	if !cmd.Flags().Changed("seed") && file.Seed != 0 {
		settings.Seed = file.Seed
	}
}
