package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"dashcore/internal/config"
	"dashcore/internal/core"
	"dashcore/internal/dataset"
	"dashcore/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries flag values and the resources opened for one command run.
type app struct {
	verbose  bool
	storage  string
	dataFile string
	seed     uint64
	seedSet  bool

	loadConfig func() (config.Config, error)
	logger     *zap.Logger

	cfg      config.Config
	snapshot domain.SnapshotStorage
	registry *prometheus.Registry
}

func newApp() *app {
	return &app{loadConfig: config.Load}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dashctl",
		Short: "Inspect and drive the dashboard state store",
		Long: `dashctl works against the same snapshot storage the dashboard uses.
Storage is selected with DASHCORE_* environment variables or --storage.

Data comes from the seeded mock generator unless --data points at a
.json, .yaml or .csv file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.seedSet = cmd.Flags().Changed("seed")
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.teardown()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.storage, "storage", "", "snapshot storage driver (memory, sqlite, postgres, blob)")
	root.PersistentFlags().StringVar(&a.dataFile, "data", "", "load datasets from a file instead of generating them")
	root.PersistentFlags().Uint64Var(&a.seed, "seed", 0, "mock data seed (defaults to DASHCORE_DATA_SEED)")

	root.AddCommand(
		a.optionsCmd(),
		a.replayCmd(),
		a.historyCmd(),
		a.snapshotsCmd(),
		a.scriptCmd(),
		a.viewCmd(),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.logger == nil {
		zcfg := zap.NewProductionConfig()
		if a.verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		a.logger = logger
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.storage != "" {
		cfg.StorageDriver = config.StorageDriver(a.storage)
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	storage, err := core.OpenSnapshotStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open snapshot storage: %w", err)
	}
	a.snapshot = storage
	a.registry = prometheus.NewRegistry()
	a.logger.Debug("storage opened", zap.String("driver", string(cfg.StorageDriver)))
	return nil
}

func (a *app) teardown() error {
	var err error
	if a.snapshot != nil {
		err = a.snapshot.Close()
		a.snapshot = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return err
}

func (a *app) datasets() (domain.Datasets, error) {
	if a.dataFile != "" {
		return dataset.LoadFile(a.dataFile)
	}
	seed := a.cfg.DataSeed
	if a.seedSet {
		seed = a.seed
	}
	return dataset.Generate(dataset.DefaultGeneratorConfig(seed)), nil
}

// newStore builds a store wired to the opened storage and datasets.
func (a *app) newStore() (*core.Store, error) {
	ds, err := a.datasets()
	if err != nil {
		return nil, err
	}
	return core.NewStore(
		core.WithLogger(a.logger),
		core.WithMetrics(core.NewMetrics(a.registry)),
		core.WithSnapshotStorage(a.snapshot),
		core.WithSnapshotPrefix(a.cfg.SnapshotPrefix),
		core.WithDatasets(ds),
	), nil
}

// applySettings loads an optional snapshot and then applies key=value
// overrides as a single control update.
func (a *app) applySettings(ctx context.Context, store *core.Store, load string, set map[string]string) error {
	if load != "" && !store.LoadState(ctx, load) {
		return fmt.Errorf("snapshot %q not found", load)
	}
	if len(set) == 0 {
		return nil
	}
	u, unknown, err := domain.UpdateFromMap(set)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: %v", domain.ErrUnknownField, unknown)
	}
	store.Update(u, "control")
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func datasetCounts(ds domain.Datasets) map[string]int {
	out := make(map[string]int, len(ds))
	for name, records := range ds {
		out[name] = len(records)
	}
	return out
}

func dimensionNames() []string {
	dims := core.Dimensions()
	names := make([]string, len(dims))
	for i, d := range dims {
		names[i] = string(d)
	}
	sort.Strings(names)
	return names
}
