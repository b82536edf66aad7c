package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"fluxpipe/internal/checkpoint"
	"fluxpipe/internal/config"
	"fluxpipe/internal/diet"
	"fluxpipe/internal/httpapi"
	"fluxpipe/internal/lp"
	"fluxpipe/internal/output"
	"fluxpipe/internal/pipeline"
	"fluxpipe/internal/registry"
)

func newSimulateCmd(g *globalOptions) *cobra.Command {
	var progress bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run rich, standard and personalized diet simulations for every sample",
		Example: "  fluxpipe simulate --models-dir models --diet diet.tsv --results-dir results\n" +
			"  fluxpipe simulate --config fluxpipe.yaml --status-addr :9090 --progress",
		Args: cobra.NoArgs,
	}
	f := cmd.Flags()
	f.String("models-dir", "", "Directory holding one community model per sample")
	f.String("sample-prefix", "", "File name prefix stripped from sample ids")
	f.String("diet", "", "Standard diet table")
	f.String("personalized-diet-dir", "", "Directory of <sample>.tsv personalized diets")
	f.String("results-dir", "", "Directory for result tables and the default checkpoint")
	f.String("checkpoint", "", "Checkpoint path (default <results-dir>/checkpoint.json)")
	f.String("checkpoint-driver", "", "Checkpoint store: file|sqlite (default from extension)")
	f.Int("workers", 0, "Concurrent FVA solves (default number of CPUs)")
	f.Float64("fva-fraction", 0, "Fraction of the optimum enforced during FVA (default 1)")
	f.String("status-addr", "", "Serve /status, /healthz, /readyz and /metrics on this address")
	f.String("cors-origins", "", "Comma-separated origins allowed to read the status API")
	f.String("s3-bucket", "", "Write results to this S3 bucket instead of --results-dir")
	f.String("s3-prefix", "", "Key prefix inside --s3-bucket")
	f.String("s3-region", "", "S3 region")
	f.String("s3-endpoint", "", "S3 endpoint override (path-style addressing)")
	f.BoolVar(&progress, "progress", false, "Show a progress bar")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := g.loadConfig()
		if err != nil {
			return err
		}
		if err := applySimulateFlags(cmd, &cfg); err != nil {
			return err
		}
		cfg.ApplyDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		log := g.logger
		if g.logLevel == "" && g.logFormat == "" {
			if log, err = newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return simulate(ctx, cfg, log, progress)
	}
	return cmd
}

// applySimulateFlags copies explicitly set flags over cfg.
func applySimulateFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	str := map[string]*string{
		"models-dir":            &cfg.ModelsDir,
		"sample-prefix":         &cfg.SamplePrefix,
		"diet":                  &cfg.DietFile,
		"personalized-diet-dir": &cfg.PersonalizedDietDir,
		"results-dir":           &cfg.ResultsDir,
		"checkpoint":            &cfg.CheckpointPath,
		"checkpoint-driver":     &cfg.CheckpointDriver,
		"status-addr":           &cfg.StatusAddr,
		"s3-bucket":             &cfg.S3.Bucket,
		"s3-prefix":             &cfg.S3.Prefix,
		"s3-region":             &cfg.S3.Region,
		"s3-endpoint":           &cfg.S3.Endpoint,
	}
	for name, dst := range str {
		if f.Changed(name) {
			v, err := f.GetString(name)
			if err != nil {
				return err
			}
			*dst = v
		}
	}
	if f.Changed("s3-endpoint") {
		cfg.S3.PathStyle = true
	}
	if f.Changed("cors-origins") {
		v, _ := f.GetString("cors-origins")
		cfg.CORSOrigins = splitCSV(v)
	}
	if f.Changed("workers") {
		n, err := f.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = n
	}
	if f.Changed("fva-fraction") {
		v, err := f.GetFloat64("fva-fraction")
		if err != nil {
			return err
		}
		cfg.FVAFraction = v
	}
	return nil
}

func simulate(ctx context.Context, cfg config.Config, log zerolog.Logger, progress bool) error {
	samples, err := registry.LoadDir(cfg.ModelsDir, cfg.SamplePrefix)
	if err != nil {
		return err
	}
	var standard []diet.Entry
	if cfg.DietFile != "" {
		if standard, err = diet.Load(cfg.DietFile); err != nil {
			return err
		}
	}
	store, err := checkpoint.Open(cfg.CheckpointDriver, cfg.CheckpointPath)
	if err != nil {
		return err
	}
	defer store.Close()
	sink, err := output.Open(ctx, output.Config{Dir: cfg.ResultsDir, S3: cfg.S3})
	if err != nil {
		return err
	}

	sess := lp.Observe(lp.NewSimplexSession(lp.Options{
		Tolerance:      cfg.SolverTolerance,
		FeasibilityTol: cfg.FeasibilityTolerance,
	}), httpapi.ObserveSolve)

	bounds := pipeline.DefaultBounds()
	if cfg.CommunityBiomassLower != nil {
		bounds.CommunityBiomassLower = *cfg.CommunityBiomassLower
	}
	bounds.CommunityBiomassUpper = cfg.CommunityBiomassUpper

	var bar *pb.ProgressBar
	if progress {
		bar = pb.New(len(samples))
		bar.Output = os.Stderr
		bar.Start()
		defer bar.Finish()
	}
	drv := pipeline.NewWithConfig(pipeline.DriverConfig{
		Samples:             samples,
		Diet:                standard,
		PersonalizedDietDir: cfg.PersonalizedDietDir,
		Session:             sess,
		Store:               store,
		Sink:                sink,
		Publisher:           pipeline.MultiPublisher{httpapi.MetricsPublisher{}},
		Logger:              log,
		FVAFraction:         cfg.FVAFraction,
		Workers:             cfg.Workers,
		RichUptake:          cfg.RichUptake,
		Bounds:              &bounds,
		Progress: func(done, total int) {
			if bar != nil {
				bar.Set(done)
			}
		},
	})

	if cfg.StatusAddr != "" {
		if len(cfg.CORSOrigins) > 0 {
			httpapi.SetCORSOptions(true, cfg.CORSOrigins, nil, nil)
		}
		httpapi.SetLogger(log)
		srv := &http.Server{Addr: cfg.StatusAddr, Handler: httpapi.NewMux(drv), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Info().Str("addr", cfg.StatusAddr).Msg("status server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("status server")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
		}()
	}

	log.Info().Int("samples", len(samples)).Int("diet_entries", len(standard)).Str("checkpoint", cfg.CheckpointPath).Msg("simulation starting")
	res, err := drv.Run(ctx)
	if err != nil {
		if pipeline.IsCheckpointMismatch(err) {
			log.Error().Str("checkpoint", cfg.CheckpointPath).Msg("checkpoint does not match the sample list; remove it to start over")
		}
		return err
	}
	log.Info().Int("samples", len(res.Samples)).Int("infeasible", len(res.Infeasible)).Msg("simulation complete")
	return nil
}
