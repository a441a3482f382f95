package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/acstore/replenishment/internal/api"
	"github.com/acstore/replenishment/internal/cache"
	"github.com/acstore/replenishment/internal/config"
	"github.com/acstore/replenishment/internal/domain"
	"github.com/acstore/replenishment/internal/repository"
	"github.com/acstore/replenishment/internal/repository/postgres"
	"github.com/acstore/replenishment/internal/service"
	"github.com/acstore/replenishment/internal/storage"
	"github.com/acstore/replenishment/pkg/logger"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "replan",
		Usage: "Replenishment planning: batch runs and purchase suggestions",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Execute one full planning cycle",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "brand",
						Usage: "Restrict the run to one brand",
					},
					&cli.IntFlag{
						Name:  "coverage-days",
						Usage: "Coverage window for the suggestion pass (0 uses stored max targets)",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size (0 uses the CPU count)",
					},
				},
				Action: runCycle,
			},
			{
				Name:  "suggest",
				Usage: "Evaluate a purchase suggestion for one product",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "product",
						Usage:    "Product id to evaluate",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "coverage-days",
						Usage: "Coverage window in days (0 uses the stored max target)",
					},
					&cli.StringFlag{
						Name:  "quotation",
						Usage: "Pending quotation id to analyze the order against",
					},
				},
				Action: runSuggest,
			},
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: runServe,
			},
			{
				Name:  "artifacts",
				Usage: "List or download archived run artifacts",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Key prefix to list",
						Value: "runs/",
					},
					&cli.StringFlag{
						Name:  "get",
						Usage: "Object key to download instead of listing",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Destination directory for downloads",
						Value: ".",
					},
				},
				Action: runArtifacts,
			},
			{
				Name:   "check",
				Usage:  "Report the freshness and health of the latest run",
				Action: runCheck,
			},
			{
				Name:  "service",
				Usage: "Run the planning cycle on a schedule",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "brand",
						Usage: "Restrict runs to one brand",
					},
				},
				Action: runService,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}

// deps bundles the wired collaborators every command needs.
type deps struct {
	cfg     *config.Config
	planner *service.PlannerService
	replan  *service.ReplanService
	results repository.ResultRepository
	archive storage.ObjectStorage
	close   func()
}

func buildDeps() (*deps, error) {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sourceDB, err := postgres.NewSourceDB(cfg.Source.URL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to source database: %w", err)
	}

	suggestionCache, err := cache.NewSuggestionCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("suggestion cache unavailable, continuing without cache")
		suggestionCache = cache.NewNoopSuggestionCache()
	}

	var archive storage.ObjectStorage
	if cfg.Storage.Enabled {
		archive, err = storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage unavailable, runs will not be archived")
			archive = nil
		}
	}

	results := postgres.NewResultRepository(db)
	source := postgres.NewSourceRepository(sourceDB, cfg.Source.Company)
	store := postgres.NewBaselineStore(db)
	replan := service.NewReplanService(results, source, suggestionCache)
	planner := service.NewPlannerService(source, results, store, archive, replan, 0)

	return &deps{
		cfg:     cfg,
		planner: planner,
		replan:  replan,
		results: results,
		archive: archive,
		close: func() {
			sourceDB.Close()
			db.Close()
		},
	}, nil
}

func runCycle(c *cli.Context) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	coverage := c.Int("coverage-days")
	if coverage == 0 {
		coverage = d.cfg.Planner.DefaultCoverageDays
	}

	result, err := d.planner.Run(c.Context, service.RunOptions{
		Brand:        c.String("brand"),
		CoverageDays: coverage,
	})
	if err != nil {
		return err
	}

	logger.Log.Info().
		Int("metrics", len(result.Metrics)).
		Int("layers", len(result.Layers)).
		Int("flags", len(result.Flags)).
		Int("changes", len(result.Changes)).
		Msg("planning cycle complete")
	return nil
}

func runSuggest(c *cli.Context) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	rec, err := d.replan.SuggestProduct(
		c.Context, c.String("product"), c.Int("coverage-days"), c.String("quotation"))
	if err != nil {
		return err
	}

	fmt.Printf("Produto:    %s\n", rec.ProductID)
	fmt.Printf("Status:     %s\n", rec.Status)
	fmt.Printf("Prioridade: %s\n", rec.Priority)
	fmt.Printf("Min/Max:    %d / %d\n", rec.MinTarget, rec.MaxTarget)
	fmt.Printf("Projetado:  %.0f\n", rec.ProjectedStock)
	fmt.Printf("Sugestão:   %d\n", rec.SuggestedQty)
	fmt.Printf("Motivo:     %s\n", rec.Rationale)
	return nil
}

func runServe(c *cli.Context) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	if d.cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(&api.Services{ReplanService: d.replan}, d.cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:    ":" + d.cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info().Str("port", d.cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runArtifacts(c *cli.Context) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	if d.archive == nil {
		return fmt.Errorf("object storage is not configured")
	}

	if key := c.String("get"); key != "" {
		dest := filepath.Join(c.String("out"), filepath.Base(key))
		if err := d.archive.DownloadObject(c.Context, key, dest); err != nil {
			return err
		}
		fmt.Printf("Salvo em %s\n", dest)
		return nil
	}

	objects, err := d.archive.ListObjects(c.Context, c.String("prefix"))
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		fmt.Println("Nenhum artefato encontrado.")
		return nil
	}
	for _, obj := range objects {
		fmt.Printf("%10d  %s\n", obj.Size, obj.Key)
	}
	return nil
}

func runCheck(c *cli.Context) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	runDate, err := d.results.GetLatestRunDate(c.Context)
	if err != nil {
		return err
	}
	if runDate.IsZero() {
		return fmt.Errorf("no planning run found")
	}

	flags, err := d.results.GetFlags(c.Context, runDate)
	if err != nil {
		return err
	}
	metrics, err := d.results.GetMetrics(c.Context, runDate)
	if err != nil {
		return err
	}

	age := time.Since(runDate)
	fmt.Printf("Última execução: %s (%d dias atrás)\n",
		runDate.Format("2006-01-02"), int(age.Hours()/24))
	fmt.Printf("Produtos analisados: %d\n", len(metrics))
	fmt.Printf("Divergências de estoque: %d\n", len(flags))

	sort.Slice(metrics, func(i, j int) bool {
		vi, vj := metrics[i].ValueSold, metrics[j].ValueSold
		if !domain.IsDefined(vi) {
			vi = 0
		}
		if !domain.IsDefined(vj) {
			vj = 0
		}
		return vi > vj
	})
	if len(metrics) > 0 {
		fmt.Println("Maiores vendas:")
		for i, rec := range metrics {
			if i == 5 {
				break
			}
			fmt.Printf("  %-12s %-8s R$ %.2f\n", rec.ProductID, rec.ABCClass, rec.ValueSold)
		}
	}

	if age > time.Duration(d.cfg.Planner.IntervalDays)*24*time.Hour {
		return fmt.Errorf("last run is older than the %d-day interval", d.cfg.Planner.IntervalDays)
	}
	return nil
}

func runService(c *cli.Context) error {
	d, err := buildDeps()
	if err != nil {
		return err
	}
	defer d.close()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Log.Info().Msg("shutting down planner service")
		cancel()
	}()

	statePath := d.cfg.Planner.StateFile
	interval := d.cfg.Planner.IntervalDays
	brand := c.String("brand")

	logger.Log.Info().
		Int("interval_days", interval).
		Str("state_file", statePath).
		Msg("planner service started")

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		state, err := loadRunState(statePath)
		if err != nil {
			logger.Log.Error().Err(err).Msg("could not load run state")
		} else if dueForRun(state, interval, time.Now()) {
			logger.Log.Info().Msg("planning cycle due, starting")
			if _, err := d.planner.Run(ctx, service.RunOptions{
				Brand:        brand,
				CoverageDays: d.cfg.Planner.DefaultCoverageDays,
			}); err != nil {
				// Failed runs are retried on the next tick; state is
				// only advanced after success.
				logger.Log.Error().Err(err).Msg("planning cycle failed")
			} else if err := saveRunState(statePath, runState{LastRun: time.Now()}); err != nil {
				logger.Log.Error().Err(err).Msg("could not persist run state")
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
