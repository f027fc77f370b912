package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/yigit/courseenroll/internal/app/repositories"
	"github.com/yigit/courseenroll/internal/app/services"
	"github.com/yigit/courseenroll/internal/bootstrap"
	"github.com/yigit/courseenroll/internal/contention"
	"github.com/yigit/courseenroll/internal/db"
)

const (
	storeMemory   = "memory"
	storePostgres = "postgres"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("contention: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	defaults := contention.DefaultOptions()

	return &cli.App{
		Name:  "contention",
		Usage: "fire concurrent enrollment requests and check seat invariants per strategy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: bootstrap.DefaultConfigPath, Usage: "path to the YAML config file"},
			&cli.StringFlag{Name: "store", Value: storeMemory, Usage: "backing store: memory or postgres"},
			&cli.StringSliceFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "strategy to run (repeatable); all when omitted"},
			&cli.StringSliceFlag{Name: "scenario", Usage: "hot-course or single-student (repeatable); both when omitted"},
			&cli.IntFlag{Name: "students", Value: defaults.Students, Usage: "students competing in the hot-course scenario"},
			&cli.IntFlag{Name: "capacity", Value: defaults.Capacity, Usage: "seats of the hot course"},
			&cli.IntFlag{Name: "courses", Value: defaults.Courses, Usage: "overlapping courses in the single-student scenario"},
			&cli.IntFlag{Name: "requests-per-course", Value: defaults.RequestsPerCourse, Usage: "repeated requests per course in the single-student scenario"},
			&cli.IntFlag{Name: "concurrency", Value: defaults.Concurrency, Usage: "requests in flight at once"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := optionsFromFlags(c)
	if err != nil {
		return err
	}

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}

	var (
		database  *db.PostgresDB
		txManager repositories.TxManager
	)
	switch c.String("store") {
	case storeMemory:
		txManager = bootstrap.NewTxManager(cfg, nil)
	case storePostgres:
		database, err = bootstrap.SetupDatabase(ctx, cfg, lgr)
		if err != nil {
			return err
		}
		defer database.Close()
		txManager = bootstrap.NewTxManager(cfg, database)
	default:
		return fmt.Errorf("unknown store %q, want %s or %s", c.String("store"), storeMemory, storePostgres)
	}

	deps, err := bootstrap.BuildDependencies(cfg, txManager, database, lgr)
	if err != nil {
		return err
	}

	runner, err := contention.NewRunner(txManager, deps.EnrollmentService, opts, lgr)
	if err != nil {
		return err
	}

	results, err := runner.Run(ctx)
	contention.WriteReport(os.Stdout, results)
	if err != nil {
		return err
	}
	if !contention.AllPassed(results) {
		return cli.Exit("invariant violated", 2)
	}
	color.Green("All invariants held.")
	return nil
}

func optionsFromFlags(c *cli.Context) (contention.Options, error) {
	opts := contention.DefaultOptions()
	opts.Students = c.Int("students")
	opts.Capacity = c.Int("capacity")
	opts.Courses = c.Int("courses")
	opts.RequestsPerCourse = c.Int("requests-per-course")
	opts.Concurrency = c.Int("concurrency")

	if names := c.StringSlice("strategy"); len(names) > 0 {
		opts.Strategies = opts.Strategies[:0]
		for _, name := range names {
			strategyType, err := services.ParseStrategyType(name)
			if err != nil {
				return opts, err
			}
			opts.Strategies = append(opts.Strategies, strategyType)
		}
	}
	if names := c.StringSlice("scenario"); len(names) > 0 {
		opts.Scenarios = opts.Scenarios[:0]
		for _, name := range names {
			opts.Scenarios = append(opts.Scenarios, contention.Scenario(name))
		}
	}

	return opts, opts.Validate()
}
