// Command schedtool is an operator-facing smoke entrypoint for the
// scheduling core: run a generate or validate pass against a configured
// database without going through HTTP. Kept on the standard flag
// package rather than cobra since two subcommands do not earn a
// framework.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sanjshine99/care-app-backend/internal/assignment"
	"github.com/sanjshine99/care-app-backend/internal/config"
	"github.com/sanjshine99/care-app-backend/internal/logging"
	"github.com/sanjshine99/care-app-backend/internal/notify"
	"github.com/sanjshine99/care-app-backend/internal/orchestrator"
	"github.com/sanjshine99/care-app-backend/internal/routing"
	"github.com/sanjshine99/care-app-backend/internal/settings"
	"github.com/sanjshine99/care-app-backend/internal/store/pgstore"
	"github.com/sanjshine99/care-app-backend/internal/validator"
)

const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: schedtool generate -from YYYY-MM-DD -to YYYY-MM-DD [-receiver id] | schedtool validate -from YYYY-MM-DD -to YYYY-MM-DD")
}

func setup(ctx context.Context) (*orchestrator.Orchestrator, *zap.Logger, func()) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	pool, err := pgstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}

	careGivers := pgstore.CareGivers{Pool: pool}
	careReceivers := pgstore.CareReceivers{Pool: pool}
	availability := pgstore.Availability{Pool: pool}
	appointments := pgstore.Appointments{Pool: pool}
	settingsRepo := pgstore.Settings{Pool: pool}

	router := routing.NewDefault()
	if cfg.RoutingAPIKey != "" && cfg.RoutingEndpoint != "" {
		router = routing.NewHTTPClient(routing.Config{APIKey: cfg.RoutingAPIKey, Endpoint: cfg.RoutingEndpoint})
	}

	engine := &assignment.Engine{
		CareGivers:    careGivers,
		CareReceivers: careReceivers,
		Availability:  availability,
		Appointments:  appointments,
		Router:        router,
	}
	v := &validator.Validator{
		CareGivers:    careGivers,
		CareReceivers: careReceivers,
		Availability:  availability,
		Appointments:  appointments,
	}
	orch := &orchestrator.Orchestrator{
		Engine:        engine,
		Validator:     v,
		Settings:      settings.New(settingsRepo),
		Notifier:      notify.NewDefault(cfg.NotifyWebhookURL, logger),
		CareReceivers: careReceivers,
	}

	return orch, logger, func() { pool.Close(); logger.Sync() }
}

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	from := fs.String("from", "", "start date, YYYY-MM-DD")
	to := fs.String("to", "", "end date, YYYY-MM-DD")
	receiver := fs.String("receiver", "", "care receiver id, or all active receivers when omitted")
	fs.Parse(args)

	fromDate, toDate := parseDates(fs, *from, *to)

	ctx := context.Background()
	orch, logger, closeFn := setup(ctx)
	defer closeFn()

	if *receiver != "" {
		result, err := orch.GenerateOne(ctx, *receiver, fromDate, toDate)
		if err != nil {
			logger.Fatal("generate failed", zap.Error(err))
		}
		fmt.Printf("care receiver %s: %d scheduled, %d failed\n", *receiver, len(result.Scheduled), len(result.Failed))
		return
	}

	result, err := orch.GenerateAll(ctx, fromDate, toDate)
	if err != nil {
		logger.Fatal("generate failed", zap.Error(err))
	}
	var scheduled, failed int
	for _, r := range result.Receivers {
		scheduled += len(r.Scheduled)
		failed += len(r.Failed)
	}
	fmt.Printf("%d care receivers processed: %d scheduled, %d failed\n", len(result.Receivers), scheduled, failed)
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	from := fs.String("from", "", "start date, YYYY-MM-DD")
	to := fs.String("to", "", "end date, YYYY-MM-DD")
	fs.Parse(args)

	fromDate, toDate := parseDates(fs, *from, *to)

	ctx := context.Background()
	orch, logger, closeFn := setup(ctx)
	defer closeFn()

	transitions, err := orch.Validate(ctx, fromDate, toDate)
	if err != nil {
		logger.Fatal("validate failed", zap.Error(err))
	}
	for _, t := range transitions {
		fmt.Printf("%s: %s -> %s (%s)\n", t.AppointmentID, t.From, t.To, t.Reason)
	}
	fmt.Printf("%d transition(s) applied\n", len(transitions))
}

func parseDates(fs *flag.FlagSet, from, to string) (time.Time, time.Time) {
	if from == "" || to == "" {
		usage()
		os.Exit(1)
	}
	fromDate, err := time.Parse(dateLayout, from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from: %v\n", err)
		os.Exit(1)
	}
	toDate, err := time.Parse(dateLayout, to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -to: %v\n", err)
		os.Exit(1)
	}
	return fromDate, toDate
}
