// reconcile-cron runs the annual charge reconciliation batch from a scheduler
// (Cloud Scheduler job or cron container), with no HTTP surface and no caller
// identity.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/reconcile-cron -scope all -year 2025
//   go run ./cmd/reconcile-cron -scope lease -lease-id 42 -year 2025
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	scope := flag.String("scope", "all", "Reconciliation scope: 'all' or 'lease'.")
	year := flag.Int("year", time.Now().UTC().Year()-1, "Reconciliation year. Defaults to the previous calendar year.")
	leaseId := flag.Int("lease-id", 0, "Lease id, required when scope is 'lease'.")
	concurrency := flag.Int("concurrency", 4, "Max leases reconciled in parallel.")
	flag.Parse()

	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	runner := workflow.NewBatchRunner(db, logger)
	runner.Authorizer = workflow.SystemAuthorizer{}
	runner.Concurrency = *concurrency

	start := time.Now()
	result, err := runner.Run(context.Background(), workflow.ReconciliationScope(*scope), *year, *leaseId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconciliation run failed: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"field":      "reconcile-cron",
		"scope":      *scope,
		"year":       *year,
		"reconciled": len(result.Records),
		"failed":     len(result.Errors),
		"elapsed":    time.Since(start).String(),
	}).Info("reconciliation batch finished")

	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "lease %d: %s\n", e.LeaseId, e.Error)
	}
	fmt.Printf("Reconciled %d lease(s), %d failure(s) for year %d\n", len(result.Records), len(result.Errors), *year)
	if len(result.Errors) > 0 {
		os.Exit(2)
	}
}
