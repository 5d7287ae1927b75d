// remind-cron runs the daily delinquency scan from a scheduler, rendering
// reminders and handing them to the notification dispatcher via the outbox.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... ... go run ./cmd/remind-cron [-as-of 2025-07-15]
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
	asOf := flag.String("as-of", "", "Scan date (YYYY-MM-DD). Defaults to today UTC.")
	flag.Parse()

	now := time.Now().UTC()
	if *asOf != "" {
		parsed, err := time.Parse("2006-01-02", *asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -as-of %q: %v\n", *asOf, err)
			os.Exit(1)
		}
		now = parsed
	}

	logger := config.GetLogger()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	summary, err := workflow.RunReminderScan(context.Background(), db, logger, workflow.OutboxNotifier{DB: db}, now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reminder scan failed: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logrus.Fields{
		"field":    "remind-cron",
		"as_of":    now.Format("2006-01-02"),
		"detected": summary.Detected,
		"sent":     summary.Sent,
		"skipped":  summary.Skipped,
		"failed":   len(summary.Errors),
	}).Info("reminder scan finished")

	for _, e := range summary.Errors {
		fmt.Fprintf(os.Stderr, "invoice %d: %s\n", e.InvoiceId, e.Error)
	}
	fmt.Printf("Detected %d late invoice(s): %d sent, %d skipped, %d failure(s)\n",
		summary.Detected, summary.Sent, summary.Skipped, len(summary.Errors))
	if len(summary.Errors) > 0 {
		os.Exit(2)
	}
}
