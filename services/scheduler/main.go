package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/wltrading/whitelabel-backend/shared/analytics"
	"github.com/wltrading/whitelabel-backend/shared/config"
	"github.com/wltrading/whitelabel-backend/shared/store"
)

// Run-once analytics rollup job, intended to be invoked daily by cron or an
// equivalent scheduler. Defaults to the previous UTC day so a run shortly
// after midnight closes out the finished day.
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using environment variables")
	}

	dateFlag := flag.String("date", "", "day to recompute as YYYY-MM-DD (default: yesterday UTC)")
	flag.Parse()

	date := time.Now().UTC().AddDate(0, 0, -1)
	if *dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			log.WithError(err).Fatal("Invalid -date, expected YYYY-MM-DD")
		}
		date = parsed
	}

	db, err := config.ConnectDatabase()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	if err := store.Migrate(db); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	agg := analytics.NewAggregator(store.New(db))

	log.WithField("date", date.Format("2006-01-02")).Info("Recomputing daily analytics")
	results, err := agg.RecomputeAll(context.Background(), date)
	if err != nil {
		log.WithError(err).Fatal("Failed to recompute analytics")
	}

	success, failed := 0, 0
	for _, r := range results {
		if r.Status == "success" {
			success++
			continue
		}
		failed++
		log.WithFields(logrus.Fields{
			"client_id":   r.TenantID,
			"client_name": r.TenantName,
			"error":       r.Error,
		}).Error("Rollup failed for client")
	}

	log.WithFields(logrus.Fields{
		"successful": success,
		"errors":     failed,
	}).Info("Daily analytics recompute finished")
}
