package models

import (
	"log"

	"github.com/mmdatafocus/rentals_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Profile{}, &User{},
		&Property{}, &Lease{}, &LeaseSigner{},
		&Charge{}, &Provision{}, &Invoice{},
		&Reconciliation{},
		&OutboxEventRecord{},
		&SentReminder{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
