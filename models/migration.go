package models

import (
	"log"

	"github.com/locallens/presence_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Organization{}, &User{},
		&Location{},
		&PlatformConnection{}, &LocationPlatformID{},
		&NAPSyncRun{}, &NAPSnapshot{}, &NAPDiscrepancy{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
