package models

import (
	"log"

	"github.com/gigtally/tally_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Project{}, &ProjectAlias{},
		&FixedCost{},
		&TimeRecord{},
		&ScopeAlert{}, &ScopeRuleState{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
