package models

import (
	"log"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&AreaGroup{}, &Area{},
		&Customer{},
		&Sale{},
		&CashReceipt{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
