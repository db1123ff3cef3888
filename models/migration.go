package models

import (
	"log"

	"bitbucket.org/gobdata/seguimiento_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Ministerio{}, &Linea{}, &Indicador{},
		&Carga{},
		&User{},
		&SheetSyncRun{}, &SheetSyncError{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
