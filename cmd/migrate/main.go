package main

import (
	"os"

	pgstore "github.com/dwarvesf/alph-swap-backend/internal/store/postgres"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/config"
	"github.com/dwarvesf/alph-swap-backend/internal/utils/logger"
)

func main() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)
	defer logger.Sync()

	if appConfig.Store.Driver == config.StoreDriverMemory {
		logger.Info("[main] memory store has no schema to migrate")
		return
	}

	pg := pgstore.New(appConfig, logger)
	defer pg.Close()

	if err := pgstore.Migrate(pg.DB(), logger); err != nil {
		logger.Error("[main][Migrate] failed to run migrations", map[string]string{
			"error": err.Error(),
		})
		pg.Close()
		os.Exit(1)
	}
}
