package main

import (
	"context"
	"flag"
	"os"

	"github.com/yigit/courseenroll/internal/bootstrap"
	"github.com/yigit/courseenroll/internal/pkg/logger"
	"github.com/yigit/courseenroll/internal/server"
)

// @title Course Enrollment API
// @version 1.0
// @description Course enrollment under concurrent load with selectable concurrency strategies.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /
// @schemes http https

func main() {
	configPath := flag.String("config", bootstrap.DefaultConfigPath, "path to the YAML config file")
	flag.Parse()

	srv, err := server.NewServer(context.Background(), *configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until a shutdown signal
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
