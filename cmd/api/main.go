package main

import (
	"os"

	"github.com/yigit/exchangeintake/internal/pkg/logger"
	"github.com/yigit/exchangeintake/internal/server"
)

// @title Exchange Intake API
// @version 1.0
// @description Course eligibility checks and application intake for student exchange programs

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey AdminCookie
// @in cookie
// @name oiaa_admin_auth
// @description Admin session cookie set by /auth/login

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until a shutdown signal arrives
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
