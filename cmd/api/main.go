package main

import (
	"os"

	"github.com/yigit/unitime/internal/pkg/logger"
	"github.com/yigit/unitime/internal/server"
)

// @title UniTime API
// @version 1.0
// @description Course scheduling API of the university timetable
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@unitime.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer()
	if err != nil {
		// Setup failures are already logged with their details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Blocks until SIGINT/SIGTERM
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
