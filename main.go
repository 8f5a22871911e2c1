package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/chantierflow/backend/internal/alert"
	v1 "github.com/chantierflow/backend/internal/controllers/v1"
	"github.com/chantierflow/backend/internal/forecast"
	"github.com/chantierflow/backend/internal/models"
	"github.com/chantierflow/backend/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Local development configuration lives in a .env file. A missing
	// file is fine, production configures through the environment.
	_ = godotenv.Load()

	// gin uses debug as the default mode, we use release for
	// security reasons
	ginMode, ok := os.LookupEnv("GIN_MODE")
	if !ok {
		gin.SetMode("release")
	} else {
		gin.SetMode(ginMode)
	}

	// Log format can be explicitly set.
	// If it is not set, it defaults to human readable for development
	// and JSON for release
	logFormat, ok := os.LookupEnv("LOG_FORMAT")
	output := io.Writer(os.Stdout)
	if (!ok && gin.IsDebugging()) || (ok && logFormat == "human") {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if gin.IsDebugging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(output).With().Timestamp().Logger()

	dsn, ok := os.LookupEnv("DB_PATH")
	if !ok {
		// Create data directory
		dataDir := filepath.Join(".", "data")
		err := os.MkdirAll(dataDir, os.ModePerm)
		if err != nil {
			log.Fatal().Msg(err.Error())
		}

		dsn = filepath.Join(dataDir, "chantierflow.db")
	}

	// Connect to the database and migrate the schema
	err := models.Connect(dsn)
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	// External advisory source is optional
	if advisoryURL, ok := os.LookupEnv("ADVISORY_URL"); ok {
		v1.SetAdvisoryProvider(forecast.NewHTTPAdvisoryProvider(advisoryURL))
		log.Info().Str("url", advisoryURL).Msg("external advisory source configured")
	}

	// Periodic alert sweep is optional, the detection also runs inline
	// on every mutation
	if schedule, ok := os.LookupEnv("ALERT_CRON"); ok {
		scheduler, err := alert.StartScheduler(models.DB, schedule)
		if err != nil {
			log.Fatal().Msg(err.Error())
		}
		defer scheduler.Stop()
	}

	r, err := router.Router()
	if err != nil {
		log.Fatal().Msg(err.Error())
	}

	if err := r.Run(); err != nil {
		log.Fatal().Msg(err.Error())
	}
}
