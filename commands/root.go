package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yeremiapane/restaurant-reservations/config"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/utils"
	"gorm.io/gorm"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "restaurant",
	Short: "Restaurant table reservation service",
	Long: `Manages restaurant tables and bookings against them. Overlapping
reservations for the same table are rejected.

Configuration is read from the environment, optionally seeded from an env file.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Env file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(purgeCmd)
}

// bootstrap loads the configuration, configures logging and opens the
// migrated database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	utils.ConfigureLogger(cfg.Log)
	cfg.LogConfiguration()

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	utils.InitDB(db)

	if err := migrate(cfg, db); err != nil {
		closeDB()
		return nil, nil, err
	}
	return cfg, db, nil
}

func migrate(cfg *config.Config, db *gorm.DB) error {
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")

	if cfg.OverlapConstraint {
		if err := database.ExecuteConstraints(db); err != nil {
			return err
		}
	}
	return nil
}

// closeDB releases the pool registered by bootstrap.
func closeDB() {
	db := utils.GetDB()
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			utils.ErrorLogger.Errorf("Error closing database: %v", err)
		}
	}
}

// kafkaPublisher returns the Kafka sink when brokers are configured, or nil.
func kafkaPublisher(cfg *config.Config) (*events.KafkaPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, nil
	}
	return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
}
