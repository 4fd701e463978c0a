package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/yeremiapane/restaurant-reservations/database"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/services"
)

var reservationsOnly bool

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all tables and their reservations",
	Long: `Deletes every table, cascading to all reservations. With --reservations-only
the tables are kept and only the reservations are removed.

Examples:
  restaurant purge                      # wipe everything
  restaurant purge --reservations-only  # clear the booking book`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPurge(cmd.Context())
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&reservationsOnly, "reservations-only", false, "Keep tables, delete reservations only")
}

func runPurge(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer closeDB()

	var publisher events.Publisher = events.Nop{}
	kafka, err := kafkaPublisher(cfg)
	if err != nil {
		return err
	}
	if kafka != nil {
		defer kafka.Close()
		publisher = kafka
	}

	uow := database.NewUnitOfWork(db)
	defer uow.Close()

	if reservationsOnly {
		return services.NewReservationService(uow, publisher).DeleteAllReservations(ctx)
	}
	return services.NewTableService(uow, publisher).DeleteAllTables(ctx)
}
