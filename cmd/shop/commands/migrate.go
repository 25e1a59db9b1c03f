package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/shopping_app/internal/repo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()
		if cfg.DatabaseURL == "" {
			return errors.New("missing required env DATABASE_URL")
		}

		db, closeDB, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		if err := repo.Migrate(db); err != nil {
			return err
		}
		logger.Info("migrate_success")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
