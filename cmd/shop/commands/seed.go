package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/shopping_app/internal/repo"
	"github.com/Skotchmaster/shopping_app/internal/seed"
)

var force bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo products",
	Long: `Insert the demo catalog (T-shirt, Hoodie, Sneakers).

Without --force nothing happens when products already exist.
With --force every product, and every cart line, is deleted first.`,
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

		r := repo.New(db)
		if force {
			prods, err := seed.Force(cmd.Context(), r)
			if err != nil {
				return err
			}
			logger.Info("seed_success", "inserted", len(prods), "force", true)
			return nil
		}

		prods, err := seed.IfEmpty(cmd.Context(), r)
		if err != nil {
			return err
		}
		logger.Info("seed_success", "inserted", len(prods), "force", false)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVarP(&force, "force", "f", false, "Replace existing products")
}
