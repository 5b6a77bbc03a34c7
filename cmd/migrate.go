package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mnemo-ai/mnemo/internal/config"
	"github.com/mnemo-ai/mnemo/internal/store/pg"
	"github.com/mnemo-ai/mnemo/internal/store/sqlite"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				fatalf("%v", err)
			}

			if cfg.Store.PostgresDSN != "" {
				db, err := pg.OpenDB(cfg.Store.PostgresDSN)
				if err != nil {
					fatalf("%v", err)
				}
				defer db.Close()
				if err := pg.Migrate(db); err != nil {
					fatalf("migrate: %v", err)
				}
				fmt.Println("Postgres schema up to date")
				return
			}

			// SQLite migrates itself on open.
			if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0o755); err != nil {
				fatalf("create data dir: %v", err)
			}
			st, err := sqlite.Open(cfg.Store.SQLitePath)
			if err != nil {
				fatalf("%v", err)
			}
			defer st.Close()
			fmt.Printf("SQLite schema up to date (%s)\n", cfg.Store.SQLitePath)
		},
	}
}
