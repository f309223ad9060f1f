package main

import (
	"fmt"

	"incommon/internal/config"
	"incommon/internal/db"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	config.SetupLogging("info", true)
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	v := config.NewViper()
	cmd := &cobra.Command{
		Use:           "load-words [file]",
		Short:         "Load prompt words and categories from a kind,language,text CSV.",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "db/words.csv"
			if len(args) == 1 {
				path = args[0]
			}
			conn, err := db.Open(v.GetString("database-url"), db.PoolConfig{MaxOpenConns: 2})
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			inserted, err := db.LoadWordLibrary(conn, path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			log.Info().Int("inserted", inserted).Str("file", path).Msg("word library loaded")
			return nil
		},
	}
	cmd.Flags().String("database-url", "", "postgres connection string (env: INCOMMON_DATABASE_URL)")
	_ = v.BindPFlag("database-url", cmd.Flags().Lookup("database-url"))
	return cmd
}
