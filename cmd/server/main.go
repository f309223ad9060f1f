package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"incommon/internal/config"
	"incommon/internal/db"
	"incommon/internal/docstore"
	"incommon/internal/game"
	"incommon/internal/server"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

const releaseVersion = "0.1.0"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	v := config.NewViper()

	cmd := &cobra.Command{
		Use:           "incommon",
		Short:         "Party game server for Incommon, Out of Words, Words and Scattergories.",
		Args:          cobra.ExactArgs(0),
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	config.Flags(fs)
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	logger := config.SetupLogging(cfg.LogLevel, cfg.LogPretty)

	var conn *gorm.DB
	var store docstore.Store
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Open(cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return err
		}
		if err := db.Migrate(conn); err != nil {
			return err
		}
		store = docstore.NewGormStore(conn)
		logger.Info().Msg("documents stored in postgres")
	} else {
		store = docstore.NewMemoryStore()
		logger.Warn().Msg("no database configured; documents kept in memory")
	}

	ctl := game.NewController(store, controllerOptions(cfg, conn, logger), logger)
	srv := server.New(ctl, store, conn, cfg, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:           srv.Handler(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("incommon server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func controllerOptions(cfg config.Config, conn *gorm.DB, logger zerolog.Logger) game.Options {
	opts := game.DefaultOptions()
	opts.MinPlayers = cfg.MinPlayers
	opts.MaxPlayers = cfg.MaxPlayers
	opts.DeckSize = cfg.DeckSize
	opts.PromptOptions = cfg.PromptOptions
	opts.ScatterCategories = cfg.ScatterCategories
	opts.RevealHold = cfg.RevealHold
	opts.Thresholds = game.Thresholds{
		ClosestScoreDiff: cfg.ClosestScoreDiff,
		Overlap:          cfg.OverlapThreshold,
	}

	card := opts.Defaults[game.ModeCardMatch]
	card.Rounds = cfg.CardRounds
	opts.Defaults[game.ModeCardMatch] = card
	word := opts.Defaults[game.ModeWordFind]
	word.Rounds = cfg.WordRounds
	word.RoundSeconds = cfg.WordSeconds
	word.MinWordLength = cfg.MinWordLength
	opts.Defaults[game.ModeWordFind] = word
	scatter := opts.Defaults[game.ModeScattergories]
	scatter.Rounds = cfg.ScatterRounds
	scatter.RoundSeconds = cfg.ScatterSeconds
	opts.Defaults[game.ModeScattergories] = scatter

	opts.Words = server.NewLibraryWords(conn, game.EmbeddedWords{})
	opts.Events = server.NewEventRecorder(conn, logger)
	switch {
	case cfg.WordlistPath != "":
		opts.Dictionary = game.NewWordList(game.FileDictionary(cfg.WordlistPath))
	case cfg.WordlistURL != "":
		opts.Dictionary = game.NewWordList(game.URLDictionary(nil, cfg.WordlistURL))
	default:
		opts.Dictionary = game.NewWordList(game.EmbeddedDictionary())
	}
	return opts
}
