package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "INCOMMON"

type Config struct {
	Port              int
	DatabaseURL       string
	LogLevel          string
	LogPretty         bool
	TokenSecret       string
	TokenTTL          time.Duration
	MinPlayers        int
	MaxPlayers        int
	CardRounds        int
	WordRounds        int
	ScatterRounds     int
	WordSeconds       int
	ScatterSeconds    int
	MinWordLength     int
	DeckSize          int
	PromptOptions     int
	ScatterCategories int
	RevealHold        time.Duration
	ClosestScoreDiff  int
	OverlapThreshold  int
	WordlistPath      string
	WordlistURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration
}

func Default() Config {
	return Config{
		Port:              8080,
		LogLevel:          "info",
		TokenTTL:          12 * time.Hour,
		MinPlayers:        3,
		MaxPlayers:        12,
		CardRounds:        3,
		WordRounds:        3,
		ScatterRounds:     3,
		WordSeconds:       120,
		ScatterSeconds:    90,
		MinWordLength:     4,
		DeckSize:          52,
		PromptOptions:     5,
		ScatterCategories: 6,
		ClosestScoreDiff:  20,
		OverlapThreshold:  3,
		DBMaxOpenConns:    10,
		DBMaxIdleConns:    10,
		DBConnMaxLifetime: 5 * time.Minute,
		DBConnMaxIdleTime: time.Minute,
	}
}

// Flags registers every setting on fs with its default value.
func Flags(fs *pflag.FlagSet) {
	d := Default()
	fs.IntP("port", "p", d.Port, "port to listen on")
	fs.String("database-url", d.DatabaseURL, "postgres connection string; empty keeps documents in memory")
	fs.String("log-level", d.LogLevel, "log level (trace, debug, info, warn, error)")
	fs.Bool("log-pretty", d.LogPretty, "human readable console logs")
	fs.String("token-secret", d.TokenSecret, "secret used to sign player tokens; random when empty")
	fs.Duration("token-ttl", d.TokenTTL, "player token lifetime")
	fs.Int("min-players", d.MinPlayers, "players required to start a game")
	fs.Int("max-players", d.MaxPlayers, "maximum players per game")
	fs.Int("card-rounds", d.CardRounds, "default rounds for card games")
	fs.Int("word-rounds", d.WordRounds, "default rounds for word games")
	fs.Int("scatter-rounds", d.ScatterRounds, "default rounds for scattergories")
	fs.Int("word-seconds", d.WordSeconds, "word round length in seconds")
	fs.Int("scatter-seconds", d.ScatterSeconds, "scattergories round length in seconds")
	fs.Int("min-word-length", d.MinWordLength, "minimum length of a found word")
	fs.Int("deck-size", d.DeckSize, "cards in a deck")
	fs.Int("prompt-options", d.PromptOptions, "candidate words offered to the chooser")
	fs.Int("scatter-categories", d.ScatterCategories, "categories per scattergories game")
	fs.Duration("reveal-hold", d.RevealHold, "minimum time between reveal steps")
	fs.Int("closest-score-diff", d.ClosestScoreDiff, "largest score gap for the closest scores award")
	fs.Int("overlap-threshold", d.OverlapThreshold, "shared items needed for the overlap award")
	fs.String("wordlist-path", d.WordlistPath, "line-delimited dictionary file")
	fs.String("wordlist-url", d.WordlistURL, "dictionary url, {lang} is replaced by the language code")
	fs.Int("db-max-open-conns", d.DBMaxOpenConns, "database pool max open connections")
	fs.Int("db-max-idle-conns", d.DBMaxIdleConns, "database pool max idle connections")
	fs.Duration("db-conn-max-lifetime", d.DBConnMaxLifetime, "database connection max lifetime")
	fs.Duration("db-conn-max-idle-time", d.DBConnMaxIdleTime, "database connection max idle time")
}

// NewViper returns a viper instance reading INCOMMON_* variables, with every flag default set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	fs := pflag.NewFlagSet("defaults", pflag.ContinueOnError)
	Flags(fs)
	fs.VisitAll(func(f *pflag.Flag) {
		v.SetDefault(f.Name, f.DefValue)
	})
	return v
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return FromViper(NewViper())
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:              v.GetInt("port"),
		DatabaseURL:       v.GetString("database-url"),
		LogLevel:          v.GetString("log-level"),
		LogPretty:         v.GetBool("log-pretty"),
		TokenSecret:       v.GetString("token-secret"),
		TokenTTL:          v.GetDuration("token-ttl"),
		MinPlayers:        v.GetInt("min-players"),
		MaxPlayers:        v.GetInt("max-players"),
		CardRounds:        v.GetInt("card-rounds"),
		WordRounds:        v.GetInt("word-rounds"),
		ScatterRounds:     v.GetInt("scatter-rounds"),
		WordSeconds:       v.GetInt("word-seconds"),
		ScatterSeconds:    v.GetInt("scatter-seconds"),
		MinWordLength:     v.GetInt("min-word-length"),
		DeckSize:          v.GetInt("deck-size"),
		PromptOptions:     v.GetInt("prompt-options"),
		ScatterCategories: v.GetInt("scatter-categories"),
		RevealHold:        v.GetDuration("reveal-hold"),
		ClosestScoreDiff:  v.GetInt("closest-score-diff"),
		OverlapThreshold:  v.GetInt("overlap-threshold"),
		WordlistPath:      v.GetString("wordlist-path"),
		WordlistURL:       v.GetString("wordlist-url"),
		DBMaxOpenConns:    v.GetInt("db-max-open-conns"),
		DBMaxIdleConns:    v.GetInt("db-max-idle-conns"),
		DBConnMaxLifetime: v.GetDuration("db-conn-max-lifetime"),
		DBConnMaxIdleTime: v.GetDuration("db-conn-max-idle-time"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.MinPlayers < 2 {
		return fmt.Errorf("min players must be at least 2: %d", c.MinPlayers)
	}
	if c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("max players %d is below min players %d", c.MaxPlayers, c.MinPlayers)
	}
	if c.MinWordLength < 2 {
		return fmt.Errorf("min word length must be at least 2: %d", c.MinWordLength)
	}
	if c.DeckSize < 5 {
		return fmt.Errorf("deck size must be at least 5: %d", c.DeckSize)
	}
	if c.PromptOptions < 1 {
		return fmt.Errorf("prompt options must be positive: %d", c.PromptOptions)
	}
	if c.ScatterCategories < 1 {
		return fmt.Errorf("scattergories categories must be positive: %d", c.ScatterCategories)
	}
	return nil
}
