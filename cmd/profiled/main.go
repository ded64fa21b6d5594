package main

import (
	"context"
	"easyprofile/internal/backends"
	"easyprofile/internal/ports"
	"easyprofile/internal/types"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	envFile string

	cfg   types.Config
	store ports.ProfileStore

	rootCmd = &cobra.Command{
		Use:   "profiled",
		Short: "Serve and inspect a persisted settings profile",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd.Context())
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", getenv("ENV_FILE", ".env"),
		"dotenv file read before the environment is parsed")
	rootCmd.AddCommand(serveCmd, dumpCmd, setCmd, listCmd)
}

func setup(ctx context.Context) error {
	if err := godotenv.Load(envFile); err != nil {
		log.Info("The .env file not found.")
	}
	var err error
	cfg, err = types.ConfigFromEnv()
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return types.Err(types.ErrInvalidConfig, err, "")
	}
	log.SetLevel(level)

	store, err = backends.ProfileStoreFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize %s backend: %w", cfg.Backend, err)
	}
	log.WithFields(log.Fields{
		"backend":   cfg.Backend,
		"profileID": cfg.ProfileID,
	}).Debug("Profile store ready")
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
