package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abhisek/pylearn/internal/config"
	"github.com/abhisek/pylearn/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "pylearn",
	Short: "Learner progress and adaptation engine",
	Long: "pylearn tracks learner progress on a Python curriculum: points, levels, streaks,\n" +
		"achievements, spaced repetition and adaptive learning paths.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to the database file, or directory for the file backend (overrides PYLEARN_DB)")
	pf.String("backend", "", "Store backend: sqlite or file (overrides PYLEARN_STORE)")
	pf.String("catalog", "", "Catalog YAML file (overrides PYLEARN_CATALOG; default is the built-in catalog)")
	pf.String("env", ".env", "Path to a .env file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(reviewsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(dailyCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the environment and applies the persistent flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env")
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Store.Backend = v
	}
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.Store.Path = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.CatalogPath = v
	}
	return cfg, cfg.Validate()
}

// resolveDBPath returns the store location: the configured path (--db flag,
// then PYLEARN_DB), otherwise the default XDG path. The file backend keeps
// its records in a directory next to the default database file.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Store.Path; p != "" {
		if cfg.Store.Backend == store.BackendFile {
			return p, os.MkdirAll(p, 0o755)
		}
		return p, os.MkdirAll(filepath.Dir(p), 0o755)
	}
	p, err := store.DefaultDBPath()
	if err != nil {
		return "", err
	}
	if cfg.Store.Backend == store.BackendFile {
		return filepath.Join(filepath.Dir(p), "records"), nil
	}
	return p, nil
}
