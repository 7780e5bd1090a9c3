package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/triumph-js/internal/config"
)

var (
	cfgFile string
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "triumph-js",
	Short: "triumph-js - index JavaScript functions into SQLite",
	Long: `triumph-js walks JavaScript sources, finds named functions and
function-valued properties, and stores their qualified names, signatures,
positions and leading comments in a SQLite file for code completion and
go-to-definition lookups.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			log.SetOutput(io.Discard)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/.triumph/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable progress bars and log output")
}

// loadConfig loads the configuration for rootDir, honoring --config.
func loadConfig(rootDir string) (*config.Config, error) {
	cfg, err := config.NewLoader(rootDir, cfgFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Include patterns: %v\n", cfg.Paths.Include)
		fmt.Fprintf(os.Stderr, "Ignore patterns: %v\n", cfg.Paths.Ignore)
	}
	return cfg, nil
}
