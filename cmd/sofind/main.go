package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/sofind/sofind/internal/log"
	"github.com/sofind/sofind/internal/model"

	"github.com/spf13/cobra"
)

var (
	configPath string // actual config file used (if loaded)
	config     model.Config

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
	flagAll            bool   // value of --all flag
	flagJobs           int    // value of --jobs flag
	flagMachine        string // value of --machine flag
)

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is sofind.yaml in current directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging")
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "find all matches instead of stopping at the first one")
	rootCmd.Flags().IntVar(&flagJobs, "jobs", 0, "number of parallel scan workers")
	rootCmd.Flags().StringVar(&flagMachine, "machine", "", `only scan binaries of this architecture, e.g. "x86_64"`)

	// never print messages
	rootCmd.SilenceErrors = true

	// parse the config, setup logging
	rootCmd.PersistentPreRunE = initSofind

	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("sofind failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sofind <directory> <symbol>",
	Short: "Find shared objects exporting a symbol",
	Long: `sofind walks a directory tree and reports every ELF shared object whose
dynamic symbol table exports the given function symbol. Matching is exact
and case sensitive. By default the scan stops at the first match; pass
--all to find every one.

The exit status is zero whenever the scan completed, found something or
not. A nonzero status means the scan could not start at all (bad directory
or bad arguments).`,
	Example: `  # find the first shared object exporting puts
  sofind /usr/lib/x86_64-linux-gnu puts

  # find all of them, eight files in parallel
  sofind --all --jobs 8 /usr/lib puts`,
	Args:         cobra.ExactArgs(2),
	RunE:         doFind,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provides the version of sofind",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("sofind: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config: %s\n", configPath)
		}
		fmt.Printf("sofind: %s\n", info.Main.Version)
		fmt.Printf("go:     %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit: %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:   %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:  %s\n", s.Value)
			}
		}
	},
}

func initSofind(cmd *cobra.Command, _ []string) error {
	if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else if envConfig, ok := os.LookupEnv("SOFINDCONFIG"); ok {
		configPath = envConfig
	} else if exists("sofind.yaml") {
		configPath = "sofind.yaml"
	}

	if configPath == "" {
		config = model.DefaultConfig()
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error("invalid configuration", d.Attr("detail"))
			}
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	// flags take precedence over the config file
	if flagVerbose {
		config.Log.Verbose = true
	}
	if cmd.Flags().Changed("all") {
		config.Scan.All = flagAll
	}
	if cmd.Flags().Changed("jobs") {
		if flagJobs < 1 {
			return fmt.Errorf("--jobs must be a positive integer, got %d", flagJobs)
		}
		config.Scan.Jobs = flagJobs
	}
	if cmd.Flags().Changed("machine") {
		config.Scan.Machine = flagMachine
	}

	slog.SetDefault(log.New(os.Stderr, config.Log.Verbose))
	slog.Debug("sofind run", "configPath", configPath, "config", config)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
