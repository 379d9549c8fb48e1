package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/akavel/dodo"
)

var (
	verbose    bool
	adapter    string
	storePath  string
	namespace  string
	format     string
	versioning bool
	autoInit   bool

	envConfig dodo.EnvConfig
	envErr    error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dodo",
	Short: "Persist an application document in a key-value store",
	Long: `dodo saves and loads one application document under a fixed key.
Loaded documents are normalized to the current schema: the "v1" field is
always present. Defaults come from DODO_* environment variables.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)

		if envErr != nil {
			fatal("Invalid environment", envErr)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// defaultPath is the --path default: DODO_PATH when set, otherwise the storage
// root above the working directory, otherwise the env default.
func defaultPath(env dodo.EnvConfig) string {
	if _, ok := os.LookupEnv("DODO_PATH"); ok {
		return env.Path
	}
	if root, err := dodo.FindRoot("."); err == nil {
		return root
	}
	return env.Path
}

// openBridge builds a bridge from the global flags.
func openBridge() *dodo.Bridge {
	opts := []dodo.Option{
		dodo.WithAdapter(adapter),
		dodo.WithNamespace(namespace),
		dodo.WithFormat(format),
		dodo.WithVersioning(versioning),
		dodo.WithAutoInit(autoInit),
		dodo.WithLogger(slog.Default()),
	}
	if envConfig.Timeout > 0 {
		opts = append(opts, dodo.WithOperationTimeout(envConfig.Timeout))
	}

	b, err := dodo.New(storePath, opts...)
	if err != nil {
		fatal("Failed to initialize dodo", err)
	}
	return b
}

func init() {
	envConfig, envErr = dodo.LoadEnv()

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&adapter, "adapter", envConfig.Adapter, "Storage adapter (fs, sqlite, memory)")
	flags.StringVar(&storePath, "path", defaultPath(envConfig), "Storage directory or database file")
	flags.StringVar(&namespace, "namespace", envConfig.Namespace, "Store key of the document")
	flags.StringVar(&format, "format", envConfig.Format, "Document format (json, yaml)")
	flags.BoolVar(&versioning, "versioning", false, "Commit every fs write to git")
	flags.BoolVar(&autoInit, "auto-init", false, "Create the git repository if missing (with --versioning)")
}
