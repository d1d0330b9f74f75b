package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/owui-tools/cleanup/config"
	"github.com/owui-tools/cleanup/internal/cleanup"
	"github.com/owui-tools/cleanup/internal/db"
	"github.com/owui-tools/cleanup/internal/logging"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "owui-cleanup",
	Short: "Prune stale data from an Open WebUI deployment",
	Long: `Deletes old chats, unreferenced file rows, unreferenced vector-store
collections, and orphaned upload files from an Open WebUI deployment
backed by PostgreSQL.

The four stages run in dependency order (chats, files, collections,
filesystem) so each stage only removes data already unreachable after
the previous one. Run with --dry-run first; the tool assumes exclusive
maintenance access to both databases.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	addFlags(rootCmd.Flags())
}

// addFlags registers the cleanup flags; split out so tests can build the
// same flag set
func addFlags(flags *pflag.FlagSet) {
	flags.String("main-db-url", "", "connection string of the main Open WebUI database")
	flags.String("vector-db-url", "", "connection string of the pgvector database")
	flags.String("uploads-dir", "", "path to the Open WebUI uploads directory")
	flags.Int("keep-days", 0, "delete unarchived chats older than this many days")
	flags.Bool("dry-run", false, "report what would be deleted without deleting anything")
	flags.Bool("vacuum", false, "run VACUUM ANALYZE on the touched tables after a real run")
	flags.Bool("verbose", false, "log progress at info level")
	flags.Bool("debug", false, "log at debug level, including affected ids; implies --dry-run")
	flags.StringP("config", "c", "", "config file path (default $HOME/.owui-cleanup/config.yaml)")
}

// applyFlags overlays explicitly set flags onto the loaded config, so
// flag values beat config file values, which beat defaults
func applyFlags(cfg *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("main-db-url") {
		cfg.Database.MainURL, _ = flags.GetString("main-db-url")
	}
	if flags.Changed("vector-db-url") {
		cfg.Database.VectorURL, _ = flags.GetString("vector-db-url")
	}
	if flags.Changed("uploads-dir") {
		cfg.Paths.UploadsDir, _ = flags.GetString("uploads-dir")
	}
	if flags.Changed("keep-days") {
		cfg.Retention.KeepDays, _ = flags.GetInt("keep-days")
	}
	if flags.Changed("vacuum") {
		cfg.Vacuum, _ = flags.GetBool("vacuum")
	}
}

// resolveDryRun reports whether the run may mutate anything. --debug
// always forces a dry run, even with an explicit --dry-run=false.
func resolveDryRun(flags *pflag.FlagSet) bool {
	dryRun, _ := flags.GetBool("dry-run")
	debug, _ := flags.GetBool("debug")
	return dryRun || debug
}

func run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cfg, flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	dryRun := resolveDryRun(flags)
	verbose, _ := flags.GetBool("verbose")
	debug, _ := flags.GetBool("debug")

	logger, err := logging.New(verbose, debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()

	mainDB, err := db.New(ctx, cfg.Database.MainURL)
	if err != nil {
		return fmt.Errorf("main database: %w", err)
	}
	defer mainDB.Close()

	vectorDB, err := db.NewVector(ctx, cfg.Database.VectorURL)
	if err != nil {
		return fmt.Errorf("vector database: %w", err)
	}
	defer vectorDB.Close()

	runner := cleanup.New(mainDB.Pool(), vectorDB.Pool(), cleanup.Options{
		UploadsDir: cfg.Paths.UploadsDir,
		KeepDays:   cfg.Retention.KeepDays,
		DryRun:     dryRun,
		Vacuum:     cfg.Vacuum,
	}, logger)

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(res.Render())
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
