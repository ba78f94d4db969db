package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/princeprakhar/biz-directory/internal/config"
	"github.com/princeprakhar/biz-directory/internal/database"
	"github.com/princeprakhar/biz-directory/internal/repository"
	"github.com/princeprakhar/biz-directory/internal/services"
	"github.com/princeprakhar/biz-directory/pkg/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

type openFunc func(cfg *config.Config) (*gorm.DB, error)

// cli holds what every subcommand shares once the root has run.
type cli struct {
	open    openFunc
	envFile string
	timeout time.Duration
	verbose bool

	log logrus.FieldLogger
	db  *gorm.DB
}

func newRootCmd(open openFunc) *cobra.Command {
	c := &cli{open: open}

	root := &cobra.Command{
		Use:           "directoryctl",
		Short:         "Maintenance commands for the business directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.teardown()
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Minute, "Operation timeout")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(c.migrateCmd(), c.recomputeCmd(), c.backfillCmd())
	return root
}

func (c *cli) setup() error {
	if c.envFile != "" {
		// A missing file is normal when the environment is set by the platform.
		_ = godotenv.Load(c.envFile)
	}

	logger.Init()
	if c.verbose {
		logger.L().SetLevel(logrus.DebugLevel)
	}
	c.log = logger.L()

	db, err := c.open(config.Load())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	c.db = db
	return nil
}

func (c *cli) teardown() error {
	if c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *cli) withTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), c.timeout)
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(c.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			c.log.Info("schema is up to date")
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func (c *cli) recomputeCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "recompute-ratings",
		Short: "Recompute every cached rating from its reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()

			reviews := services.NewReviewService(
				repository.NewBusinessRepository(c.db),
				repository.NewReviewRepository(c.db),
				nil,
				c.log,
			)
			report, err := reviews.RecomputeAll(ctx, concurrency)
			if err != nil {
				return fmt.Errorf("recompute ratings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d businesses, fixed %d\n", report.Checked, report.Fixed)
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Businesses reconciled in parallel")
	return cmd
}

func (c *cli) backfillCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "backfill-phone-digits",
		Short: "Fill the normalized phone column for rows created before it existed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := c.withTimeout(cmd)
			defer cancel()

			updated, err := repository.NewBusinessRepository(c.db).BackfillPhoneDigits(ctx, batchSize)
			if err != nil {
				return fmt.Errorf("backfill phone digits: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %d businesses\n", updated)
			return nil
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 500, "Rows updated per batch")
	return cmd
}
