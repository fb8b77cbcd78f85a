package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "catalog-pricing",
		Short:        "Maintain the denormalized catalog_pricing table",
		SilenceUsage: true,
	}
	root.AddCommand(newGenerateCmd(), newPriceCmd())
	return root
}

func newGenerateCmd() *cobra.Command {
	var progress, atomic bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Rebuild catalog_pricing from purchasables, user groups and active rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, closeFn, err := buildPricingService()
			if err != nil {
				return err
			}
			defer closeFn()

			var out io.Writer
			if progress {
				out = cmd.OutOrStdout()
			}
			result, err := svc.Generate(ctx, service.GenerateOptions{Progress: out, Atomic: atomic})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %d rows for %d purchasables and %d active rules in %dms\n",
				result.Rows, result.Purchasables, result.ActiveRules, result.DurationMs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&progress, "progress", false, "print progress after every batch")
	cmd.Flags().BoolVar(&atomic, "atomic", false, "truncate and insert inside one transaction")
	return cmd
}

func newPriceCmd() *cobra.Command {
	var userID uint

	cmd := &cobra.Command{
		Use:   "price <purchasable-id>",
		Short: "Print the lowest current catalog price of a purchasable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid purchasable id %q: %w", args[0], err)
			}

			svc, closeFn, err := buildPricingService()
			if err != nil {
				return err
			}
			defer closeFn()

			var user *uint
			if cmd.Flags().Changed("user") {
				user = &userID
			}
			price, err := svc.GetCatalogPrice(cmd.Context(), uint(id), user, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tsale=%t\n", price.PurchasableID, price.Price.StringFixed(2), price.IsSale)
			return nil
		},
	}
	cmd.Flags().UintVar(&userID, "user", 0, "price as seen by this user")
	return cmd
}

// buildPricingService wires the pricing service against the configured
// database. The returned func releases the connections.
func buildPricingService() (service.CatalogPricingService, func(), error) {
	cfg := config.Load()
	logger.Init("storefront-catalog-pricing", cfg.LogLevel, true)

	db, err := database.NewConnection(cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	closers := []func(){func() { closeDB(db) }}
	locker := service.NewMutexLocker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		closers = append(closers, func() { _ = rdb.Close() })
		locker = service.NewRedisLocker(rdb, cfg.PricingLockTTL)
	}

	svc := service.NewCatalogPricingService(
		repository.NewCatalogPricingRepository(db),
		repository.NewPurchasableRepository(db),
		repository.NewUserGroupRepository(db),
		repository.NewAuditRepository(db),
		repository.NewTransactionManager(db),
		service.NewRuleCache(repository.NewCatalogPricingRuleRepository(db)),
		locker,
		nil,
		cfg.PricingBatchSize,
	)

	return svc, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
