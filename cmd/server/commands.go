package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront_back_end/internal/auth"
	"storefront_back_end/internal/database"
	"storefront_back_end/internal/models"
	"storefront_back_end/internal/services"
	"storefront_back_end/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the Postgres schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.ConnectPostgres(cfg); err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(database.Postgres); err != nil {
			return err
		}
		logger.Info("✅ Schema up to date")
		return nil
	},
}

var reindexBatch int

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the Elasticsearch product index from Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.ConnectPostgres(cfg); err != nil {
			return err
		}
		defer database.Close()

		if err := database.ConnectSearch(cfg); err != nil {
			return err
		}
		index := services.NewSearchIndex(database.Elastic)

		ctx := cmd.Context()
		indexed, failed := 0, 0
		err := store.New(database.Postgres).EachProduct(ctx, reindexBatch, func(batch []models.Product) error {
			for _, p := range batch {
				if err := index.IndexProduct(ctx, p); err != nil {
					failed++
					logger.Warn("⚠️ Product not indexed", zap.String("slug", p.Slug), zap.Error(err))
					continue
				}
				indexed++
			}
			return nil
		})
		if err != nil {
			return err
		}
		logger.Info("✅ Reindex finished", zap.Int("indexed", indexed), zap.Int("failed", failed))
		if failed > 0 {
			return fmt.Errorf("%d products failed to index", failed)
		}
		return nil
	},
}

var revokeAdmin bool

var makeAdminCmd = &cobra.Command{
	Use:   "make-admin <user-id>",
	Short: "Grant (or with --revoke, remove) admin rights on a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		if err := database.ConnectPostgres(cfg); err != nil {
			return err
		}
		defer database.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := store.New(database.Postgres).SetAdmin(ctx, id, !revokeAdmin); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no profile with id %s", id)
			}
			return err
		}
		logger.Info("✅ Admin flag updated", zap.Stringer("user_id", id), zap.Bool("is_admin", !revokeAdmin))
		return nil
	},
}

var (
	devTokenEmail string
	devTokenTTL   time.Duration
)

var devTokenCmd = &cobra.Command{
	Use:    "dev-token <user-id>",
	Short:  "Print an access token signed with JWT_SECRET, for local testing",
	Args:   cobra.ExactArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}
		token, err := auth.NewVerifier(cfg.JWTSecret).Sign(id, devTokenEmail, devTokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	reindexCmd.Flags().IntVar(&reindexBatch, "batch", 200, "Products read per batch")
	makeAdminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Remove admin rights instead")
	devTokenCmd.Flags().StringVar(&devTokenEmail, "email", "dev@localhost", "E-mail claim")
	devTokenCmd.Flags().DurationVar(&devTokenTTL, "ttl", time.Hour, "Token lifetime")
}
