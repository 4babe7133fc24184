package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/DivyanshuTiwari-1/makeupai/internal/config"
	"github.com/DivyanshuTiwari-1/makeupai/internal/db"
	"github.com/DivyanshuTiwari-1/makeupai/internal/model"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo profiles...")

		if err := seedProfiles(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

type demoProfile struct {
	id         string
	credits    int
	subscribed bool
}

// seedProfiles inserts deterministic demo profiles (idempotent).
func seedProfiles(dbx *sqlx.DB) error {
	profiles := []demoProfile{
		{id: "00000000-0000-0000-0000-000000000001", credits: model.DefaultFreeCredits, subscribed: false},
		{id: "00000000-0000-0000-0000-000000000002", credits: 1, subscribed: false},
		{id: "00000000-0000-0000-0000-000000000003", credits: 0, subscribed: false},
		{id: "00000000-0000-0000-0000-000000000004", credits: 0, subscribed: true},
	}

	// idempotent upsert keyed on the profile id
	const q = `
INSERT INTO profiles
    (id, credit_count, is_subscribed, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    credit_count  = VALUES(credit_count),
    is_subscribed = VALUES(is_subscribed),
    updated_at    = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, p := range profiles {
		if _, err := tx.Exec(q, p.id, p.credits, p.subscribed, now, now); err != nil {
			return fmt.Errorf("insert profile %q: %w", p.id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profiles: %w", err)
	}
	return nil
}
