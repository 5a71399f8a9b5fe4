// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"herptrack/internal/core/id"
	"herptrack/internal/infrastructure/storage/postgres"
	"herptrack/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	breederID, err := seedUser(ctx, pool, log, "breeder@herptrack.dev", "Demo Breeder", true)
	if err != nil {
		log.Fatalw("failed to seed breeder user", "error", err)
	}

	buyerID, err := seedUser(ctx, pool, log, "buyer@herptrack.dev", "Demo Buyer", false)
	if err != nil {
		log.Fatalw("failed to seed buyer user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log, breederID, buyerID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger, email, displayName string, isAdmin bool) (id.ID, error) {
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "Herptrack1!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL`,
		email,
	).Scan(&existingID)
	if err == nil {
		log.Infow("user already exists", "email", email, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check user exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	now := time.Now().UTC()

	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, display_name,
			is_active, is_admin, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, true, $5, $6, $6, 1)
	`, userID, email, string(passwordHash), displayName, isAdmin, now)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert user: %w", err)
	}

	log.Infow("user created", "email", email, "user_id", userID)
	return userID, nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger, breederID, buyerID id.ID) error {
	now := time.Now().UTC()

	insertIndividual := func(name, species, sex string, hatchedOn time.Time) (id.ID, error) {
		indID := id.New()
		_, err := pool.Pool.Exec(ctx, `
			INSERT INTO individuals (
				id, owner_id, name, species, sex, sale_status,
				hatched_on, deletion_mark, created_at, updated_at, version
			) VALUES ($1, $2, $3, $4, $5, 'not_for_sale', $6, false, $7, $7, 1)
		`, indID, breederID, name, species, sex, hatchedOn, now)
		if err != nil {
			return id.Nil(), fmt.Errorf("insert individual %s: %w", name, err)
		}
		return indID, nil
	}

	fatherID, err := insertIndividual("Banana", "Python regius", "male",
		time.Date(2021, 5, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return err
	}

	motherID, err := insertIndividual("Pastel", "Python regius", "female",
		time.Date(2020, 7, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		return err
	}

	if _, err := insertIndividual("Mochi", "Correlophus ciliatus", "unknown",
		time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC)); err != nil {
		return err
	}

	matingID := id.New()
	matedOn := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO matings (
			id, owner_id, father_id, mother_id, mated_on, memo,
			deletion_mark, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, 'first pairing of the season', false, $6, $6, 1)
	`, matingID, breederID, fatherID, motherID, matedOn, now)
	if err != nil {
		return fmt.Errorf("insert mating: %w", err)
	}

	log.Infow("demo data created",
		"breeder_id", breederID,
		"buyer_id", buyerID,
		"mating_id", matingID,
	)
	return nil
}
