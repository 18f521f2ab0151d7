// Package main provides a CLI tool for seeding the database with initial data.
//
// Environment:
//
//	DATABASE_URL               required
//	PROGRAMS_CSV               programme sheet to import; the built-in catalogue is used when unset
//	STAFF_EMAIL                seeds one department staff member when set
//	STAFF_ID, STAFF_NAME, STAFF_DEPARTMENT_CODE, STAFF_DEPARTMENT_NAME
//	REGISTRATION_NUMBER_START  value the registration counter is created with
//	APPLICATION_NUMBER_START   value the application counter is created with
//	RESET_COUNTERS=true        overwrite existing counters with the start values
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	coresequence "admissions/internal/core/sequence"
	"admissions/internal/domain/auth"
	"admissions/internal/domain/program"
	"admissions/internal/infrastructure/storage/postgres"
	"admissions/internal/infrastructure/storage/postgres/program_repo"
	"admissions/internal/infrastructure/storage/postgres/staff_repo"
	"admissions/pkg/logger"
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

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalw("failed to load .env", "error", err)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	if err := postgres.Migrate(ctx, txManager); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	if err := seedPrograms(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed programs", "error", err)
	}

	if err := seedStaff(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed staff", "error", err)
	}

	if err := seedCounters(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed counters", "error", err)
	}

	log.Info("seeding completed successfully")
}

func seedPrograms(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	programs := builtinPrograms()
	source := "built-in catalogue"

	if path := os.Getenv("PROGRAMS_CSV"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()

		programs, err = program.ReadCSV(f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		source = path
	}

	service := program.NewService(program_repo.NewRepo(txm), txm)
	if err := service.Import(ctx, programs); err != nil {
		return err
	}

	log.Infow("programs seeded", "source", source, "count", len(programs))
	return nil
}

func seedStaff(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	email := os.Getenv("STAFF_EMAIL")
	if email == "" {
		log.Info("STAFF_EMAIL not set; skipping staff seed")
		return nil
	}

	staff := auth.NewStaff(
		getEnv("STAFF_ID", "STAFF001"),
		getEnv("STAFF_NAME", "Department Coordinator"),
		getEnv("STAFF_DEPARTMENT_CODE", "ECO"),
		email,
	)
	staff.DepartmentName = getEnv("STAFF_DEPARTMENT_NAME", "Economics")

	if err := staff.Validate(ctx); err != nil {
		return err
	}
	if err := staff_repo.NewRepo(txm).Upsert(ctx, staff); err != nil {
		return err
	}

	log.Infow("staff seeded", "staff_id", staff.StaffID, "email", staff.CollegeEmail, "department", staff.DepartmentCode)
	return nil
}

// seedCounters creates the number counters at their start values. Existing
// counters are left alone unless RESET_COUNTERS=true.
func seedCounters(ctx context.Context, txm *postgres.TxManager, log *logger.Logger) error {
	store := postgres.NewSequenceStore(txm)
	reset := os.Getenv("RESET_COUNTERS") == "true"

	regStart, err := getEnvInt64("REGISTRATION_NUMBER_START", coresequence.DefaultRegistrationStart)
	if err != nil {
		return err
	}
	appStart, err := getEnvInt64("APPLICATION_NUMBER_START", coresequence.DefaultApplicationStart)
	if err != nil {
		return err
	}
	starts := map[string]int64{
		coresequence.RegistrationNumber: regStart,
		coresequence.ApplicationNumber:  appStart,
	}

	for name, start := range starts {
		current, exists, err := store.Current(ctx, name)
		if err != nil {
			return err
		}
		if exists && !reset {
			log.Infow("counter already initialised", "sequence", name, "value", current)
			continue
		}
		if err := store.Set(ctx, name, start); err != nil {
			return err
		}
		log.Infow("counter initialised", "sequence", name, "value", start, "next", start+1)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s=%q: %w", key, value, err)
	}
	return n, nil
}
