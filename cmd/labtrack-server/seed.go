package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/labtrack/labtrack/internal/config"
	"github.com/labtrack/labtrack/internal/domain/catalog"
	"github.com/labtrack/labtrack/internal/domain/identity"
	"github.com/labtrack/labtrack/internal/domain/report"
	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/internal/platform/db"
)

// seedTests is the demo catalog with matching report formats.
var seedTests = []struct {
	name   string
	cost   float64
	params []report.FormatParameter
}{
	{"Complete Blood Count", 350, []report.FormatParameter{
		{Name: "Hemoglobin", Unit: "g/dL", NormalRange: "13.5-17.5"},
		{Name: "WBC Count", Unit: "cells/mcL", NormalRange: "4500-11000"},
		{Name: "Platelet Count", Unit: "lakhs/mcL", NormalRange: "1.5-4.5"},
	}},
	{"Lipid Profile", 500, []report.FormatParameter{
		{Name: "Total Cholesterol", Unit: "mg/dL", NormalRange: "<200"},
		{Name: "HDL Cholesterol", Unit: "mg/dL", NormalRange: ">40"},
		{Name: "LDL Cholesterol", Unit: "mg/dL", NormalRange: "<100"},
		{Name: "Triglycerides", Unit: "mg/dL", NormalRange: "<150"},
	}},
	{"Blood Glucose (Fasting)", 150, []report.FormatParameter{
		{Name: "Fasting Glucose", Unit: "mg/dL", NormalRange: "70-100"},
	}},
	{"Thyroid Panel", 650, []report.FormatParameter{
		{Name: "TSH", Unit: "mIU/L", NormalRange: "0.4-4.0"},
		{Name: "T3", Unit: "ng/dL", NormalRange: "80-200"},
		{Name: "T4", Unit: "mcg/dL", NormalRange: "5.0-12.0"},
	}},
	{"Liver Function Test", 700, []report.FormatParameter{
		{Name: "ALT", Unit: "U/L", NormalRange: "7-56"},
		{Name: "AST", Unit: "U/L", NormalRange: "10-40"},
		{Name: "Bilirubin Total", Unit: "mg/dL", NormalRange: "0.1-1.2"},
	}},
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, tests, and report formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The seed is run from a checkout, not a container, so pick
			// up .env the same way local tooling does.
			_ = godotenv.Load()

			patients, _ := cmd.Flags().GetInt("patients")
			phlebos, _ := cmd.Flags().GetInt("phlebos")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			return runSeed(ctx, pool, patients, phlebos)
		},
	}
	cmd.Flags().Int("patients", 10, "Number of demo patients")
	cmd.Flags().Int("phlebos", 3, "Number of demo phlebotomists")
	return cmd
}

func runSeed(ctx context.Context, pool *pgxpool.Pool, patients, phlebos int) error {
	// Pin every seed write to one connection so the whole run shares a
	// session, keeping output ordering stable under a loaded pool.
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	ctx = db.WithConn(ctx, conn)

	userRepo := identity.NewPGRepository(pool)
	catalogRepo := catalog.NewPGRepository(pool)
	formatRepo := report.NewPGFormatRepository(pool)

	faker := gofakeit.New(0)

	for _, t := range seedTests {
		test := &catalog.Test{ID: uuid.New(), Name: t.name, Cost: t.cost}
		if err := catalogRepo.Create(ctx, test); err != nil {
			return fmt.Errorf("seed test %q: %w", t.name, err)
		}
		format := &report.Format{ID: test.ID, TestName: t.name, Parameters: t.params}
		if err := formatRepo.Create(ctx, format); err != nil {
			return fmt.Errorf("seed format %q: %w", t.name, err)
		}
		fmt.Printf("test: %-28s ₹%.0f (%d parameters)\n", t.name, t.cost, len(t.params))
	}

	fixed := []identity.User{
		{Name: "Admin User", Email: "admin@labtrack.test", Role: auth.RoleAdmin},
		{Name: "Priya Sharma", Email: "priya@labtrack.test", Role: auth.RoleStaff},
		{Name: "Vikram Singh", Email: "vikram@labtrack.test", Role: auth.RoleStaff},
	}
	for i := range fixed {
		if err := userRepo.Create(ctx, &fixed[i]); err != nil {
			return fmt.Errorf("seed user %q: %w", fixed[i].Email, err)
		}
	}

	for i := 0; i < phlebos; i++ {
		phone := faker.Phone()
		u := identity.User{
			Name:  faker.Name(),
			Email: faker.Email(),
			Phone: &phone,
			Role:  auth.RolePhlebo,
		}
		if err := userRepo.Create(ctx, &u); err != nil {
			return fmt.Errorf("seed phlebo: %w", err)
		}
	}

	for i := 0; i < patients; i++ {
		phone := faker.Phone()
		addr := faker.Address().Address
		u := identity.User{
			Name:    faker.Name(),
			Email:   faker.Email(),
			Phone:   &phone,
			Address: &addr,
			Role:    auth.RolePatient,
		}
		if err := userRepo.Create(ctx, &u); err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
	}

	fmt.Printf("seeded %d tests, %d staff/admin, %d phlebos, %d patients at %s\n",
		len(seedTests), len(fixed), phlebos, patients, time.Now().Format(time.RFC3339))
	return nil
}
