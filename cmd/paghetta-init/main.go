// Command paghetta-init provisions the guardian and dependent accounts.
// It is idempotent: existing accounts get their credentials refreshed
// instead of being duplicated.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"paghetta/internal/auth"
	"paghetta/internal/cli"
	"paghetta/internal/core"
	"paghetta/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	guardianUser := os.Getenv("GUARDIAN_USERNAME")
	guardianPass := os.Getenv("GUARDIAN_PASSWORD")
	dependentUser := os.Getenv("DEPENDENT_USERNAME")
	dependentPass := os.Getenv("DEPENDENT_PASSWORD")
	if guardianUser == "" || guardianPass == "" || dependentUser == "" || dependentPass == "" {
		logger.Error("GUARDIAN_USERNAME, GUARDIAN_PASSWORD, DEPENDENT_USERNAME and DEPENDENT_PASSWORD must all be set")
		os.Exit(1)
	}

	weeklyRate := core.Money{}
	if raw := os.Getenv("WEEKLY_RATE"); raw != "" {
		cents, err := core.ParseDecimalToCents(raw)
		if err != nil || cents < 0 {
			logger.Error("Invalid WEEKLY_RATE", "value", raw)
			os.Exit(1)
		}
		weeklyRate = core.Money{Cents: cents}
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := context.Background()

	if err := provision(ctx, repo, guardianUser, guardianPass, core.RoleGuardian, core.Money{}); err != nil {
		logger.Error("Failed to provision guardian", "username", guardianUser, "error", err)
		os.Exit(1)
	}
	if err := provision(ctx, repo, dependentUser, dependentPass, core.RoleDependent, weeklyRate); err != nil {
		logger.Error("Failed to provision dependent", "username", dependentUser, "error", err)
		os.Exit(1)
	}

	logger.Info("Accounts provisioned",
		"guardian", guardianUser,
		"dependent", dependentUser,
		"weekly_rate", weeklyRate.String())
}

// provision creates the account or refreshes its credentials when it
// already exists. The weekly rate is only set on dependents.
func provision(ctx context.Context, repo *storage.SQLiteRepository, username, password string, role core.Role, rate core.Money) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	existing, err := repo.GetAccountByUsername(ctx, username)
	switch {
	case err == nil:
		if err := repo.UpdateAccountCredentials(ctx, existing.ID, username, hash); err != nil {
			return err
		}
		if role == core.RoleDependent {
			if err := repo.UpdateWeeklyRate(ctx, existing.ID, rate); err != nil {
				return err
			}
		}
		slog.InfoContext(ctx, "Refreshed existing account", "username", username, "role", role)
		return nil
	case errors.Is(err, core.ErrNotFound):
		created, err := repo.CreateAccount(ctx, core.Account{
			Username:     username,
			PasswordHash: hash,
			Role:         role,
			WeeklyRate:   rate,
		})
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "Created account", "username", username, "role", role, "id", created.ID)
		return nil
	default:
		return err
	}
}
