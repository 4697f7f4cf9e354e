package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/mansoorceksport/payroll-backoffice/internal/config"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/mansoorceksport/payroll-backoffice/internal/logger"
	"github.com/mansoorceksport/payroll-backoffice/internal/repository"
	"github.com/mansoorceksport/payroll-backoffice/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Seeds a SYSTEM_ADMIN identity. Re-running it only re-applies the roles.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Env: cfg.Server.Env})

	req := domain.RegisterRequest{
		FirstName:      envOr("SEED_ADMIN_FIRST_NAME", "System"),
		LastName:       envOr("SEED_ADMIN_LAST_NAME", "Administrator"),
		NationalID:     os.Getenv("SEED_ADMIN_NATIONAL_ID"),
		EmployeeNumber: os.Getenv("SEED_ADMIN_EMPLOYEE_NUMBER"),
		Password:       os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = log.WithContext(ctx)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDB.Database)
	profiles := repository.NewMongoEmployeeProfileRepository(db)
	roles := repository.NewMongoSystemRoleRepository(db)
	auth := service.NewAuthService(profiles, roles, service.NewPasswordHasher(service.BcryptCost), service.NewTokenService(cfg.JWT))

	var employeeID string
	principal, err := auth.Register(ctx, req)
	switch {
	case err == nil:
		employeeID = principal.EmployeeID
		log.Info().Str("employee_id", employeeID).Msg("admin identity created")
	case errors.Is(err, domain.ErrDuplicateIdentity):
		existing, findErr := profiles.FindByNationalIDOrEmployeeNumber(ctx, req.NationalID, req.EmployeeNumber)
		if findErr != nil {
			log.Fatal().Err(findErr).Msg("failed to load existing admin identity")
		}
		employeeID = existing.ID
		log.Info().Str("employee_id", employeeID).Msg("admin identity already exists")
	default:
		log.Fatal().Err(err).Msg("failed to register admin identity")
	}

	adminRoles := []domain.SystemRole{domain.RoleSystemAdmin, domain.RoleDepartmentEmployee}
	if err := roles.SetRoles(ctx, employeeID, adminRoles, []string{}); err != nil {
		log.Fatal().Err(err).Msg("failed to grant SYSTEM_ADMIN")
	}

	count, err := profiles.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count employee profiles")
	}
	log.Info().Int64("employee_profiles", count).Strs("roles", domain.RoleNames(adminRoles)).Msg("seed complete")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
