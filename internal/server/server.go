package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/payroll-backoffice/internal/config"
	"github.com/mansoorceksport/payroll-backoffice/internal/domain"
	"github.com/mansoorceksport/payroll-backoffice/internal/handler"
	"github.com/mansoorceksport/payroll-backoffice/internal/middleware"
	"github.com/mansoorceksport/payroll-backoffice/internal/repository"
	"github.com/mansoorceksport/payroll-backoffice/internal/service"
	"github.com/mansoorceksport/payroll-backoffice/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	RedisClient *redis.Client
	// ReceiptStore may be nil; receipt uploads then fail with 500
	ReceiptStore domain.ReceiptStore
	Logger       zerolog.Logger
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	// Initialize repositories (creates indexes)
	profileRepo := repository.NewMongoEmployeeProfileRepository(deps.MongoDB)
	roleRepo := repository.NewMongoSystemRoleRepository(deps.MongoDB)
	disputeRepo := repository.NewMongoPayrollDisputeRepository(deps.MongoDB)
	claimRepo := repository.NewMongoReimbursementClaimRepository(deps.MongoDB)
	refundRepo := repository.NewMongoRefundRepository(deps.MongoDB)

	// Initialize services
	tokenService := service.NewTokenService(deps.Config.JWT)
	hasher := service.NewPasswordHasher(service.BcryptCost)
	authService := service.NewAuthService(profileRepo, roleRepo, hasher, tokenService)
	payrollService := service.NewPayrollService(disputeRepo, claimRepo, refundRepo, deps.ReceiptStore)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	payrollHandler := handler.NewPayrollHandler(payrollService, deps.Config.Server.MaxUploadSizeMB)

	app := fiber.New(fiber.Config{
		AppName:      "Payroll Back-Office API",
		BodyLimit:    int(deps.Config.Server.MaxUploadSizeMB * 1024 * 1024),
		ErrorHandler: handler.ErrorHandler,
		ReadTimeout:  30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(deps.Logger))
	app.Use(telemetry.FiberMiddleware(func(c *fiber.Ctx) (string, string) {
		return middleware.EmployeeID(c), middleware.RequestID(c)
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID, X-Request-ID",
		AllowMethods: "GET, POST, PATCH, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "payroll-backoffice",
		})
	})

	idempotent := middleware.Idempotency(deps.RedisClient, deps.Config.Redis.IdempotencyTTL)
	requireToken := middleware.VerifyToken(tokenService)

	// Auth endpoints (public), served at the root and under /v1
	for _, prefix := range []string{"/auth", "/v1/auth"} {
		auth := app.Group(prefix)
		auth.Post("/register", idempotent, authHandler.Register)
		auth.Post("/login", authHandler.Login)
	}
	app.Get("/v1/auth/me", requireToken, authHandler.Me)

	v1 := app.Group("/v1")

	// ===========================================
	// SELF-SERVICE API - /v1/me/* (any authenticated employee)
	// ===========================================
	me := v1.Group("/me", requireToken, idempotent)
	me.Post("/disputes", payrollHandler.CreateMyDispute)
	me.Get("/disputes", payrollHandler.ListMyDisputes)
	me.Post("/claims", payrollHandler.CreateMyClaim)
	me.Get("/claims", payrollHandler.ListMyClaims)
	me.Post("/claims/:id/receipt", payrollHandler.UploadReceipt)
	me.Get("/refunds", payrollHandler.ListMyRefunds)
	me.Get("/payroll-summary", payrollHandler.MySummary)

	// ===========================================
	// BACK-OFFICE API - /v1/payroll/* (HR, payroll and finance staff)
	// ===========================================
	payroll := v1.Group("/payroll", requireToken)

	disputeReviewers := middleware.AuthorizeRole(
		domain.RoleHRManager, domain.RoleHREmployee, domain.RolePayrollSpecialist, domain.RolePayrollManager)
	payroll.Get("/disputes", disputeReviewers, payrollHandler.ListDisputes)
	payroll.Patch("/disputes/:id", disputeReviewers, payrollHandler.ReviewDispute)

	financeStaff := middleware.AuthorizeRole(
		domain.RolePayrollSpecialist, domain.RolePayrollManager, domain.RoleFinanceStaff)
	payroll.Get("/claims", financeStaff, payrollHandler.ListClaims)
	payroll.Patch("/claims/:id", financeStaff, payrollHandler.ReviewClaim)
	payroll.Post("/refunds", financeStaff, payrollHandler.CreateRefund)
	payroll.Get("/refunds", financeStaff, payrollHandler.ListRefunds)
	payroll.Patch("/refunds/:id", financeStaff, payrollHandler.UpdateRefund)

	return app
}
