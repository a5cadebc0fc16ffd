package routes

import (
	"assofund/internal/adapters/http/handlers"
	"assofund/internal/adapters/http/middleware"
	"assofund/internal/adapters/persistence/repositories"
	"assofund/internal/config"
	"assofund/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Services bundles the long-lived services so main can hand them to cron.
type Services struct {
	Auth       *services.AuthService
	Member     *services.MemberService
	Allocation *services.AllocationService
	Arrears    *services.ArrearsService
	Period     *services.PeriodService
	Reminder   *services.ReminderService
}

// Setup wires repositories, services and handlers onto the app and
// returns the service bundle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *Services {
	// Repositories
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	obligationRepo := repositories.NewObligationRepository(db)
	creditRepo := repositories.NewCreditRepository(db)
	debtRepo := repositories.NewInitialDebtRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	reminderRepo := repositories.NewReminderRepository(db)

	// One lock registry serializes all per-member ledger operations
	locks := services.NewLockRegistry()
	notifier := services.NewNotificationService(cfg)

	// Services
	authService := services.NewAuthService(userRepo, tokenRepo, cfg)
	memberService := services.NewMemberService(memberRepo)
	allocationService := services.NewAllocationService(
		db, obligationRepo, creditRepo, debtRepo, paymentRepo, memberRepo,
		notifier, locks, cfg,
	)
	arrearsService := services.NewArrearsService(obligationRepo, debtRepo, creditRepo, memberRepo, cfg)
	periodService := services.NewPeriodService(db, obligationRepo, memberRepo, locks, cfg)
	reminderService := services.NewReminderService(
		obligationRepo, reminderRepo, memberRepo, arrearsService, notifier, locks, cfg,
	)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService)
	memberHandler := handlers.NewMemberHandler(memberService)
	duesHandler := handlers.NewDuesHandler(
		allocationService, arrearsService, periodService, reminderService,
		memberService, obligationRepo, paymentRepo, creditRepo, debtRepo,
	)

	// Public routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.Health)

	api := app.Group("/api/v1")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", middleware.AuthMiddleware(), authHandler.Logout)
	auth.Get("/me", middleware.AuthMiddleware(), authHandler.Me)

	// Member routes (any authenticated user can read the roster)
	members := api.Group("/members", middleware.AuthMiddleware())
	members.Get("/", memberHandler.List)
	members.Post("/", middleware.TreasurerOrAdmin(), memberHandler.Create)
	members.Get("/search", memberHandler.Search)
	members.Get("/:membNo", memberHandler.Get)
	members.Patch("/:membNo/active", middleware.AdminOnly(), memberHandler.SetActive)
	members.Get("/:membNo/debt-summary", duesHandler.DebtSummary)
	members.Get("/:membNo/obligations", duesHandler.ListObligations)
	members.Get("/:membNo/payments", duesHandler.ListPayments)
	members.Get("/:membNo/credits", duesHandler.ListCredits)
	members.Get("/:membNo/initial-debts", duesHandler.ListInitialDebts)

	// Ledger mutations are treasurer territory
	dues := api.Group("/dues", middleware.AuthMiddleware(), middleware.TreasurerOrAdmin())
	dues.Post("/payments", duesHandler.RecordPayment)
	dues.Post("/initial-debts", duesHandler.CreateInitialDebt)
	dues.Post("/periods/generate", duesHandler.GeneratePeriod)
	dues.Post("/reminders/generate", duesHandler.GenerateReminders)

	return &Services{
		Auth:       authService,
		Member:     memberService,
		Allocation: allocationService,
		Arrears:    arrearsService,
		Period:     periodService,
		Reminder:   reminderService,
	}
}
