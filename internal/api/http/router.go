package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hazardwatch/ticket-engine/internal/api/http/handlers"
	"github.com/hazardwatch/ticket-engine/internal/auth"
	"github.com/hazardwatch/ticket-engine/internal/config"
	"github.com/hazardwatch/ticket-engine/internal/domain"
	"github.com/hazardwatch/ticket-engine/internal/observability"
	"github.com/hazardwatch/ticket-engine/internal/persistence"
	"github.com/hazardwatch/ticket-engine/internal/repository"
	"github.com/hazardwatch/ticket-engine/internal/service"
)

// RouterDeps bundles everything the HTTP surface needs.
type RouterDeps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Postgres  *persistence.Postgres
	Redis     *persistence.Redis
	Users     repository.UserRepository
	TicketSvc *service.TicketService
	AuthSvc   *service.AuthService
}

// NewServer builds the fiber app with all routes registered.
func NewServer(deps RouterDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      deps.Config.App.Name,
		ErrorHandler: ErrorHandler(deps.Logger),
	})

	app.Use(RequestTimeout(deps.Config.App.RequestTimeout()))
	app.Use(observability.RequestLogger(deps.Logger, deps.Metrics))

	healthHandler := handlers.NewHealthHandler(deps.Config.App.Version, deps.Postgres, deps.Redis)
	usersHandler := handlers.NewUsersHandler(deps.AuthSvc)
	ticketsHandler := handlers.NewTicketsHandler(deps.TicketSvc)
	staffHandler := handlers.NewStaffTicketsHandler(deps.TicketSvc)

	authMW := auth.NewAuthMiddleware(deps.AuthSvc.TokenManager(), deps.Users)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	api.Post("/auth/register", usersHandler.Register)
	api.Post("/auth/login", usersHandler.Login)

	authed := api.Group("", authMW.Handle)
	authed.Get("/auth/me", usersHandler.Me)

	tickets := authed.Group("/tickets")
	tickets.Get("/", ticketsHandler.List)
	tickets.Get("/:id", ticketsHandler.Get)
	tickets.Get("/:id/messages", ticketsHandler.ListMessages)
	tickets.Post("/:id/messages", ticketsHandler.SendMessage)

	// Intake comes from the verification pipeline, not citizens.
	tickets.Post("/", auth.RequireRole(domain.RoleAdmin, domain.RoleAnalyst), staffHandler.Create)

	staff := tickets.Group("", auth.RequireStaff())
	staff.Post("/:id/status", staffHandler.ChangeStatus)
	staff.Post("/:id/escalate", staffHandler.Escalate)
	staff.Post("/:id/close", auth.RequireRole(domain.RoleAuthority, domain.RoleAuthorityAdmin, domain.RoleAdmin), staffHandler.Close)
	staff.Post("/:id/assign", staffHandler.Assign)
	staff.Delete("/:id/assign/:role", staffHandler.Unassign)
	staff.Post("/:id/participants", staffHandler.AddParticipant)
	staff.Delete("/:id/participants/:userId", staffHandler.RemoveParticipant)

	admin := authed.Group("/admin", auth.RequireRole(domain.RoleAdmin, domain.RoleAuthorityAdmin))
	admin.Post("/users", usersHandler.ProvisionStaff)

	return app
}
