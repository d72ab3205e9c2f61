package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/factoryops/maintenance-service/internal/api/http/handlers"
	"github.com/factoryops/maintenance-service/internal/auth"
	"github.com/factoryops/maintenance-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Activities     *handlers.ActivitiesHandler
	Schedule       *handlers.ScheduleHandler
	Catalog        *handlers.CatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	staff := []domain.UserRole{domain.UserRoleTechnician, domain.UserRoleSupervisor, domain.UserRoleAdmin}
	triage := []domain.UserRole{domain.UserRoleSupervisor, domain.UserRoleAdmin}

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/technicians", auth.RequireRole(triage...), cfg.Users.ListTechnicians)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/pending/count", auth.RequireRole(triage...), cfg.Tickets.PendingCount)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/approve", auth.RequireRole(triage...), cfg.Tickets.ApproveTicket)
	tickets.Post("/:id/reject", auth.RequireRole(triage...), cfg.Tickets.RejectTicket)

	activities := app.Group("/activities", cfg.AuthMiddleware.Handle, auth.RequireRole(staff...))
	activities.Post("", auth.RequireRole(triage...), cfg.Activities.CreateActivity)
	activities.Get("", cfg.Activities.ListActivities)
	activities.Get("/:id", cfg.Activities.GetActivity)
	activities.Put("/:id/technicians", auth.RequireRole(triage...), cfg.Activities.AssignTechnicians)
	activities.Post("/:id/status/:status", cfg.Activities.ChangeStatus)

	schedule := app.Group("/schedule", cfg.AuthMiddleware.Handle, auth.RequireRole(staff...))
	schedule.Get("/timeline", cfg.Schedule.Timeline)
	schedule.Get("/board", cfg.Schedule.Board)
	schedule.Get("/gantt", cfg.Schedule.Gantt)

	catalog := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(staff...))
	catalog.Get("/machines", cfg.Catalog.ListMachines)
	catalog.Get("/procedures", cfg.Catalog.ListProcedures)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.UserRoleAdmin))
	admin.Post("/machines", cfg.Catalog.CreateMachine)
	admin.Put("/machines/:id", cfg.Catalog.UpdateMachine)
	admin.Post("/procedures", cfg.Catalog.CreateProcedure)
	admin.Put("/procedures/:id", cfg.Catalog.UpdateProcedure)
	admin.Get("/plans", cfg.Catalog.ListPlans)
	admin.Post("/plans", cfg.Catalog.CreatePlan)
	admin.Put("/plans/:id", cfg.Catalog.UpdatePlan)
	admin.Post("/plans/generate", cfg.Catalog.GeneratePreventive)
}
