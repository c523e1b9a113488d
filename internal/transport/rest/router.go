package rest

import (
	"github.com/frahmantamala/donation-management/internal/auth"
	"github.com/frahmantamala/donation-management/internal/cause"
	"github.com/frahmantamala/donation-management/internal/donation"
	"github.com/frahmantamala/donation-management/internal/permission"
	"github.com/frahmantamala/donation-management/internal/role"
	"github.com/frahmantamala/donation-management/internal/transport/middleware"
	"github.com/frahmantamala/donation-management/internal/transport/swagger"
	"github.com/frahmantamala/donation-management/internal/user"
	"github.com/go-chi/chi"
)

const (
	PermManageUsers       = "manage_users"
	PermManageRoles       = "manage_roles"
	PermManagePermissions = "manage_permissions"
	PermManageCauses      = "manage_causes"
	PermManageDonations   = "manage_donations"
	PermViewDonations     = "view_donations"
)

// ModulePermissions are the permissions the routes check, besides the wildcard.
var ModulePermissions = []string{
	PermManageUsers,
	PermManageRoles,
	PermManagePermissions,
	PermManageCauses,
	PermManageDonations,
	PermViewDonations,
}

type Dependencies struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	User       *user.Handler
	Role       *role.Handler
	Permission *permission.Handler
	Cause      *cause.Handler
	Donation   *donation.Handler

	AllowedOrigins []string
	Metrics        *middleware.Metrics
	MetricsPath    string
	// OpenAPI is the loaded API document; nil disables /openapi.yml and /swagger.
	OpenAPI *swagger.Document
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	rbac := deps.RBAC

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestLogger)
	router.Use(middleware.RecoveryMiddleware)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
		router.Handle(deps.MetricsPath, deps.Metrics.Handler())
	}

	if deps.OpenAPI != nil {
		router.Get("/openapi.yml", deps.OpenAPI.ServeHTTP)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", deps.Health.Health)
		r.Get("/ping", deps.Health.Ping)

		r.Post("/users/login", deps.Auth.Login)
		r.Post("/users/google-login", deps.Auth.GoogleLogin)

		r.Get("/causes", deps.Cause.ListCauses)
		r.Get("/causes/{id}", deps.Cause.GetCause)

		r.Group(func(pr chi.Router) {
			pr.Use(deps.Auth.AuthMiddleware)

			pr.Get("/users/me", deps.Auth.Me)

			pr.Get("/users", deps.User.ListUsers)
			pr.Get("/users/{id}", deps.User.GetUser)
			pr.Group(func(mr chi.Router) {
				mr.Use(rbac.RequirePermission(PermManageUsers))
				mr.Post("/users", deps.User.CreateUser)
				mr.Put("/users/{id}", deps.User.UpdateUser)
				mr.Delete("/users/{id}", deps.User.DeleteUser)
			})

			pr.Get("/roles", deps.Role.ListRoles)
			pr.Get("/roles/{id}", deps.Role.GetRole)
			pr.Group(func(mr chi.Router) {
				mr.Use(rbac.RequirePermission(PermManageRoles))
				mr.Post("/roles", deps.Role.CreateRole)
				mr.Put("/roles/{id}", deps.Role.UpdateRole)
				mr.Delete("/roles/{id}", deps.Role.DeleteRole)
			})

			pr.Get("/permissions", deps.Permission.ListPermissions)
			pr.Get("/permissions/{id}", deps.Permission.GetPermission)
			pr.Group(func(mr chi.Router) {
				mr.Use(rbac.RequirePermission(PermManagePermissions))
				mr.Post("/permissions", deps.Permission.CreatePermission)
				mr.Put("/permissions/{id}", deps.Permission.UpdatePermission)
				mr.Delete("/permissions/{id}", deps.Permission.DeletePermission)
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(rbac.RequirePermission(PermManageCauses))
				mr.Get("/causes/all", deps.Cause.ListAllCauses)
				mr.Post("/causes", deps.Cause.CreateCauses)
				mr.Put("/causes", deps.Cause.UpdateCauses)
				mr.Put("/causes/{id}", deps.Cause.UpdateCause)
				mr.Post("/causes/{id}/images", deps.Cause.AddImages)
				mr.Delete("/causes", deps.Cause.DeleteCauses)
			})

			pr.Group(func(mr chi.Router) {
				mr.Use(rbac.RequirePermission(PermManageDonations))
				mr.Post("/donations", deps.Donation.CreateDonations)
				mr.Put("/donations", deps.Donation.UpdateDonations)
				mr.Delete("/donations", deps.Donation.DeleteDonations)
			})

			pr.Group(func(vr chi.Router) {
				vr.Use(rbac.RequirePermission(PermViewDonations, PermManageDonations))
				vr.Get("/donations/{id}", deps.Donation.GetDonation)
				vr.Post("/donations/search", deps.Donation.SearchDonations)
				vr.Post("/donations/cause", deps.Donation.CauseDonations)
				vr.Post("/donations/summary", deps.Donation.Summary)
			})
		})
	})
}
