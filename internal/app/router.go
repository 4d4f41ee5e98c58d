package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taller-erp/taller-erp/internal/auth"
	"github.com/taller-erp/taller-erp/internal/clients"
	"github.com/taller-erp/taller-erp/internal/employees"
	"github.com/taller-erp/taller-erp/internal/materials"
	"github.com/taller-erp/taller-erp/internal/purchases"
	"github.com/taller-erp/taller-erp/internal/quotations"
	"github.com/taller-erp/taller-erp/internal/sales"
	"github.com/taller-erp/taller-erp/internal/suppliers"
	"github.com/taller-erp/taller-erp/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthHandler       *auth.Handler
	AuthMiddleware    *auth.Middleware
	UsersHandler      *users.Handler
	ClientsHandler    *clients.Handler
	SuppliersHandler  *suppliers.Handler
	EmployeesHandler  *employees.Handler
	MaterialsHandler  *materials.Handler
	QuotationsHandler *quotations.Handler
	PurchasesHandler  *purchases.Handler
	SalesHandler      *sales.Handler
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Everything below requires a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireAuth)

		r.Route("/usuarios", params.UsersHandler.MountRoutes)
		r.Route("/clientes", params.ClientsHandler.MountRoutes)
		r.Route("/proveedores", params.SuppliersHandler.MountRoutes)
		r.Route("/empleados", params.EmployeesHandler.MountRoutes)
		r.Route("/materiales", params.MaterialsHandler.MountMaterialRoutes)
		r.Route("/movimientos", params.MaterialsHandler.MountMovementRoutes)
		r.Route("/cotizaciones", params.QuotationsHandler.MountRoutes)
		r.Route("/compras", params.PurchasesHandler.MountPurchaseRoutes)
		r.Route("/pagos-compra", params.PurchasesHandler.MountPaymentRoutes)
		r.Route("/ventas", params.SalesHandler.MountRoutes)
	})

	return r
}
