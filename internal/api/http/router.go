package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/tzayo/library-management-system/internal/jobs"
	"github.com/tzayo/library-management-system/internal/service"
)

// Services bundles the dependencies of the REST API.
type Services struct {
	Auth    service.AuthService
	Catalog service.CatalogService
	Loans   service.LoanService
	Users   service.UserService
	Jobs    *jobs.JobRunner
}

// NewRouter wires every route behind logging, recovery and auth middleware.
func NewRouter(svc Services) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoveryMiddleware, loggingMiddleware, NewAuthMiddleware(svc.Auth).Handler)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondFail(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondFail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	RegisterAuthRoutes(api, NewAuthHandler(svc.Auth))
	RegisterBookRoutes(api, NewBookHandler(svc.Catalog))
	RegisterLoanRoutes(api, NewLoanHandler(svc.Loans))
	RegisterUserRoutes(api, NewUserHandler(svc.Users))
	if svc.Jobs != nil {
		RegisterAdminRoutes(api, NewAdminHandler(svc.Jobs))
	}
	return router
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondMessage(w, "Server is running", nil)
}
