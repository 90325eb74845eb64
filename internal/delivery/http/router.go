package http

import (
	"net/http"

	"dental-clinic-api/internal/delivery/http/handler"
	"dental-clinic-api/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router         *mux.Router
	patientHandler *handler.PatientHandler
	serviceHandler *handler.ServiceHandler
	invoiceHandler *handler.InvoiceHandler
	statsHandler   *handler.StatsHandler
	corsMiddleware *middleware.CORSMiddleware
}

func NewRouter(
	patientHandler *handler.PatientHandler,
	serviceHandler *handler.ServiceHandler,
	invoiceHandler *handler.InvoiceHandler,
	statsHandler *handler.StatsHandler,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:         mux.NewRouter(),
		patientHandler: patientHandler,
		serviceHandler: serviceHandler,
		invoiceHandler: invoiceHandler,
		statsHandler:   statsHandler,
		corsMiddleware: corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Patient management
	api.HandleFunc("/patients", r.patientHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/patients", r.patientHandler.GetAll).Methods(http.MethodGet)
	api.HandleFunc("/patients/{id}", r.patientHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/patients/{id}", r.patientHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/patients/{id}", r.patientHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/patients/{id}/invoices", r.patientHandler.GetInvoices).Methods(http.MethodGet)

	// Service catalog
	api.HandleFunc("/services", r.serviceHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/services", r.serviceHandler.GetAll).Methods(http.MethodGet)
	api.HandleFunc("/services/{id}", r.serviceHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/services/{id}", r.serviceHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/services/{id}", r.serviceHandler.Delete).Methods(http.MethodDelete)

	// Invoice generation and export
	api.HandleFunc("/invoices", r.invoiceHandler.Generate).Methods(http.MethodPost)
	api.HandleFunc("/invoices/{id}", r.invoiceHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/preview", r.invoiceHandler.Preview).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/pdf", r.invoiceHandler.DownloadPDF).Methods(http.MethodGet)
	api.HandleFunc("/invoices/{id}/email", r.invoiceHandler.Email).Methods(http.MethodPost)

	// Dashboard
	api.HandleFunc("/stats", r.statsHandler.Get).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
