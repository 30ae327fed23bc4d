package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/viralforge/partner-portal/internal/application"
	"github.com/viralforge/partner-portal/internal/ports"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

type RouterOptions struct {
	Auth      *Authenticator
	Limiter   *RateLimiter
	Readiness ports.HealthChecker
}

func NewRouter(handler *Handler, opts RouterOptions) http.Handler {
	if opts.Auth == nil {
		opts.Auth = NewAuthenticator("")
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(observeMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if opts.Readiness != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := opts.Readiness.Ping(ctx); err != nil {
				logHTTPOperationError(req.Context(), "readyz", http.StatusServiceUnavailable, "NOT_READY", "store unavailable", err)
				writeError(w, http.StatusServiceUnavailable, "NOT_READY", "store unavailable")
				return
			}
		}
		writeMessage(w, http.StatusOK, "ready")
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(opts.Auth.Middleware)
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Middleware)
		}

		r.Route("/partners", func(r chi.Router) {
			r.Post("/", handler.createPartner)
			r.Get("/", handler.listPartners)
			r.Get("/{partner_id}", handler.getPartner)
			r.Patch("/{partner_id}", handler.updatePartner)
			r.Put("/{partner_id}/status", handler.setPartnerStatus)
			r.Get("/{partner_id}/stock", handler.listPartnerStock)
			r.Get("/{partner_id}/statement", handler.getStatement)
			r.Get("/{partner_id}/payouts", handler.listPayouts)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Post("/", handler.createLead)
			r.Get("/", handler.listLeads)
			r.Get("/{lead_id}", handler.getLead)
			r.Put("/{lead_id}/status", handler.updateLeadStatus)
			r.Put("/{lead_id}/partner", handler.reassignLead)
		})

		r.Route("/kits", func(r chi.Router) {
			r.Post("/", handler.createKit)
			r.Get("/", handler.listKits)
			r.Post("/distributions", handler.distributeKits)
			r.Get("/{kit_id}", handler.getKit)
			r.Post("/{kit_id}/restock", handler.restockKit)
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/", handler.recordSale)
			r.Get("/", handler.listSales)
			r.Get("/{sale_id}", handler.getSale)
			r.Post("/{sale_id}/cancel", handler.cancelSale)
		})

		r.Route("/commission", func(r chi.Router) {
			r.Get("/slabs", handler.listSlabs)
			r.Post("/slabs", handler.createSlab)
			r.Put("/slabs/{slab_id}", handler.updateSlab)
			r.Delete("/slabs/{slab_id}", handler.deleteSlab)
			r.Get("/statement", handler.getStatement)
			r.Get("/report", handler.commissionReport)
			r.Post("/close-month", handler.closeMonth)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Post("/", handler.createTicket)
			r.Get("/", handler.listTickets)
			r.Get("/{ticket_id}", handler.getTicket)
			r.Post("/{ticket_id}/replies", handler.replyToTicket)
			r.Put("/{ticket_id}/status", handler.updateTicketStatus)
			r.Put("/{ticket_id}/assignee", handler.assignTicket)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", handler.listNotifications)
			r.Post("/{notification_id}/read", handler.markNotificationRead)
		})

		r.Post("/internal/events", handler.ingestEvent)
	})
	return r
}
