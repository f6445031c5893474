package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/models/domain"
	"github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/services/backup"

	handlers "github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/handlers/audit"

	auditmiddleware "github.com/TIEVAAzure/Azure-Managed-Service-sub003/pkg/server/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server
}

type Dependencies struct {
	Auditor       backup.Auditor
	Subscriptions []string
	Inventory     []domain.InventoryResource
}
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(logger zerolog.Logger, config Config) *chi.Mux {
	auditHandler := handlers.NewHandler(
		config.Dependencies.Auditor,
		config.Dependencies.Subscriptions,
		config.Dependencies.Inventory,
	)

	router := chi.NewRouter()

	router.Use(auditmiddleware.Logger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/subscriptions", auditHandler.ListSubscriptions)
		r.Get("/subscriptions/{subscription}/vaults", auditHandler.GetVaults)
		r.Get("/subscriptions/{subscription}/items", auditHandler.GetItems)
		r.Get("/subscriptions/{subscription}/coverage", auditHandler.GetCoverage)
		r.Get("/subscriptions/{subscription}/findings", auditHandler.GetFindings)
		r.Get("/subscriptions/{subscription}/report", auditHandler.GetReport)
	})
	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	router := ConfigureRouter(logger, config)

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:    config.Addr,
			Handler: router,
		},
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
