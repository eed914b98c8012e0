package api

import (
	"net/http"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/service"
	"cmsadmin/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	Auth    *auth.JWTConfig
	Editor  *service.EditorService
	Imports *service.ImportService
	Records *service.RecordService
	Hub     *ws.Hub
	Log     *zap.Logger

	// AllowedOrigins limits websocket upgrades. Empty allows any origin.
	AllowedOrigins []string
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))
	r.Use(d.Auth.Middleware)

	r.Get("/menu", d.getMenu)

	// Editors
	r.Get("/forms/{screen}", d.openForm)
	r.Post("/forms/{screen}/events", d.applyEvent)
	r.Post("/forms/{screen}/submit", d.submitForm)

	// Lists and record actions
	r.Get("/resources/{resource}", d.listResource)
	r.Get("/resources/{resource}/{id}", d.getResource)
	r.Delete("/resources/{resource}/{id}", d.deleteResource)

	r.Get("/careers/{id}/applicants", d.listApplicants)
	r.Get("/applicants/{id}", d.getApplicant)
	r.Put("/applicants/{id}/status", d.setApplicantStatus)
	r.Delete("/applicants/{id}", d.deleteApplicant)

	r.Put("/promotions/{id}/activate", d.activatePromotion)
	r.Get("/metadata/page/{page}", d.metadataByPage)
	r.Put("/metadata/{id}/publish", d.publishMetadata)
	r.Put("/assets/{id}/url", d.updateAssetURL)

	// Schedule workbooks
	r.Get("/schedules/template", d.scheduleTemplate)
	r.Post("/schedules/import", d.importSchedules)
	r.Get("/schedules/import/{id}", d.getImport)
	r.Delete("/schedules/import/{id}", d.discardImport)
	r.Post("/schedules/import/{id}/confirm", d.confirmImport)

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}

func actor(r *http.Request) service.Actor {
	return service.Actor{
		UserID: auth.GetUserID(r.Context()),
		Role:   auth.GetRole(r.Context()),
	}
}
