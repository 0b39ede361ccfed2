package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/dmarkowski/offers-app/internal/auth"
	"github.com/dmarkowski/offers-app/internal/handlers"
	"github.com/dmarkowski/offers-app/internal/httpx"
	"github.com/dmarkowski/offers-app/internal/models"
	"github.com/dmarkowski/offers-app/internal/policy"
	"github.com/dmarkowski/offers-app/internal/services"
	"github.com/dmarkowski/offers-app/internal/storage"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, files *storage.Store) http.Handler {
	// Configure a user verifier so RequireAuth can ensure the user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	totals := services.NewTotalsService()
	offerSvc := services.NewOfferService(db, totals)
	lifecycle := services.NewLifecycleService(db, policy.NewOfferGate())

	oh := handlers.NewOfferHandler(db, offerSvc, lifecycle, files)
	ch := handlers.NewClientHandler(db)
	coh := handlers.NewCompanyHandler(db)
	sh := handlers.NewSellerHandler(db, files)
	ah := handlers.NewAuthHandler(db)

	r := chi.NewRouter()
	r.Use(withRecover, withLogging)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/signup", ah.Signup)
	r.Post("/login", ah.Login)
	r.Post("/logout", ah.Logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware, auth.RequireAuth)

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", oh.List)
			r.Post("/", oh.Create)
			r.Get("/{id}", oh.Get)
			r.Put("/{id}", oh.Update)
			r.Delete("/{id}", oh.Delete)
			r.Post("/{id}/items", oh.AddItem)
			r.Put("/{id}/items/{itemID}", oh.UpdateItem)
			r.Delete("/{id}/items/{itemID}", oh.RemoveItem)
			r.Post("/{id}/status", oh.Status)
			r.Get("/{id}/pdf", oh.PDF)
			r.Post("/{id}/archive", oh.Archive)
		})

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", ch.List)
			r.Post("/", ch.Create)
			r.Get("/{id}", ch.Get)
			r.Put("/{id}", ch.Update)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", coh.List)
			r.Post("/", coh.Create)
		})

		r.Route("/sellers", func(r chi.Router) {
			r.Get("/", sh.List)
			r.Post("/", sh.Create)
			r.Get("/{id}", sh.Get)
			r.Put("/{id}", sh.Update)
			r.Post("/{id}/logo", sh.UploadLogo)
		})
	})

	return r
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
