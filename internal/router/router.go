package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	appMiddleware "github.com/FACorreiaa/trexense-api/app/middleware"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/api/ads"
	"github.com/FACorreiaa/trexense-api/internal/api/auth"
	"github.com/FACorreiaa/trexense-api/internal/api/hotel"
	"github.com/FACorreiaa/trexense-api/internal/api/plan"
	"github.com/FACorreiaa/trexense-api/internal/api/user"
)

// Config contains dependencies needed for the router setup
type Config struct {
	Logger         *slog.Logger
	Gate           *auth.Gate
	AuthHandler    *auth.HandlerImpl
	UserHandler    *user.HandlerImpl
	HotelHandler   *hotel.HandlerImpl
	PlanHandler    *plan.HandlerImpl
	AdsHandler     *ads.HandlerImpl
	AllowedOrigins []string
	// AuthRateLimit caps requests per IP per minute on register and login. Zero disables it.
	AuthRateLimit int
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	access := cfg.Gate.Require(auth.Access)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimit > 0 {
					r.Use(httprate.LimitByIP(cfg.AuthRateLimit, time.Minute))
				}
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
			})
			r.With(cfg.Gate.Require(auth.Refresh)).Get("/token/refresh", cfg.AuthHandler.RefreshToken)
			r.With(access).Post("/verification/email/send", cfg.AuthHandler.SendEmailVerification)
			r.With(cfg.Gate.Require(auth.VerifyEmail)).Get("/verification/email/confirm", cfg.AuthHandler.VerifyEmail)
		})

		r.Route("/test", func(r chi.Router) {
			r.Use(access)
			r.Get("/access", greet)
			r.With(appMiddleware.RequireRole(cfg.Logger, api.ErrorResponse, appMiddleware.RoleAdmin)).
				Get("/admin", func(w http.ResponseWriter, r *http.Request) {
					writeText(w, "Success")
				})
		})

		r.Route("/user", func(r chi.Router) {
			r.With(cfg.Gate.Require(auth.ResetPassword)).Get("/reset-password/confirm", cfg.UserHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(access)
				r.Get("/activity", cfg.UserHandler.UserActivity)
				r.Post("/profile/picture", cfg.UserHandler.ChangeProfilePicture)
				r.Get("/{userId}", cfg.UserHandler.GetUser)
				r.Patch("/{userId}", cfg.UserHandler.UpdateUser)
				r.Delete("/{userId}", cfg.UserHandler.DeleteUser)
				r.Post("/{userId}/reset-password/request", cfg.UserHandler.RequestResetPassword)
			})
		})

		r.Route("/hotels", func(r chi.Router) {
			r.Get("/", cfg.HotelHandler.GetAllHotels)
			r.Get("/search", cfg.HotelHandler.SearchHotel)

			r.Group(func(r chi.Router) {
				r.Use(access)
				r.Get("/recommendation", cfg.HotelHandler.Recommendation)
				r.Get("/recommendation/top/{number}", cfg.HotelHandler.TopRecommendation)
				r.Get("/nearby", cfg.HotelHandler.NearbyHotel)
				r.Get("/clicks", cfg.HotelHandler.GetClicks)
				r.Get("/bookmarks", cfg.HotelHandler.GetBookmarks)
				r.Post("/{hotelId}/clicks", cfg.HotelHandler.AddClick)
				r.Post("/{hotelId}/bookmarks", cfg.HotelHandler.AddBookmark)
				r.Delete("/{hotelId}/bookmarks", cfg.HotelHandler.DeleteBookmark)
			})

			r.Get("/{hotelId}", cfg.HotelHandler.GetHotel)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Use(access)
			r.Get("/", cfg.PlanHandler.GetPlans)
			r.Post("/create", cfg.PlanHandler.CreatePlan)
			r.Post("/bot", cfg.PlanHandler.SendMessageToBot)
			r.Get("/detail/{dayId}", cfg.PlanHandler.GetPlanDetail)
			r.Post("/detail/{dayId}/activity", cfg.PlanHandler.AddActivity)
			r.Post("/detail/{dayId}/hotel", cfg.PlanHandler.AddHotelToPlan)
			r.Delete("/activity/{activityId}", cfg.PlanHandler.DeleteActivity)
			r.Delete("/hotel/{hotelPlanId}", cfg.PlanHandler.DeleteHotelFromPlan)
			r.Get("/{planId}", cfg.PlanHandler.GetPlanByID)
			r.Delete("/{planId}", cfg.PlanHandler.DeletePlan)
			r.Post("/{planId}/itinerary", cfg.PlanHandler.GenerateItinerary)
		})

		r.Route("/ads/banners", func(r chi.Router) {
			r.Use(access)
			r.Post("/upload", cfg.AdsHandler.UploadBanner)
			r.Get("/", cfg.AdsHandler.GetAllBanners)
			r.Get("/{bannerId}", cfg.AdsHandler.GetBannerByID)
			r.Delete("/{bannerId}", cfg.AdsHandler.DeleteBannerByID)
			r.Patch("/{bannerId}", cfg.AdsHandler.UpdateBanner)
			r.Post("/{bannerId}/paid", cfg.AdsHandler.ChangeBannerPaidStatus)
		})
	})

	return r
}

func greet(w http.ResponseWriter, r *http.Request) {
	id, _ := appMiddleware.IdentityFromContext(r.Context())
	writeText(w, fmt.Sprintf("Hello %s", id.Name))
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
