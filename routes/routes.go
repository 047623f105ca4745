package routes

import (
	"net/http"

	"food-rescue-api/handlers"
	"food-rescue-api/middleware"
	"food-rescue-api/models"

	"github.com/gin-gonic/gin"
)

// Deps carries what the route table needs. BookingLimiter and Metrics are optional.
type Deps struct {
	Handler        *handlers.Handler
	Auth           *middleware.Auth
	BookingLimiter gin.HandlerFunc
	Metrics        http.Handler
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h := d.Handler
	limiter := d.BookingLimiter
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Identity selector, no passwords
		public.POST("/auth/login", h.Login)

		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/sessions", h.GetRestaurantSessions)
		public.GET("/sessions", h.ListSessions)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(d.Auth.AuthRequired())
	{
		auth.GET("/profile", h.GetProfile)
	}

	// ── Recipient and volunteer bookings ───────────────────────────
	bookings := r.Group("/api/bookings")
	bookings.Use(d.Auth.AuthRequired(), middleware.RoleRequired(models.RoleUser, models.RoleVolunteer))
	{
		bookings.POST("", limiter, h.PlaceBooking)
		bookings.GET("", h.GetMyBookings)
		bookings.GET("/:id", h.GetBookingDetail)
		bookings.PUT("/:id/cancel", h.CancelBooking)
	}

	volunteer := r.Group("/api/volunteer")
	volunteer.Use(d.Auth.AuthRequired(), middleware.RoleRequired(models.RoleVolunteer))
	{
		volunteer.GET("/sessions", h.GetVolunteerSessions)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	owner := r.Group("/api/owner")
	owner.Use(d.Auth.AuthRequired(), middleware.RoleRequired(models.RoleOwner))
	{
		owner.GET("/restaurant", h.GetMyRestaurant)

		owner.POST("/sessions", h.CreateSession)
		owner.PUT("/sessions/:id/close", h.CloseSession)

		owner.GET("/bookings", h.GetRestaurantBookings)
		owner.GET("/bookings/export", h.ExportBookings)
		owner.PUT("/bookings/:id/status", h.UpdateBookingStatus)
		owner.POST("/pickups/verify", h.VerifyPickup)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(d.Auth.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/bookings", h.AdminGetAllBookings)
		admin.PUT("/bookings/:id/status", h.AdminForceBookingStatus)
		admin.GET("/users", h.AdminGetAllUsers)
		admin.GET("/restaurants", h.ListRestaurants)
	}
}
