// Package router mounts the handlers on echo.  Catalog reads are public and
// cached for anonymous callers; writes need an ADMIN token; the purchase
// flow needs any valid token.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticketing/internal/config"
	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/model"
)

// Handlers bundles every handler the API serves.
type Handlers struct {
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Showtimes *handler.ShowtimeHandler
	Seats     *handler.SeatHandler
	Checkout  *handler.CheckoutHandler
	Orders    *handler.OrderHandler
	Reviews   *handler.ReviewHandler
	Users     *handler.UserHandler
}

// Options carries what the middleware chain needs.  Redis may be nil.
type Options struct {
	JWTSecret string
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
}

// chain holds the route level middleware sets.  Groups with an empty
// prefix are avoided: echo registers catch-all routes for every group with
// middleware, and those would answer unknown paths with 401.
type chain struct {
	auth   echo.MiddlewareFunc
	public []echo.MiddlewareFunc
	admin  []echo.MiddlewareFunc
}

// RegisterRoutes installs the rate limiter and mounts /healthz, /metrics and
// the /api tree.
func RegisterRoutes(e *echo.Echo, h Handlers, opt Options) {
	// Buckets may be keyed by user and the cache skips signed-in callers, so
	// the caller is identified first.  Route level auth decides who gets in.
	e.Use(middleware.OptionalAuth(opt.JWTSecret), middleware.NewRateLimiter(opt.RateLimit, opt.Redis))

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", handler.Metrics())

	// Any successful write drops cached catalog reads: seat counts change
	// with bookings as well as with admin edits.
	api := e.Group("/api", middleware.PurgeCache(opt.Cache, opt.Redis))

	m := chain{auth: middleware.JWTAuth(opt.JWTSecret)}
	m.admin = []echo.MiddlewareFunc{m.auth, middleware.RequireRole(model.RoleAdmin)}
	m.public = []echo.MiddlewareFunc{middleware.NewRedisCache(opt.Cache, opt.Redis)}

	registerAuth(api, h.Auth, m)
	registerCatalog(api, h, m)
	registerSeats(api, h.Seats, m)
	registerOrders(api, h, m)
	registerAdmin(api, h, m)
}

func registerAuth(api *echo.Group, a *handler.AuthHandler, m chain) {
	g := api.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me, m.auth)
}

func registerCatalog(api *echo.Group, h Handlers, m chain) {
	c := h.Catalog

	api.GET("/movies", c.ListMovies, m.public...)
	api.GET("/movies/:id", c.GetMovie, m.public...)
	api.POST("/movies", c.CreateMovie, m.admin...)
	api.PUT("/movies/:id", c.UpdateMovie, m.admin...)
	api.DELETE("/movies/:id", c.DeleteMovie, m.admin...)

	api.GET("/cinemas", c.ListCinemas, m.public...)
	api.GET("/cinemas/:id", c.GetCinema, m.public...)
	api.GET("/cinemas/:id/halls", c.ListCinemaHalls, m.public...)
	api.POST("/cinemas", c.CreateCinema, m.admin...)
	api.PUT("/cinemas/:id", c.UpdateCinema, m.admin...)
	api.DELETE("/cinemas/:id", c.DeleteCinema, m.admin...)

	api.GET("/halls", c.ListHalls, m.public...)
	api.GET("/halls/:id", c.GetHall, m.public...)
	api.POST("/halls", c.CreateHall, m.admin...)
	api.PUT("/halls/:id", c.UpdateHall, m.admin...)
	api.DELETE("/halls/:id", c.DeleteHall, m.admin...)

	s := h.Showtimes
	api.GET("/showtimes", s.List, m.public...)
	api.GET("/showtimes/:id", s.Get, m.public...)
	api.POST("/showtimes", s.Create, m.admin...)
	api.PUT("/showtimes/:id", s.Update, m.admin...)
	api.PATCH("/showtimes/:id", s.Update, m.admin...)
	api.DELETE("/showtimes/:id", s.Delete, m.admin...)

	// Admins listing ?all=true are authenticated and bypass the cache.
	api.GET("/snacks", c.ListSnacks, m.public...)
	api.GET("/snacks/:id", c.GetSnack, m.public...)
	api.POST("/snacks", c.CreateSnack, m.admin...)
	api.PUT("/snacks/:id", c.UpdateSnack, m.admin...)
	api.DELETE("/snacks/:id", c.DeleteSnack, m.admin...)

	r := h.Reviews
	api.GET("/reviews", r.List, m.public...)
	api.GET("/reviews/movie/:movieId", r.ListByMovie, m.public...)
	api.POST("/reviews", r.Create, m.auth)
	api.DELETE("/reviews/:id", r.Delete, m.auth)
}

func registerSeats(api *echo.Group, s *handler.SeatHandler, m chain) {
	// The seat map shows live locks and is never cached.
	api.GET("/seats/:showId", s.Map)
	api.POST("/seats/lock", s.Lock, m.auth)
	// Box office sale: the booked seat is recorded as an order of the admin.
	api.POST("/seats/confirm", s.Confirm, m.admin...)
	api.POST("/seats/unlock", s.Unlock, m.auth)
	api.POST("/seats/clear-expired", s.ClearExpired, m.admin...)
}

func registerOrders(api *echo.Group, h Handlers, m chain) {
	api.POST("/payments/quote", h.Checkout.Quote, m.auth)
	api.POST("/payments/intent", h.Checkout.CreateIntent, m.auth)
	api.POST("/payments/intent/:id/confirm", h.Checkout.ConfirmIntent, m.auth)
	api.POST("/checkout", h.Checkout.Checkout, m.auth)

	o := h.Orders
	api.GET("/orders", o.ListMine, m.auth)
	api.GET("/orders/:id", o.Get, m.auth)
	api.DELETE("/orders/:id", o.Cancel, m.auth)
	api.GET("/orders/:id/receipt", o.Receipt, m.auth)
	api.GET("/bookings", o.ListBookings, m.auth)
	api.GET("/bookings/:id", o.GetBooking, m.auth)
	api.DELETE("/bookings/:id", o.CancelBooking, m.auth)
	api.GET("/purchases/:id", o.GetPurchase, m.auth)
	api.DELETE("/purchases/:id", o.CancelPurchase, m.auth)
}

func registerAdmin(api *echo.Group, h Handlers, m chain) {
	a := api.Group("/admin", m.admin...)
	a.GET("/orders", h.Orders.ListAll)
	a.GET("/reviews", h.Reviews.List)

	u := h.Users
	users := api.Group("/users", m.admin...)
	users.GET("", u.List)
	users.GET("/:id", u.Get)
	users.PUT("/:id", u.Update)
	users.PATCH("/:id", u.Update)
	users.DELETE("/:id", u.Delete)
}

