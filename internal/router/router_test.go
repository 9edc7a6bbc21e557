package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/config"
	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository/memory"
	"github.com/iliyamo/cinema-ticketing/internal/service"
	"github.com/iliyamo/cinema-ticketing/internal/validation"
)

const testSecret = "router-secret"

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	return newAPIWith(t, Options{JWTSecret: testSecret})
}

func newAPIWith(t *testing.T, opt Options) *api {
	t.Helper()
	store := memory.NewStore()
	gw := payment.NewSandbox()
	pub := queue.LogPublisher{}

	authSvc := service.NewAuthService(store, service.AuthConfig{
		Secret:     testSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: 4,
	})
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), "admin@example.com", "admin-pass-1", "Admin"))
	showtimes := service.NewShowtimeService(store)

	e := echo.New()
	e.Validator = validation.EchoValidator{}
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(middleware.RequestContext())
	RegisterRoutes(e, Handlers{
		Auth:      handler.NewAuthHandler(authSvc, false),
		Catalog:   handler.NewCatalogHandler(service.NewCatalogService(store)),
		Showtimes: handler.NewShowtimeHandler(showtimes),
		Seats:     handler.NewSeatHandler(service.NewSeatService(store, 5*time.Minute, pub, "usd"), showtimes),
		Checkout:  handler.NewCheckoutHandler(service.NewCheckoutService(store, gw, pub, "usd")),
		Orders:    handler.NewOrderHandler(service.NewOrderService(store, gw, pub, "usd")),
		Reviews:   handler.NewReviewHandler(service.NewReviewService(store)),
		Users:     handler.NewUserHandler(service.NewUserService(store)),
	}, opt)
	return &api{t: t, e: e}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	User struct {
		ID   uint64 `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

func (a *api) register(email string) authBody {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": email, "name": "Customer", "password": "secret-pass",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](a.t, rec)
}

func (a *api) adminToken() string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/login", "", echo.Map{
		"email": "admin@example.com", "password": "admin-pass-1",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[authBody](a.t, rec).Tokens.AccessToken
}

type idBody struct {
	ID uint64 `json:"id"`
}

// seedShowtime creates a movie, a cinema, a 2x3 hall and a showtime two days
// ahead at 1200 cents.  It returns the showtime id.
func (a *api) seedShowtime(admin string) uint64 {
	a.t.Helper()
	create := func(path string, body echo.Map) uint64 {
		rec := a.do(http.MethodPost, path, admin, body)
		require.Equal(a.t, http.StatusCreated, rec.Code, path+": "+rec.Body.String())
		return decode[idBody](a.t, rec).ID
	}
	movie := create("/api/movies", echo.Map{"title": "Alien", "genre": "Horror", "durationMin": 117})
	cinema := create("/api/cinemas", echo.Map{"name": "Roxy", "city": "Berlin"})
	hall := create("/api/halls", echo.Map{"cinemaId": cinema, "name": "Hall 1", "rows": 2, "cols": 3})
	return create("/api/showtimes", echo.Map{
		"movieId":    movie,
		"hallId":     hall,
		"startsAt":   time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute),
		"priceCents": 1200,
	})
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
}

func TestCatalogWritesNeedAdmin(t *testing.T) {
	a := newAPI(t)
	customer := a.register("carol@example.com").Tokens.AccessToken
	body := echo.Map{"title": "Heat", "durationMin": 170}

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/api/movies", "", body).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/movies", customer, body).Code)
	assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/movies", a.adminToken(), body).Code)

	rec := a.do(http.MethodGet, "/api/movies?q=hea", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]idBody](t, rec), 1)
}

func TestRequestValidation(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": "not-an-email", "name": "X", "password": "secret-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email must be a valid email address", decode[map[string]any](t, rec)["message"])

	rec = a.do(http.MethodGet, "/api/movies/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/api/showtimes?date=tomorrow", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	a := newAPI(t)
	a.register("dave@example.com")
	rec := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": "dave@example.com", "name": "Dave", "password": "secret-pass",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type seatBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func TestSeatLockFlow(t *testing.T) {
	a := newAPI(t)
	show := a.seedShowtime(a.adminToken())
	alice := a.register("alice@example.com").Tokens.AccessToken
	bob := a.register("bob@example.com").Tokens.AccessToken
	seat := echo.Map{"showId": show, "seatLabel": "a1"}

	rec := a.do(http.MethodPost, "/api/seats/lock", "", seat)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/seats/lock", alice, seat)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[seatBody](t, rec).Success)

	rec = a.do(http.MethodPost, "/api/seats/lock", bob, seat)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, decode[seatBody](t, rec).Success)

	rec = a.do(http.MethodPost, "/api/seats/confirm", bob, seat)
	assert.Equal(t, http.StatusForbidden, rec.Code, "customers pay through checkout")

	type seatMap struct {
		SeatsAvailable int `json:"seatsAvailable"`
		Seats          []struct {
			Label      string `json:"label"`
			Status     string `json:"status"`
			LockedByMe bool   `json:"lockedByMe"`
		} `json:"seats"`
	}
	seatMapOf := func(token string) seatMap {
		rec := a.do(http.MethodGet, fmt.Sprintf("/api/seats/%d", show), token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		return decode[seatMap](t, rec)
	}
	m := seatMapOf(alice)
	require.Len(t, m.Seats, 6)
	assert.Equal(t, "A1", m.Seats[0].Label)
	assert.Equal(t, "LOCKED", m.Seats[0].Status)
	assert.True(t, m.Seats[0].LockedByMe)

	rec = a.do(http.MethodPost, "/api/seats/confirm", alice, seat)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Box office: the admin locks and sells A2 at the child fare.
	admin := a.adminToken()
	counter := echo.Map{"showId": show, "seatLabel": "A2", "child": true}
	rec = a.do(http.MethodPost, "/api/seats/confirm", admin, seat)
	assert.Equal(t, http.StatusConflict, rec.Code, "the admin holds no lock on A1")
	rec = a.do(http.MethodPost, "/api/seats/lock", admin, counter)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = a.do(http.MethodPost, "/api/seats/confirm", admin, counter)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sold := decode[struct {
		Success bool `json:"success"`
		Order   struct {
			ID         uint64 `json:"id"`
			TotalCents int64  `json:"totalCents"`
			Bookings   []struct {
				SeatLabels []string `json:"seatLabels"`
				ChildCount int      `json:"childCount"`
			} `json:"bookings"`
		} `json:"order"`
	}](t, rec)
	assert.True(t, sold.Success)
	assert.Equal(t, int64(600), sold.Order.TotalCents)
	require.Len(t, sold.Order.Bookings, 1)
	assert.Equal(t, []string{"A2"}, sold.Order.Bookings[0].SeatLabels)
	assert.Equal(t, 1, sold.Order.Bookings[0].ChildCount)

	m = seatMapOf("")
	assert.Equal(t, 5, m.SeatsAvailable)
	assert.Equal(t, "BOOKED", m.Seats[1].Status)
	assert.False(t, m.Seats[0].LockedByMe)

	rec = a.do(http.MethodGet, "/api/orders", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]idBody](t, rec), 1)

	rec = a.do(http.MethodPost, "/api/seats/unlock", admin, counter)
	assert.Equal(t, http.StatusConflict, rec.Code, "a sold seat is not a lock")

	rec = a.do(http.MethodDelete, fmt.Sprintf("/api/orders/%d", sold.Order.ID), admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m = seatMapOf("")
	assert.Equal(t, 6, m.SeatsAvailable, "cancelling the sale frees the seat")
	assert.Equal(t, "AVAILABLE", m.Seats[1].Status)

	rec = a.do(http.MethodPost, "/api/seats/unlock", alice, seat)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(http.MethodPost, "/api/seats/unlock", alice, seat)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, "/api/seats/clear-expired", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(http.MethodPost, "/api/seats/clear-expired", a.adminToken(), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodPost, "/api/seats/lock", alice, echo.Map{"showId": 999, "seatLabel": "A2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decode[seatBody](t, rec).Success)
}

func TestCheckoutAndCancel(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken()
	show := a.seedShowtime(admin)
	rec := a.do(http.MethodPost, "/api/snacks", admin, echo.Map{"name": "Popcorn", "priceCents": 450})
	require.Equal(t, http.StatusCreated, rec.Code)
	popcorn := decode[idBody](t, rec).ID

	alice := a.register("alice@example.com").Tokens.AccessToken
	bob := a.register("bob@example.com").Tokens.AccessToken
	for _, l := range []string{"B1", "B2"} {
		rec = a.do(http.MethodPost, "/api/seats/lock", alice, echo.Map{"showId": show, "seatLabel": l})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	cart := echo.Map{
		"showtimeId": show,
		"seats":      []string{"B1", "B2"},
		"adultCount": 1,
		"childCount": 1,
		"snacks":     []echo.Map{{"snackId": popcorn, "quantity": 2}},
	}
	rec = a.do(http.MethodPost, "/api/payments/intent", alice, cart)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	intent := decode[struct {
		Quote struct {
			TotalCents int64 `json:"totalCents"`
		} `json:"quote"`
		PaymentIntent struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"paymentIntent"`
	}](t, rec)
	assert.Equal(t, int64(1200+600+900), intent.Quote.TotalCents)
	assert.Equal(t, "requires_confirmation", intent.PaymentIntent.Status)

	cart["paymentIntentId"] = intent.PaymentIntent.ID
	rec = a.do(http.MethodPost, "/api/checkout", alice, cart)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code, "unconfirmed intent")

	rec = a.do(http.MethodPost, "/api/payments/intent/"+intent.PaymentIntent.ID+"/confirm", bob, echo.Map{})
	assert.Equal(t, http.StatusNotFound, rec.Code, "someone else's intent")
	rec = a.do(http.MethodPost, "/api/payments/intent/"+intent.PaymentIntent.ID+"/confirm", alice, echo.Map{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/checkout", alice, cart)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[struct {
		ID       uint64 `json:"id"`
		Code     string `json:"code"`
		Status   string `json:"status"`
		Bookings []struct {
			ID uint64 `json:"id"`
		} `json:"bookings"`
	}](t, rec)
	assert.Equal(t, "CONFIRMED", order.Status)
	require.Len(t, order.Bookings, 1)

	rec = a.do(http.MethodPost, "/api/checkout", alice, cart)
	assert.Equal(t, http.StatusConflict, rec.Code, "intent reused")

	orderPath := fmt.Sprintf("/api/orders/%d", order.ID)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, orderPath, bob, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, orderPath, admin, nil).Code)

	rec = a.do(http.MethodGet, orderPath+"/receipt", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	r := decode[map[string]any](t, rec)
	assert.Equal(t, "CINEMA-ORDER:"+order.Code, r["qrPayload"])
	assert.NotEmpty(t, r["qrCodePng"])

	rec = a.do(http.MethodGet, "/api/orders", alice, nil)
	assert.Len(t, decode[[]idBody](t, rec), 1)
	rec = a.do(http.MethodGet, "/api/orders", bob, nil)
	assert.Empty(t, decode[[]idBody](t, rec))
	rec = a.do(http.MethodGet, "/api/admin/orders", admin, nil)
	assert.Len(t, decode[[]idBody](t, rec), 1)

	bookingPath := fmt.Sprintf("/api/bookings/%d", order.Bookings[0].ID)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodDelete, bookingPath, bob, nil).Code)
	rec = a.do(http.MethodDelete, bookingPath, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, orderPath, alice, nil).Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/api/showtimes/%d", show), "", nil)
	assert.Equal(t, float64(6), decode[map[string]any](t, rec)["seatsAvailable"])
}

func TestReviewsAndUsers(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken()
	rec := a.do(http.MethodPost, "/api/movies", admin, echo.Map{"title": "Heat", "durationMin": 170})
	movie := decode[idBody](t, rec).ID
	carol := a.register("carol@example.com")

	review := echo.Map{"movieId": movie, "rating": 4, "comment": "tense"}
	rec = a.do(http.MethodPost, "/api/reviews", carol.Tokens.AccessToken, review)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[idBody](t, rec).ID
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/api/reviews", carol.Tokens.AccessToken, review).Code)

	rec = a.do(http.MethodGet, fmt.Sprintf("/api/reviews/movie/%d", movie), "", nil)
	assert.Len(t, decode[[]idBody](t, rec), 1)
	rec = a.do(http.MethodGet, fmt.Sprintf("/api/reviews?movieId=%d", movie), "", nil)
	assert.Len(t, decode[[]idBody](t, rec), 1)

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/users", carol.Tokens.AccessToken, nil).Code)
	rec = a.do(http.MethodPatch, fmt.Sprintf("/api/users/%d", carol.User.ID), admin, echo.Map{"isActive": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/refresh", "", echo.Map{"refreshToken": carol.Tokens.RefreshToken})
	assert.NotEqual(t, http.StatusOK, rec.Code, "tokens of a deactivated user are revoked")

	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/api/reviews/%d", id), admin, nil).Code)
}

func TestAuthCookie(t *testing.T) {
	a := newAPI(t)
	a.register("erin@example.com")

	rec := a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "erin@example.com", "password": "secret-pass"})
	require.Equal(t, http.StatusOK, rec.Code)
	var access *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AccessCookie {
			access = c
		}
	}
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(access)
	me := httptest.NewRecorder()
	a.e.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), "erin@example.com")

	rec = a.do(http.MethodPost, "/api/auth/login", "", echo.Map{"email": "erin@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimitBucketsPerUser(t *testing.T) {
	a := newAPIWith(t, Options{
		JWTSecret: testSecret,
		RateLimit: config.RateLimitConfig{
			Enabled: true, Capacity: 3, RefillTokens: 1, RefillInterval: time.Hour,
			TTL: time.Hour, KeyStrategy: "user", Prefix: "rl", Debug: true,
		},
	})
	// register and login spend the anonymous bucket
	erin := a.register("erin@example.com").Tokens.AccessToken
	frank := a.do(http.MethodPost, "/api/auth/register", "", echo.Map{
		"email": "frank@example.com", "name": "Frank", "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, frank.Code)
	frankToken := decode[authBody](t, frank).Tokens.AccessToken

	for i := 0; i < 3; i++ {
		rec := a.do(http.MethodGet, "/api/auth/me", erin, nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.NotEqual(t, "rl:user:anon", rec.Header().Get("X-RateLimit-Key"))
	}
	assert.Equal(t, http.StatusTooManyRequests, a.do(http.MethodGet, "/api/auth/me", erin, nil).Code)

	rec := a.do(http.MethodGet, "/api/auth/me", frankToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "another user keeps a separate bucket")
}
