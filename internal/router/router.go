package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/sellerhub/internal/handler"
	"github.com/iliyamo/sellerhub/internal/middleware"
	"github.com/iliyamo/sellerhub/internal/model"
)

// Guards are the middleware chains routes are mounted behind. Build them
// once in main so every route shares the same limiter and cache state.
type Guards struct {
	Auth      echo.MiddlewareFunc // JWTAuth
	RateLimit echo.MiddlewareFunc // token bucket on credential endpoints
	Cache     echo.MiddlewareFunc // response cache on image downloads
}

func (g Guards) user() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{g.Auth, middleware.RequireRole(model.RoleUser)}
}

func (g Guards) admin() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{g.Auth, middleware.RequireRole(model.RoleAdmin)}
}

// New returns an Echo instance with the server wide middleware installed:
// request logging, panic recovery, CORS for the browser client and a body
// size cap for image uploads.
func New(log *slog.Logger, corsOrigin string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{corsOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("10M"))
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/welcome", handler.Text("Welcome this endpoint is not secure"))
}

// RegisterAuth registers registration, login, OTP and password reset.
// Everything that checks a credential sits behind the rate limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	api := e.Group("/api")
	api.POST("/register", a.Register)
	api.POST("/login", a.Login, g.RateLimit)
	api.POST("/sendOtp", a.SendOTP, g.RateLimit)
	api.POST("/verifyOtp", a.VerifyOTP, g.RateLimit)
	api.PUT("/reset-password", a.ResetPassword, g.RateLimit)
}

// RegisterUsers registers profile, approval and role check endpoints.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, g Guards) {
	api := e.Group("/api")

	api.GET("/getUserById", u.GetUserByID, g.Auth)
	api.GET("/testLanding", u.TestLanding, g.Auth)

	api.GET("/testUser", handler.Text("I am user controller"), g.user()...)
	api.GET("/user/userProfile", handler.Text("Welcome to the USER profile!"), g.user()...)

	api.GET("/testAdmin", handler.Text("I am admin controller"), g.admin()...)
	api.GET("/admin/adminProfile", handler.Text("Welcome to the ADMIN profile!"), g.admin()...)
	api.PUT("/approve/:id", u.Approve, g.admin()...)
	api.GET("/registeredUser", u.RegisteredUsers, g.admin()...)
}
