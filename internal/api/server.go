package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zenohflow/runtime/common/bootstrap"
)

// NewServer builds an *echo.Echo wired with middleware, a health check
// and every route from h, mirroring the teacher's setupEcho/setupMiddleware
// split so each concern stays independently testable.
func NewServer(h *Handler) *echo.Echo {
	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e)
	RegisterRoutes(e, h)
	return e
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "ok",
			"service": "runtime-api",
		})
	})
}

// Serve starts e on the port configured in components, blocking until
// the server returns (on error or graceful Shutdown from the caller).
func Serve(e *echo.Echo, components *bootstrap.Components) error {
	port := components.Config.Runtime.Port
	components.Logger.Info("starting runtime API", "port", port)
	return e.Start(fmt.Sprintf(":%d", port))
}
