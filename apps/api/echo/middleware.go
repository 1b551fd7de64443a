package echoapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/topphysics/core"
	"github.com/trezcool/topphysics/core/assistant"
)

// adminMiddleware only lets admins through; it runs after authenticator.middleware.
func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			actor, err := core.RequireActor(ctx.Request().Context())
			if err != nil {
				return err
			}
			if !actor.IsAdmin {
				return assistant.ErrForbidden
			}
			return next(ctx)
		}
	}
}

// timeoutMiddleware bounds every request's context by timeout.
func timeoutMiddleware(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if timeout <= 0 {
				return next(ctx)
			}
			reqCtx, cancel := context.WithTimeout(ctx.Request().Context(), timeout)
			defer cancel()
			ctx.SetRequest(ctx.Request().WithContext(reqCtx))
			return next(ctx)
		}
	}
}
