package echoapi

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// schedulerMiddleware restricts an endpoint to university staff and admins.
func schedulerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsUniversity || claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// proposerMiddleware restricts an endpoint to subject proposers
// (professors and companies) and admins.
func proposerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsProfessor || claims.IsCompany || claims.IsAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// requestTimeoutMiddleware bounds every request with a deadline; blocking
// repository calls inherit it through the request context.
func requestTimeoutMiddleware(timeout time.Duration) echo.MiddlewareFunc {
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
