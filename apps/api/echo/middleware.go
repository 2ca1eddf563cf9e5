package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
)

// roleMiddleware short-circuits requests whose verified role is not in the
// given set; the services still re-check on their own.
func roleMiddleware(roles ...core.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			rctx, err := requestContext(ctx)
			if err != nil {
				return errors.Wrap(err, "getting request context")
			}
			for _, role := range roles {
				if rctx.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
