package middleware

import "github.com/labstack/echo/v4"

// The current principal arrives from the edge as a trusted header; session
// issuance itself lives outside this service.
const principalHeader = "X-User-Email"

// PrincipalKey is the echo context key under which the owner identity is set.
const PrincipalKey = "user_email"

func Principal() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(PrincipalKey, c.Request().Header.Get(principalHeader))
			return next(c)
		}
	}
}
