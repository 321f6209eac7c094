package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery turns a panic in a handler into a JSON-RPC internal error so MCP
// clients on the HTTP transport still receive a well-formed reply.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					logger.Error().
						Str("request_id", fmt.Sprintf("%v", c.Get("request_id"))).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					err = jsonRPCError(c, http.StatusInternalServerError, codeInternalError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}

// JSON-RPC 2.0 error codes used by the HTTP transport guards.
const (
	codeInvalidRequest = -32600
	codeInternalError  = -32603
)

func jsonRPCError(c echo.Context, status, code int, message string) error {
	return c.JSON(status, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      nil,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}
