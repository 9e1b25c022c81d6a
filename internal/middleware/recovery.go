package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/merchantdash/internal/pkg"
)

// Recovery turns a panic into a 500 response and logs it with the stack.
//
// The response depends on the caller: htmx requests get an error toast and no
// swap, browsers get errors/500.html and API clients get the JSON envelope.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.ErrorContext(c.Request.Context(), "panic recovered",
				slog.Any("panic", rec),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("stack", string(debug.Stack())),
			)
			c.Abort()

			switch {
			case pkg.IsHTMX(c):
				pkg.SetToast(c, "Something went wrong, please try again", pkg.ToastError)
				c.Header("HX-Reswap", "none")
				c.Status(http.StatusInternalServerError)
			case acceptsHTML(c):
				renderHTMLError(c)
			default:
				c.JSON(http.StatusInternalServerError, pkg.Response{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// renderHTMLError renders errors/500.html, or plain text when no renderer is
// configured.
func renderHTMLError(c *gin.Context) {
	defer func() {
		if recover() != nil {
			c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("500 Internal Server Error"))
		}
	}()
	c.HTML(http.StatusInternalServerError, "errors/500.html", gin.H{})
}

func acceptsHTML(c *gin.Context) bool {
	return strings.Contains(strings.ToLower(c.GetHeader("Accept")), "text/html")
}
