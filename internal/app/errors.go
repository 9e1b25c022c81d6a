package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/merchantdash/internal/pkg"
)

// errorPages lists the status codes with a dedicated errors/<code>.html page.
var errorPages = map[int]bool{
	http.StatusBadRequest:          true,
	http.StatusNotFound:            true,
	http.StatusInternalServerError: true,
}

type errorFormat int

const (
	formatJSON errorFormat = iota
	formatPage
	formatToast
)

// errorFormatFor picks how an error reaches the client: API paths and explicit
// JSON clients get the envelope, htmx swaps get a toast, browsers get a page.
func errorFormatFor(c *gin.Context) errorFormat {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return formatJSON
	}
	if pkg.IsHTMX(c) {
		return formatToast
	}
	accept := strings.ToLower(strings.TrimSpace(c.GetHeader("Accept")))
	switch {
	case strings.Contains(accept, "text/html"), accept == "":
		return formatPage
	case strings.Contains(accept, "application/json"):
		return formatJSON
	case strings.Contains(accept, "*/*"):
		return formatPage
	}
	return formatJSON
}

func renderError(c *gin.Context, code int, message string) {
	switch errorFormatFor(c) {
	case formatToast:
		pkg.SetToast(c, statusTitle(code), pkg.ToastError)
		c.Header("HX-Reswap", "none")
		c.AbortWithStatus(code)
	case formatPage:
		renderErrorPage(c, code)
	default:
		c.JSON(code, pkg.Response{Code: code, Message: message})
	}
}

// renderErrorPage writes errors/<code>.html, errors/500.html for codes without
// a page, or plain text when no renderer can produce it.
func renderErrorPage(c *gin.Context, code int) {
	defer func() {
		if recover() != nil {
			c.Data(code, "text/plain; charset=utf-8", fmt.Appendf(nil, "%d %s", code, statusTitle(code)))
		}
	}()
	page := http.StatusInternalServerError
	if errorPages[code] {
		page = code
	}
	c.HTML(code, fmt.Sprintf("errors/%d.html", page), gin.H{"Code": code, "Status": statusTitle(code)})
}

func statusTitle(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Error"
}
