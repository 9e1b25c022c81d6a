package pkg

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/merchantdash/internal/domain"
)

// Toast types understood by the layout's showToast listener.
const (
	ToastSuccess = "success"
	ToastError   = "error"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true"
}

// SetToast sets the HX-Trigger response header with a showToast event.
func SetToast(c *gin.Context, message, toastType string) {
	trigger, _ := json.Marshal(map[string]any{
		"showToast": map[string]string{
			"message": message,
			"type":    toastType,
		},
	})
	c.Header("HX-Trigger", string(trigger))
}

// ActionFailed reports a failed htmx action: an error toast, no swap, 200 so
// htmx still processes the trigger header.
func ActionFailed(c *gin.Context, message string) {
	c.Header("HX-Reswap", "none")
	SetToast(c, message, ToastError)
	c.Status(http.StatusOK)
}

// SafeMessage returns the AppError message when its code is user facing,
// otherwise fallback.
func SafeMessage(err error, fallback string) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Code.UserFacing() {
		return appErr.Message
	}
	return fallback
}
