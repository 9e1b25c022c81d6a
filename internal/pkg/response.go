package pkg

import (
	"errors"
	"maps"
	"net/http"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/simp-lee/merchantdash/internal/domain"
)

// Response is the JSON envelope of every /api/v1 reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ValidationErrorResponse reports per-field binding failures keyed by JSON name.
type ValidationErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func reply(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Code: status, Message: message, Data: data})
}

func Success(c *gin.Context, data any) { reply(c, http.StatusOK, "success", data) }

func Created(c *gin.Context, data any) { reply(c, http.StatusCreated, "created", data) }

// List replies with a table page.
func List(c *gin.Context, page any) { reply(c, http.StatusOK, "success", page) }

// Error replies with the status derived from err's domain code. Errors without
// a code are reported as "internal error".
func Error(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		reply(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	reply(c, appErr.Code.Status(), appErr.Message, nil)
}

// ValidationError replies 400 with field messages when err holds
// validator.ValidationErrors. Field names fall back to lowercase Go names.
func ValidationError(c *gin.Context, err error) {
	writeBindError(c, err, nil)
}

// BindAndValidate binds the request into obj. On failure it writes a 400 reply
// using obj's json tags for field names and returns false.
func BindAndValidate(c *gin.Context, obj any) bool {
	err := c.ShouldBind(obj)
	if err == nil {
		return true
	}
	writeBindError(c, err, reflect.TypeOf(obj))
	return false
}

func writeBindError(c *gin.Context, err error, typ reflect.Type) {
	fields := fieldErrors(err, typ)
	if fields == nil {
		// Decoder messages leak Go types.
		reply(c, http.StatusBadRequest, "bad request", nil)
		return
	}
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Errors:  fields,
	})
}

// BindError converts a binding failure into a validation error that names the
// first failing field, for replies that cannot carry the field map.
func BindError(err error, obj any) error {
	fields := fieldErrors(err, reflect.TypeOf(obj))
	if len(fields) == 0 {
		return domain.NewAppError(domain.CodeValidation, "invalid request", err)
	}
	name := slices.Min(slices.Collect(maps.Keys(fields)))
	return domain.NewAppError(domain.CodeValidation, name+": "+fields[name], err)
}

// fieldErrors maps validator failures to messages keyed by JSON name. It
// returns nil when err is not a validation failure.
func fieldErrors(err error, typ reflect.Type) map[string]string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		param := fe.Param()
		if strings.HasSuffix(fe.Tag(), "field") {
			param = jsonFieldName(typ, param)
		}
		out[jsonFieldName(typ, fe.StructField())] = FieldMessage(fe.Tag(), param)
	}
	return out
}

// jsonFieldName returns the json tag name of field on typ, or the lowercased
// field name when typ is unknown or the tag is absent.
func jsonFieldName(typ reflect.Type, field string) string {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ != nil && typ.Kind() == reflect.Struct {
		if f, ok := typ.FieldByName(field); ok {
			if name := jsonTagName(f.Tag.Get("json")); name != "" {
				return name
			}
		}
	}
	return strings.ToLower(field)
}

func jsonTagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

var fieldMessages = map[string]string{
	"required": "This field is required",
	"notblank": "This field is required",
	"email":    "Must be a valid email address",
	"min":      "Must be at least {} characters",
	"max":      "Must be at most {} characters",
	"len":      "Must be exactly {} characters",
	"gte":      "Must be at least {}",
	"gtefield": "Must not be less than {}",
	"numeric":  "Must contain only digits",
	"number":   "Must contain only digits",
	"oneof":    "Must be one of: {}",
	"url":      "Must be a valid URL",
	"http_url": "Must be a valid URL",
}

var oneofValue = regexp.MustCompile(`'[^']*'|\S+`)

// FieldMessage renders the display message for a failed validator tag.
func FieldMessage(tag, param string) string {
	msg, ok := fieldMessages[tag]
	if !ok {
		return "Invalid value"
	}
	if tag == "oneof" {
		values := oneofValue.FindAllString(param, -1)
		for i, v := range values {
			values[i] = strings.Trim(v, "'")
		}
		param = strings.Join(values, ", ")
	}
	return strings.Replace(msg, "{}", param, 1)
}
