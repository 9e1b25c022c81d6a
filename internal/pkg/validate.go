package pkg

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// init registers notblank, which rejects the whitespace-only strings that
// required lets through for pointer fields.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic("pkg: register notblank: " + err.Error())
		}
	}
}
