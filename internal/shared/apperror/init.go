package apperror

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var alphaSpaceRegex = regexp.MustCompile(`^[A-Za-z ]+$`)

func Init() {
	// Daftarkan fungsi kustom ke validator bawaan Gin
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			// Mengambil nama dari tag json (contoh: `json:"leave_type"`)
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("alphaspace", validateAlphaSpace)
		_ = v.RegisterValidation("strongpassword", validateStrongPassword)
	}
}

func validateAlphaSpace(fl validator.FieldLevel) bool {
	return alphaSpaceRegex.MatchString(strings.TrimSpace(fl.Field().String()))
}

// validateStrongPassword requires upper, lower, digit and one of @$!%*?&.
func validateStrongPassword(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

func IsStrongPassword(pw string) bool {
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
			special = true
		}
	}
	return upper && lower && digit && special
}
