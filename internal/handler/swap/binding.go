package swap

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
	"github.com/dwarvesf/alph-swap-backend/internal/view"
)

func init() {
	binding.EnableDecoderDisallowUnknownFields = true
	binding.EnableDecoderUseNumber = true

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("txid", func(fl validator.FieldLevel) bool {
			return model.IsTxID(fl.Field().String())
		})
		_ = v.RegisterValidation("alph_amount", func(fl validator.FieldLevel) bool {
			amount, err := decimal.NewFromString(fl.Field().String())
			return err == nil && model.CheckAmountAlph(amount) == nil
		})
	}
}

// fieldName reports fields by their json or form key.
func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

func bindJSON(c *gin.Context, out interface{}) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	return c.ShouldBindJSON(out)
}

// bindingFieldErrors converts a binding error into per-field messages. Errors
// that name no field are reported against fallback.
func bindingFieldErrors(err error, fallback string) []view.FieldError {
	var (
		verrs     validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &verrs):
		fields := make([]view.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, view.FieldError{Field: fe.Field(), Message: tagMessage(fe)})
		}
		return fields
	case errors.Is(err, io.EOF):
		return []view.FieldError{{Field: fallback, Message: "is required"}}
	case errors.As(err, &tooLarge):
		return []view.FieldError{{Field: fallback, Message: fmt.Sprintf("must be at most %d bytes", tooLarge.Limit)}}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return []view.FieldError{{Field: fallback, Message: "is not valid JSON"}}
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return []view.FieldError{{Field: fallback, Message: "must be a JSON object"}}
		}
		return []view.FieldError{{Field: typeErr.Field, Message: "must be of type " + jsonKind(typeErr.Type)}}
	}
	return []view.FieldError{{Field: fallback, Message: strings.TrimPrefix(err.Error(), "json: ")}}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "txid":
		return "must be a 64 character hexadecimal transaction id"
	case "alph_amount":
		return fmt.Sprintf("must be greater than 0 and less than 1e%d, with at most %d decimal places",
			model.MaxAmountAlphDigits, model.AlphDecimals)
	}
	return "is invalid"
}

func jsonKind(t reflect.Type) string {
	switch {
	case t == reflect.TypeOf(json.Number("")):
		return "number"
	case t.Kind() == reflect.Ptr:
		return jsonKind(t.Elem())
	}
	return t.Kind().String()
}
