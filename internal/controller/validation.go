package controller

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dwarvesf/alph-swap-backend/internal/model"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("txid", func(fl validator.FieldLevel) bool {
		return model.IsTxID(fl.Field().String())
	})
	return v
}

func toValidationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "txid":
		return "must be a 64 character hexadecimal transaction id"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// checkAdvanceFields enforces the fields each target status requires, and
// rejects fields that do not belong to it.
func checkAdvanceFields(current *model.SwapRequest, next model.SwapRequestStatus, fields AdvanceFields) error {
	verr := &ValidationError{}
	reject := func(field, message string) {
		verr.Fields = append(verr.Fields, FieldError{Field: field, Message: message})
	}

	if next != model.SwapRequestStatusFulfilling {
		if fields.FaucetTxID != nil {
			reject("faucetTxId", "can only be set when entering FULFILLING")
		}
		if fields.AmountTargetToken != nil {
			reject("amountTargetToken", "can only be set when entering FULFILLING")
		}
	}
	if next != model.SwapRequestStatusFailed && fields.FailureReason != nil {
		reject("failureReason", "can only be set when entering FAILED")
	}

	switch next {
	case model.SwapRequestStatusDepositConfirmed:
		if current.DepositTxID == nil {
			reject("depositTxId", "is required before the deposit can be confirmed")
		}
	case model.SwapRequestStatusFulfilling:
		if fields.FaucetTxID == nil || strings.TrimSpace(*fields.FaucetTxID) == "" {
			reject("faucetTxId", "is required")
		}
		if fields.AmountTargetToken == nil || !fields.AmountTargetToken.IsPositive() {
			reject("amountTargetToken", "must be greater than 0")
		}
	case model.SwapRequestStatusCompleted:
		if current.FaucetTxID == nil || !current.AmountTargetToken.Valid {
			reject("faucetTxId", "fulfillment fields must be set before completion")
		}
	case model.SwapRequestStatusFailed:
		if fields.FailureReason == nil || strings.TrimSpace(*fields.FailureReason) == "" {
			reject("failureReason", "is required")
		}
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
