package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"propdesk-backend/internal/apperr"
	"propdesk-backend/internal/domain"
)

// dateLayout is the calendar date format used by request bodies.
const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("property_type", validatePropertyType)
	_ = v.RegisterValidation("payment_method", validatePaymentMethod)
	_ = v.RegisterValidation("payment_type", validatePaymentType)
	_ = v.RegisterValidation("lease_end_status", validateLeaseEndStatus)
	return v
}

func validatePropertyType(fl validator.FieldLevel) bool {
	switch domain.PropertyType(fl.Field().String()) {
	case domain.PropertyTypeApartment, domain.PropertyTypeHouse, domain.PropertyTypeCommercial, domain.PropertyTypeOther:
		return true
	}
	return false
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch domain.PaymentMethod(fl.Field().String()) {
	case domain.PaymentMethodBankTransfer, domain.PaymentMethodUPI, domain.PaymentMethodCash,
		domain.PaymentMethodCheque, domain.PaymentMethodCard:
		return true
	}
	return false
}

func validatePaymentType(fl validator.FieldLevel) bool {
	switch domain.PaymentType(fl.Field().String()) {
	case domain.PaymentTypeRent, domain.PaymentTypeMaintenance, domain.PaymentTypeDeposit, domain.PaymentTypeOther:
		return true
	}
	return false
}

func validateLeaseEndStatus(fl validator.FieldLevel) bool {
	switch domain.LeaseStatus(fl.Field().String()) {
	case domain.LeaseStatusEnded, domain.LeaseStatusTerminated:
		return true
	}
	return false
}

// validateStruct runs the tag rules on v and renders the first failure as
// an invalid-input error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.ErrInvalidInput, err)
	}
	return apperr.WithMessage(apperr.ErrInvalidInput, describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "uuid":
		return field + " must be a valid id"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}
