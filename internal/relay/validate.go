package relay

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator returns a validator that reports field names from json tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateEstimateShape(envelope estimateEnvelope) error {
	fields := make(map[string]string)
	if envelope.Customer == nil {
		fields["customer"] = "is required"
	}
	if envelope.Estimate == nil {
		fields["estimate"] = "is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	collectFieldErrors(fields, "customer.", validate.Struct(envelope.Customer))
	collectFieldErrors(fields, "estimate.", validate.Struct(envelope.Estimate))

	// Office identifiers guard against cross-tenant writes: when both
	// sides carry one, they must agree.
	if envelope.Customer.OfficeID != "" && envelope.Estimate.OfficeID != "" &&
		envelope.Customer.OfficeID != envelope.Estimate.OfficeID {
		fields["officeId"] = "customer and estimate office identifiers do not match"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateAppointmentShape(customer Customer, estimate Estimate) error {
	fields := make(map[string]string)
	if customer.FirstName == "" {
		fields["name"] = "is required"
	}
	if estimate.ID == "" {
		fields["identifier"] = "is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func collectFieldErrors(fields map[string]string, prefix string, err error) {
	if err == nil {
		return
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		fields[strings.TrimSuffix(prefix, ".")] = err.Error()
		return
	}
	for _, fieldErr := range validationErrs {
		msg := "is invalid"
		if fieldErr.Tag() == "required" {
			msg = "is required"
		}
		fields[prefix+fieldErr.Field()] = msg
	}
}
