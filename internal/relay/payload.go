package relay

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Inbound DTOs for the estimate shape. Field names follow the SalesPro
// webhook schema.
type estimateEnvelope struct {
	Customer *customerPayload `json:"customer"`
	Estimate *estimatePayload `json:"estimate"`
}

type customerPayload struct {
	FirstName    string       `json:"firstName" validate:"required"`
	LastName     string       `json:"lastName" validate:"required"`
	Emails       []emailEntry `json:"emails"`
	PhoneNumbers []phoneEntry `json:"phoneNumbers"`
	Street       string       `json:"street"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	ZipCode      string       `json:"zipCode"`
	OfficeID     string       `json:"officeId"`
}

type emailEntry struct {
	Email string `json:"email"`
}

type phoneEntry struct {
	Number string `json:"number"`
}

type estimatePayload struct {
	ID              string   `json:"id" validate:"required"`
	ResultNote      string   `json:"resultNote"`
	IsSale          bool     `json:"isSale"`
	SaleAmount      *float64 `json:"saleAmount" validate:"required"`
	AddedCategories []string `json:"addedCategories"`
	OfficeID        string   `json:"officeId"`
}

// fieldRecord is one entry of the appointment shape: an ordered list of
// appKey/value pairs.
type fieldRecord struct {
	AppKey string          `json:"appKey"`
	Value  json.RawMessage `json:"value"`
}

// ParsePayload decodes and validates an inbound webhook body of either
// accepted shape and normalizes it into the internal representation.
func ParsePayload(body []byte) (Customer, Estimate, Shape, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return Customer{}, Estimate{}, "", newValidationError("body", "request body is empty")
	}
	switch trimmed[0] {
	case '{':
		customer, estimate, err := parseEstimateShape(body)
		return customer, estimate, ShapeEstimate, err
	case '[':
		customer, estimate, err := parseAppointmentShape(body)
		return customer, estimate, ShapeAppointment, err
	default:
		return Customer{}, Estimate{}, "", newValidationError("body", "request body must be a JSON object or array")
	}
}

func parseEstimateShape(body []byte) (Customer, Estimate, error) {
	var envelope estimateEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Customer{}, Estimate{}, newValidationError("body", "request body is not valid JSON")
	}
	if err := validateEstimateShape(envelope); err != nil {
		return Customer{}, Estimate{}, err
	}

	cp := envelope.Customer
	customer := Customer{
		FirstName: cp.FirstName,
		LastName:  cp.LastName,
		Street:    cp.Street,
		City:      cp.City,
		State:     cp.State,
		Zip:       cp.ZipCode,
		OfficeID:  cp.OfficeID,
	}
	for _, entry := range cp.Emails {
		if entry.Email != "" {
			customer.Emails = append(customer.Emails, entry.Email)
		}
	}
	for _, entry := range cp.PhoneNumbers {
		if entry.Number != "" {
			customer.Phones = append(customer.Phones, entry.Number)
		}
	}

	ep := envelope.Estimate
	estimate := Estimate{
		ID:         ep.ID,
		ResultNote: ep.ResultNote,
		IsSale:     ep.IsSale,
		Categories: ep.AddedCategories,
		OfficeID:   ep.OfficeID,
	}
	if ep.SaleAmount != nil {
		estimate.SaleAmount = *ep.SaleAmount
	}
	return customer, estimate, nil
}

func parseAppointmentShape(body []byte) (Customer, Estimate, error) {
	var records []fieldRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return Customer{}, Estimate{}, newValidationError("body", "request body is not valid JSON")
	}
	if len(records) == 0 {
		return Customer{}, Estimate{}, newValidationError("body", "appointment payload is empty")
	}

	var customer Customer
	var estimate Estimate
	for _, rec := range records {
		switch rec.AppKey {
		case "identifier":
			estimate.ID = stringValue(rec.Value)
		case "name":
			parts := strings.Fields(stringValue(rec.Value))
			if len(parts) > 0 {
				customer.FirstName = parts[0]
				customer.LastName = strings.Join(parts[1:], " ")
			}
		case "addressStreet":
			customer.Street = stringValue(rec.Value)
		case "addressCity":
			customer.City = stringValue(rec.Value)
		case "addressState":
			customer.State = stringValue(rec.Value)
		case "addressZip":
			customer.Zip = stringValue(rec.Value)
		case "phone":
			if number := stringValue(rec.Value); number != "" {
				customer.Phones = append(customer.Phones, number)
			}
		case "email":
			if email := stringValue(rec.Value); email != "" {
				customer.Emails = append(customer.Emails, email)
			}
		case "apiSourceData":
			estimate.SourceData = stringValue(rec.Value)
		}
		// unrecognized appKeys are ignored
	}

	if err := validateAppointmentShape(customer, estimate); err != nil {
		return Customer{}, Estimate{}, err
	}
	return customer, estimate, nil
}

// stringValue extracts a JSON string value, falling back to the raw JSON
// text for non-string values such as numbers or objects.
func stringValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
