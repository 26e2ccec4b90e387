package relay

import (
	"fmt"

	"github.com/leapbridge/leapbridge/internal/leap"
)

// statusSold is the CRM status label for closed sales. The no-sale label
// is a deployment choice and comes from configuration.
const statusSold = "sold"

// defaultResultNote fills the CRM notes field when the source carries none.
const defaultResultNote = "No result note provided"

func mapCustomer(c Customer) leap.CustomerRequest {
	return leap.CustomerRequest{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.PrimaryEmail(),
		Phone:     c.PrimaryPhone(),
		Address: leap.Address{
			Street: c.Street,
			City:   c.City,
			State:  c.State,
			Zip:    c.Zip,
		},
	}
}

func mapEstimate(customerID int64, e Estimate, noSaleStatus string) leap.EstimateRequest {
	status := noSaleStatus
	if e.IsSale {
		status = statusSold
	}
	notes := e.ResultNote
	if notes == "" {
		notes = defaultResultNote
	}
	if e.SourceData != "" {
		notes = notes + "\nSource: " + e.SourceData
	}
	categories := e.Categories
	if categories == nil {
		categories = []string{}
	}
	return leap.EstimateRequest{
		CustomerID:     customerID,
		EstimateNumber: e.ID,
		Name:           fmt.Sprintf("Estimate #%s", e.ID),
		Notes:          notes,
		Status:         status,
		Total:          e.SaleAmount,
		Categories:     categories,
	}
}
