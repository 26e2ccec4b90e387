// Package relay implements the SalesPro webhook relay pipeline: decode an
// inbound payload, resolve the customer against the Leap CRM, and create
// the matching estimate record.
package relay

// Shape identifies which of the two accepted inbound payload shapes a
// delivery used.
type Shape string

const (
	ShapeEstimate    Shape = "estimate"
	ShapeAppointment Shape = "appointment"
)

// Customer is the normalized customer extracted from either inbound shape.
type Customer struct {
	FirstName string
	LastName  string
	Emails    []string
	Phones    []string
	Street    string
	City      string
	State     string
	Zip       string
	OfficeID  string
}

// PrimaryEmail returns the first email, used for matching and creation.
func (c Customer) PrimaryEmail() string {
	if len(c.Emails) == 0 {
		return ""
	}
	return c.Emails[0]
}

// PrimaryPhone returns the first phone number, used for matching and creation.
func (c Customer) PrimaryPhone() string {
	if len(c.Phones) == 0 {
		return ""
	}
	return c.Phones[0]
}

// Estimate is the normalized sales estimate extracted from either shape.
type Estimate struct {
	ID         string
	ResultNote string
	IsSale     bool
	SaleAmount float64
	Categories []string
	OfficeID   string
	// SourceData carries the raw apiSourceData blob from appointment
	// deliveries; it ends up appended to the CRM note.
	SourceData string
}
