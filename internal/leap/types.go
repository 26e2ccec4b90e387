package leap

// Address is the nested address block on customer records.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// CustomerRequest is the customer-creation payload.
type CustomerRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   Address `json:"address"`
}

// CustomerRecord is a customer as returned by the CRM.
type CustomerRecord struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email,omitempty"`
	Phone     string  `json:"phone,omitempty"`
	Address   Address `json:"address"`
}

type customerListResponse struct {
	Data []CustomerRecord `json:"data"`
}

// EstimateRequest is the estimate-creation payload.
type EstimateRequest struct {
	CustomerID     int64    `json:"customer_id"`
	EstimateNumber string   `json:"estimate_number"`
	Name           string   `json:"name"`
	Notes          string   `json:"notes"`
	Status         string   `json:"status"`
	Total          float64  `json:"total"`
	Categories     []string `json:"categories"`
}

// EstimateRecord is an estimate as returned by the CRM.
type EstimateRecord struct {
	ID             int64   `json:"id"`
	CustomerID     int64   `json:"customer_id"`
	EstimateNumber string  `json:"estimate_number,omitempty"`
	Status         string  `json:"status,omitempty"`
	Total          float64 `json:"total,omitempty"`
}
