package domain

// Field bounds shared by the customer importer and storage schema.
const (
	CustomerNameMaxLen = 200
	AddressLineMaxLen  = 300
	SuburbMaxLen       = 100
	StateMaxLen        = 50
	PostCodeMaxLen     = 20
)

// Customer is externally managed reference data that orders point at.
type Customer struct {
	ID       int64
	Name     string
	Address1 string
	Address2 string
	Address3 string
	Suburb   string
	State    string
	PostCode string
}

// Validate checks the customer against its field bounds.
func (c Customer) Validate() error {
	v := NewValidator()
	v.Required("customerName", c.Name)
	v.MaxLen("customerName", c.Name, CustomerNameMaxLen)
	v.MaxLen("address1", c.Address1, AddressLineMaxLen)
	v.MaxLen("address2", c.Address2, AddressLineMaxLen)
	v.MaxLen("address3", c.Address3, AddressLineMaxLen)
	v.MaxLen("suburb", c.Suburb, SuburbMaxLen)
	v.MaxLen("state", c.State, StateMaxLen)
	v.MaxLen("postCode", c.PostCode, PostCodeMaxLen)
	return v.Err()
}
