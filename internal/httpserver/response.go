package httpserver

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"salesorder-api/internal/domain"
	"salesorder-api/internal/pricing"
)

type customerResponse struct {
	CustomerID   int64  `json:"customerId"`
	CustomerName string `json:"customerName"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	Address3     string `json:"address3"`
	Suburb       string `json:"suburb"`
	State        string `json:"state"`
	PostCode     string `json:"postCode"`
}

type salesOrderResponse struct {
	SalesOrderID int64                    `json:"salesOrderId"`
	CustomerID   int64                    `json:"customerId"`
	Customer     *customerResponse        `json:"customer"`
	InvoiceNo    string                   `json:"invoiceNo"`
	InvoiceDate  time.Time                `json:"invoiceDate"`
	ReferenceNo  string                   `json:"referenceNo"`
	Note         string                   `json:"note"`
	TotalExcl    json.Number              `json:"totalExcl"`
	TotalTax     json.Number              `json:"totalTax"`
	TotalIncl    json.Number              `json:"totalIncl"`
	Version      int                      `json:"version"`
	CreatedDate  time.Time                `json:"createdDate"`
	ModifiedDate *time.Time               `json:"modifiedDate"`
	Lines        []salesOrderLineResponse `json:"salesOrderLines"`
}

type salesOrderLineResponse struct {
	SalesOrderLineID int64       `json:"salesOrderLineId"`
	SalesOrderID     int64       `json:"salesOrderId"`
	ItemCode         string      `json:"itemCode"`
	Description      string      `json:"description"`
	Note             string      `json:"note"`
	Quantity         int64       `json:"quantity"`
	Price            json.Number `json:"price"`
	Tax              json.Number `json:"tax"`
	ExclAmount       json.Number `json:"exclAmount"`
	TaxAmount        json.Number `json:"taxAmount"`
	InclAmount       json.Number `json:"inclAmount"`
}

// money renders d as a JSON number with exactly two fractional digits.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(pricing.Places))
}

func toCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		CustomerID:   c.ID,
		CustomerName: c.Name,
		Address1:     c.Address1,
		Address2:     c.Address2,
		Address3:     c.Address3,
		Suburb:       c.Suburb,
		State:        c.State,
		PostCode:     c.PostCode,
	}
}

func toSalesOrderResponse(o domain.SalesOrder) salesOrderResponse {
	lines := make([]salesOrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, salesOrderLineResponse{
			SalesOrderLineID: l.ID,
			SalesOrderID:     o.ID,
			ItemCode:         l.ItemCode,
			Description:      l.Description,
			Note:             l.Note,
			Quantity:         l.Quantity,
			Price:            money(l.Price),
			Tax:              money(l.TaxRate),
			ExclAmount:       money(l.ExclAmount),
			TaxAmount:        money(l.TaxAmount),
			InclAmount:       money(l.InclAmount),
		})
	}

	var customer *customerResponse
	if o.Customer != nil {
		c := toCustomerResponse(*o.Customer)
		customer = &c
	}

	return salesOrderResponse{
		SalesOrderID: o.ID,
		CustomerID:   o.CustomerID,
		Customer:     customer,
		InvoiceNo:    o.InvoiceNo,
		InvoiceDate:  o.InvoiceDate,
		ReferenceNo:  o.ReferenceNo,
		Note:         o.Note,
		TotalExcl:    money(o.TotalExcl),
		TotalTax:     money(o.TotalTax),
		TotalIncl:    money(o.TotalIncl),
		Version:      o.Version,
		CreatedDate:  o.CreatedDate,
		ModifiedDate: o.ModifiedDate,
		Lines:        lines,
	}
}
