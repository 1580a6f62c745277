// Package events publishes sales order lifecycle events after a write commits.
package events

import (
	"context"
	"encoding/json"
	"time"

	"salesorder-api/internal/domain"
)

// Type names a sales order lifecycle event.
type Type string

const (
	TypeCreated Type = "salesorder.created"
	TypeUpdated Type = "salesorder.updated"
	TypeDeleted Type = "salesorder.deleted"
)

// Event is the message body written for every lifecycle change.
type Event struct {
	Type         Type        `json:"type"`
	SalesOrderID int64       `json:"salesOrderId"`
	CustomerID   int64       `json:"customerId"`
	Version      int         `json:"version"`
	TotalExcl    json.Number `json:"totalExcl"`
	TotalTax     json.Number `json:"totalTax"`
	TotalIncl    json.Number `json:"totalIncl"`
	OccurredAt   time.Time   `json:"occurredAt"`
}

// NewOrderEvent snapshots the identifying fields and totals of order.
func NewOrderEvent(t Type, order domain.SalesOrder, at time.Time) Event {
	return Event{
		Type:         t,
		SalesOrderID: order.ID,
		CustomerID:   order.CustomerID,
		Version:      order.Version,
		TotalExcl:    json.Number(order.TotalExcl.StringFixed(2)),
		TotalTax:     json.Number(order.TotalTax.StringFixed(2)),
		TotalIncl:    json.Number(order.TotalIncl.StringFixed(2)),
		OccurredAt:   at.UTC(),
	}
}

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
