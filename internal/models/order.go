package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OrderItem is either a structured record with a name field or a plain string.
type OrderItem struct {
	Name   string
	Fields map[string]interface{} // nil for plain-string items
}

func (i *OrderItem) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		i.Name = plain
		i.Fields = nil
		return nil
	}

	var record map[string]interface{}
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("order item must be a string or an object: %w", err)
	}
	i.Fields = record
	if name, ok := record["name"].(string); ok {
		i.Name = name
	}
	return nil
}

func (i OrderItem) MarshalJSON() ([]byte, error) {
	if i.Fields == nil {
		return json.Marshal(i.Name)
	}
	return json.Marshal(i.Fields)
}

// Order is a single order record.
type Order struct {
	OrderID      string      `json:"order_id"`
	Status       string      `json:"status"`
	Items        []OrderItem `json:"items,omitempty"`
	Tracking     string      `json:"tracking,omitempty"`
	DeliveryDate string      `json:"delivery_date,omitempty"`
}

// ItemNames joins item names with ", ", or returns "your items" when there are none.
func (o Order) ItemNames() string {
	if len(o.Items) == 0 {
		return "your items"
	}
	names := make([]string, len(o.Items))
	for i, item := range o.Items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ")
}

// AsMap returns the full record in its wire shape.
func (o Order) AsMap() map[string]interface{} {
	m := map[string]interface{}{
		"order_id": o.OrderID,
		"status":   o.Status,
	}

	items := make([]interface{}, len(o.Items))
	for i, item := range o.Items {
		if item.Fields != nil {
			items[i] = item.Fields
		} else {
			items[i] = item.Name
		}
	}
	m["items"] = items

	if o.Tracking != "" {
		m["tracking"] = o.Tracking
	}
	if o.DeliveryDate != "" {
		m["delivery_date"] = o.DeliveryDate
	}
	return m
}

// OrderBook maps order ids to records. Read-only after loading.
type OrderBook map[string]Order

func (b OrderBook) Lookup(orderID string) (Order, bool) {
	o, ok := b[orderID]
	return o, ok
}
