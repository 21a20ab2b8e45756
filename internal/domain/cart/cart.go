// Package cart keeps the shopper's selection as a flat list of units and
// derives grouped line items and totals from it on demand.
package cart

import (
	"github.com/shopspring/decimal"
)

// Entry is one unit added to the cart.
type Entry struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
}

// LineItem is one distinct item in the cart with its quantity.
type LineItem struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Total returns unit price times quantity.
func (l LineItem) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Totals is the priced summary of a cart.
type Totals struct {
	Subtotal     decimal.Decimal
	DiscountRate decimal.Decimal
	Discount     decimal.Decimal
	DeliveryFee  decimal.Decimal
	Total        decimal.Decimal
}

// Rounded returns the totals rounded to the currency's minor unit. Total is
// recomputed from the rounded parts so the summary stays balanced.
func (t Totals) Rounded() Totals {
	r := Totals{
		Subtotal:     t.Subtotal.Round(2),
		DiscountRate: t.DiscountRate,
		Discount:     t.Discount.Round(2),
		DeliveryFee:  t.DeliveryFee.Round(2),
	}
	r.Total = r.Subtotal.Sub(r.Discount).Add(r.DeliveryFee)
	return r
}

// WithoutDelivery returns the totals with the delivery fee removed, as used
// for pickup orders.
func (t Totals) WithoutDelivery() Totals {
	t.Total = t.Total.Sub(t.DeliveryFee)
	t.DeliveryFee = decimal.Zero
	return t
}

// Cart is a flat list of units. The list is the source of truth; grouping
// and totals are recomputed from it on every call.
type Cart struct {
	entries []Entry
}

// Add appends one unit of the entry.
func (c *Cart) Add(e Entry) {
	c.entries = append(c.entries, e)
}

// RemoveOne removes the first unit with the given item ID. It reports
// whether a unit was removed.
func (c *Cart) RemoveOne(itemID string) bool {
	for i, e := range c.entries {
		if e.ItemID == itemID {
			c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAll removes every unit with the given item ID and returns how many
// were removed.
func (c *Cart) RemoveAll(itemID string) int {
	kept := c.entries[:0:0]
	for _, e := range c.entries {
		if e.ItemID != itemID {
			kept = append(kept, e)
		}
	}
	removed := len(c.entries) - len(kept)
	c.entries = kept
	return removed
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.entries = nil
}

// Len returns the number of units in the cart.
func (c *Cart) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the flat unit list.
func (c *Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lines groups units by item ID in order of first appearance.
func (c *Cart) Lines() []LineItem {
	index := make(map[string]int, len(c.entries))
	lines := make([]LineItem, 0, len(c.entries))
	for _, e := range c.entries {
		if i, ok := index[e.ItemID]; ok {
			lines[i].Quantity++
			continue
		}
		index[e.ItemID] = len(lines)
		lines = append(lines, LineItem{
			ItemID:    e.ItemID,
			Name:      e.Name,
			UnitPrice: e.UnitPrice,
			Quantity:  1,
		})
	}
	return lines
}

// Totals prices the cart. The delivery fee only applies to a non-empty
// subtotal.
func (c *Cart) Totals(discountRate, deliveryFee decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, e := range c.entries {
		subtotal = subtotal.Add(e.UnitPrice)
	}
	return Compute(subtotal, discountRate, deliveryFee)
}

// Compute derives totals from a subtotal:
// total = subtotal - subtotal*rate + (subtotal > 0 ? fee : 0).
func Compute(subtotal, discountRate, deliveryFee decimal.Decimal) Totals {
	fee := decimal.Zero
	if subtotal.IsPositive() {
		fee = deliveryFee
	}
	discount := subtotal.Mul(discountRate)
	return Totals{
		Subtotal:     subtotal,
		DiscountRate: discountRate,
		Discount:     discount,
		DeliveryFee:  fee,
		Total:        subtotal.Sub(discount).Add(fee),
	}
}
