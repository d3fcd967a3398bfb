package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// shortIDLength is the number of trailing identifier characters used for OrderID.
const shortIDLength = 6

// LineItem is an entry of an order pairing a catalogue item reference with a quantity.
// Item is populated from the catalogue after loading and is never persisted.
type LineItem struct {
	ID        primitive.ObjectID `bson:"_id"`
	Qty       int                `bson:"qty"`
	ItemID    string             `bson:"item"`
	Item      *Item              `bson:"-"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// ExtPrice returns qty multiplied by the referenced item's price.
// It fails with ErrItemNotResolved when the item has not been populated.
func (l LineItem) ExtPrice() (decimal.Decimal, error) {
	if l.Item == nil {
		return decimal.Zero, fmt.Errorf("line item %s: %w", l.ItemID, ErrItemNotResolved)
	}
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Qty))), nil
}

// Order is a user's order. An unpaid order is the user's cart.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      string             `bson:"user,omitempty"`
	LineItems []LineItem         `bson:"lineItems"`
	IsPaid    bool               `bson:"isPaid"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// OrderTotal sums the extended price of every line item.
func (o *Order) OrderTotal() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range o.LineItems {
		price, err := line.ExtPrice()
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(price)
	}
	return total, nil
}

// TotalQty sums the quantity of every line item.
func (o *Order) TotalQty() int {
	total := 0
	for _, line := range o.LineItems {
		total += line.Qty
	}
	return total
}

// OrderID returns a short human-friendly code: the last six characters of the
// identifier, upper-cased. It is not guaranteed to be globally unique.
func (o *Order) OrderID() string {
	hex := o.ID.Hex()
	return strings.ToUpper(hex[len(hex)-shortIDLength:])
}

// FindLineItem returns the index of the line item referencing itemID, or -1.
func (o *Order) FindLineItem(itemID string) int {
	for i, line := range o.LineItems {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

// IncrementItem adds one to the quantity of the line referencing itemID.
// It reports false when the order has no such line.
func (o *Order) IncrementItem(itemID string) bool {
	i := o.FindLineItem(itemID)
	if i < 0 {
		return false
	}
	o.LineItems[i].Qty++
	o.LineItems[i].UpdatedAt = timestamp()
	return true
}

// AppendItem adds a new line with quantity 1 referencing item.
func (o *Order) AppendItem(item *Item) {
	now := timestamp()
	o.LineItems = append(o.LineItems, LineItem{
		ID:        primitive.NewObjectID(),
		Qty:       1,
		ItemID:    item.ID,
		Item:      item,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// SetItemQty sets the quantity of the line referencing itemID. A quantity of zero
// or less removes the line. An item that is not in the order is left alone, even
// for a positive quantity. It reports whether the order changed.
func (o *Order) SetItemQty(itemID string, qty int) bool {
	i := o.FindLineItem(itemID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		o.LineItems = append(o.LineItems[:i], o.LineItems[i+1:]...)
		return true
	}
	o.LineItems[i].Qty = qty
	o.LineItems[i].UpdatedAt = timestamp()
	return true
}

// ItemIDs returns the distinct item references of the order in line order.
func (o *Order) ItemIDs() []string {
	ids := make([]string, 0, len(o.LineItems))
	seen := make(map[string]struct{}, len(o.LineItems))
	for _, line := range o.LineItems {
		if _, ok := seen[line.ItemID]; ok {
			continue
		}
		seen[line.ItemID] = struct{}{}
		ids = append(ids, line.ItemID)
	}
	return ids
}

// Populate resolves line item references against items and returns the ids
// that could not be resolved.
func (o *Order) Populate(items []Item) []string {
	byID := make(map[string]*Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	var missing []string
	for i := range o.LineItems {
		item, ok := byID[o.LineItems[i].ItemID]
		if !ok {
			o.LineItems[i].Item = nil
			missing = append(missing, o.LineItems[i].ItemID)
			continue
		}
		o.LineItems[i].Item = item
	}
	return missing
}

// Validate checks the stored fields before the order is persisted.
func (o *Order) Validate() error {
	for i, line := range o.LineItems {
		if line.ItemID == "" {
			return fmt.Errorf("line item %d: item reference is required: %w", i, ErrInvalidLineItem)
		}
		if line.Qty <= 0 {
			return fmt.Errorf("line item %d: quantity %d is not positive: %w", i, line.Qty, ErrInvalidLineItem)
		}
	}
	return nil
}

// lineItemJSON is the serialised form of a line item including its extended price.
type lineItemJSON struct {
	ID        string          `json:"id"`
	Qty       int             `json:"qty"`
	Item      *Item           `json:"item"`
	ExtPrice  decimal.Decimal `json:"extPrice"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// orderJSON is the serialised form of an order including its computed fields.
type orderJSON struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"orderId"`
	User       string          `json:"user,omitempty"`
	LineItems  []lineItemJSON  `json:"lineItems"`
	IsPaid     bool            `json:"isPaid"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
	TotalQty   int             `json:"totalQty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// MarshalJSON serialises the order with its computed fields. Every line item must
// be populated.
func (o Order) MarshalJSON() ([]byte, error) {
	lines := make([]lineItemJSON, len(o.LineItems))
	for i, line := range o.LineItems {
		price, err := line.ExtPrice()
		if err != nil {
			return nil, err
		}
		lines[i] = lineItemJSON{
			ID:        line.ID.Hex(),
			Qty:       line.Qty,
			Item:      line.Item,
			ExtPrice:  price,
			CreatedAt: line.CreatedAt,
			UpdatedAt: line.UpdatedAt,
		}
	}

	total, err := o.OrderTotal()
	if err != nil {
		return nil, err
	}

	return json.Marshal(orderJSON{
		ID:         o.ID.Hex(),
		OrderID:    o.OrderID(),
		User:       o.User,
		LineItems:  lines,
		IsPaid:     o.IsPaid,
		OrderTotal: total,
		TotalQty:   o.TotalQty(),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	})
}

// timestamp returns the current time at the precision stored by MongoDB.
func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
