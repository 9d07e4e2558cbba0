package market

import "github.com/bryzgaloff/crypto-apis/currency"

// Order is one outstanding commitment to trade Amount units of a source
// currency for a destination currency at Price (destination units per source
// unit). ID is the provider's opaque order identifier.
type Order struct {
	Amount float64
	Price  float64
	ID     string
}

// Orders groups open orders by source then destination currency. Buy/sell
// semantics are normalized away before this structure is built: direction is
// always source -> destination, price always destination-per-source.
type Orders map[string]map[string][]Order

// NewOrders normalizes the currency keys of a raw order grouping. Orders of
// raw spellings that collapse onto one canonical currency are concatenated,
// never dropped.
func NewOrders(raw map[string]map[string][]Order) (Orders, error) {
	normalized, err := currency.NormalizeNested(raw, concatOrders)
	if err != nil {
		return nil, err
	}
	return Orders(normalized), nil
}

func concatOrders(groups [][]Order) []Order {
	var merged []Order
	for _, group := range groups {
		merged = append(merged, group...)
	}
	return merged
}

// Inverted re-keys the orders by destination currency, re-expressing each
// commitment as seen from the destination side: amount becomes amount*price,
// price is inverted (zero stays zero), and the order ID is preserved. This is
// a pure relabeling, not a new trade.
func (o Orders) Inverted() Orders {
	return Orders(currency.Transpose(map[string]map[string][]Order(o), func(orders []Order) []Order {
		inverted := make([]Order, len(orders))
		for i, order := range orders {
			inverted[i] = Order{
				Amount: order.Amount * order.Price,
				Price:  invertPrice(order.Price),
				ID:     order.ID,
			}
		}
		return inverted
	}))
}
