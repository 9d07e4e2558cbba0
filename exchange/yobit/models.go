package yobit

type infoResponse struct {
	Pairs map[string]struct{} `json:"pairs"`
}

// tickerEntry is one row of the public ticker. Yobit quotes prices as JSON
// numbers.
type tickerEntry struct {
	Buy  float64 `json:"buy"`
	Sell float64 `json:"sell"`
}

type getInfoResponse struct {
	Success int    `json:"success"`
	Error   string `json:"error"`
	Return  struct {
		Funds           map[string]any `json:"funds"`
		FundsInclOrders map[string]any `json:"funds_incl_orders"`
	} `json:"return"`
}

type activeOrdersResponse struct {
	Success int                    `json:"success"`
	Error   string                 `json:"error"`
	Return  map[string]activeOrder `json:"return"`
}

type activeOrder struct {
	Pair   string  `json:"pair"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
	Rate   float64 `json:"rate"`
}
