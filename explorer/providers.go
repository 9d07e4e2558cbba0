package explorer

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NewBlockchainInfo explores Bitcoin balances via blockchain.info, which
// supports batched addresses joined with "|". Balances come in satoshi.
func NewBlockchainInfo() *Client {
	return NewClient("blockchain.info", Endpoints{
		BaseURL:               "https://blockchain.info",
		SingleAddress:         "balance?active={address}",
		MultiAddress:          "balance?active={multi_address}",
		MultiAddressSeparator: "|",
		DefaultCurrency:       "BTC",
		BalanceDivisor:        1e8,
		ExtractBalance: func(body []byte) (float64, error) {
			var entries map[string]struct {
				FinalBalance float64 `json:"final_balance"`
			}
			if err := json.Unmarshal(body, &entries); err != nil {
				return 0, err
			}
			var total float64
			for _, entry := range entries {
				total += entry.FinalBalance
			}
			return total, nil
		},
	})
}

// NewBlockExplorer explores Bitcoin balances via blockexplorer.com; the
// balance endpoint returns a bare satoshi number.
func NewBlockExplorer() *Client {
	return NewClient("blockexplorer.com", Endpoints{
		BaseURL:         "https://blockexplorer.com/api",
		SingleAddress:   "addr/{address}/balance",
		DefaultCurrency: "BTC",
		BalanceDivisor:  1e8,
	})
}

// NewCashExplorer explores Bitcoin Cash balances via
// cashexplorer.bitcoin.com.
func NewCashExplorer() *Client {
	return NewClient("cashexplorer.bitcoin.com", Endpoints{
		BaseURL:         "https://cashexplorer.bitcoin.com/api",
		SingleAddress:   "addr/{address}/balance",
		DefaultCurrency: "BCH",
		BalanceDivisor:  1e8,
	})
}

// NewChainso explores balances via chain.so, which serves several chains
// (LTC, DOGE, BTC) and names the network in its payload; testnet networks
// report their mainnet currency.
func NewChainso(defaultCurrency string) *Client {
	return NewClient("chain.so", Endpoints{
		BaseURL:         "https://chain.so/api/v2",
		SingleAddress:   "get_address_balance/{currency}/{address}",
		DefaultCurrency: defaultCurrency,
		ExtractBalance: func(body []byte) (float64, error) {
			var response struct {
				Data struct {
					ConfirmedBalance string `json:"confirmed_balance"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &response); err != nil {
				return 0, err
			}
			var balance float64
			if _, err := fmt.Sscanf(response.Data.ConfirmedBalance, "%f", &balance); err != nil {
				return 0, err
			}
			return balance, nil
		},
		ExtractCurrency: func(body []byte) (string, error) {
			var response struct {
				Data struct {
					Network string `json:"network"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &response); err != nil {
				return "", err
			}
			return strings.TrimSuffix(response.Data.Network, "TEST"), nil
		},
	})
}

// NewEthplorer explores Ethereum balances via ethplorer.io. An empty apiKey
// falls back to the public "freekey".
func NewEthplorer(apiKey string) *Client {
	if apiKey == "" {
		apiKey = "freekey"
	}
	return NewClient("ethplorer.io", Endpoints{
		BaseURL:         "https://api.ethplorer.io",
		SingleAddress:   "getAddressInfo/{address}?apiKey={api_key}",
		DefaultCurrency: "ETH",
		APIKey:          apiKey,
		ExtractBalance: func(body []byte) (float64, error) {
			var response struct {
				ETH struct {
					Balance float64 `json:"balance"`
				} `json:"ETH"`
			}
			if err := json.Unmarshal(body, &response); err != nil {
				return 0, err
			}
			return response.ETH.Balance, nil
		},
	})
}

// NewDashExplorer explores Dash balances via explorer.dash.org; the balance
// endpoint returns a bare number already denominated in DASH.
func NewDashExplorer() *Client {
	return NewClient("explorer.dash.org", Endpoints{
		BaseURL:         "https://explorer.dash.org",
		SingleAddress:   "chain/Dash/q/addressbalance/{address}",
		DefaultCurrency: "DASH",
	})
}

// NewGasTracker explores Ethereum Classic balances via gastracker.io.
// Balances come in wei.
func NewGasTracker() *Client {
	return NewClient("gastracker.io", Endpoints{
		BaseURL:         "https://api.gastracker.io",
		SingleAddress:   "v1/addr/{address}",
		DefaultCurrency: "ETC",
		BalanceDivisor:  1e18,
		ExtractBalance: func(body []byte) (float64, error) {
			var response struct {
				Balance struct {
					Wei json.Number `json:"wei"`
				} `json:"balance"`
			}
			if err := json.Unmarshal(body, &response); err != nil {
				return 0, err
			}
			return response.Balance.Wei.Float64()
		},
	})
}
