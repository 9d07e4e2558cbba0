package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockchainInfo_ExtractBalance(t *testing.T) {
	endpoints := NewBlockchainInfo().endpoints

	t.Run("sums addresses", func(t *testing.T) {
		body := []byte(`{
			"1abc": {"final_balance": 100000000},
			"1def": {"final_balance": 50000000}
		}`)
		balance, err := endpoints.ExtractBalance(body)
		require.NoError(t, err)
		assert.Equal(t, 150000000.0, balance)
	})

	t.Run("satoshi divisor", func(t *testing.T) {
		assert.Equal(t, 1e8, endpoints.BalanceDivisor)
		assert.Equal(t, "|", endpoints.MultiAddressSeparator)
	})
}

func TestChainso_Extractors(t *testing.T) {
	endpoints := NewChainso("LTC").endpoints
	body := []byte(`{"data": {"network": "LTCTEST", "confirmed_balance": "2.53"}}`)

	balance, err := endpoints.ExtractBalance(body)
	require.NoError(t, err)
	assert.Equal(t, 2.53, balance)

	code, err := endpoints.ExtractCurrency(body)
	require.NoError(t, err)
	// testnet suffix stripped
	assert.Equal(t, "LTC", code)
}

func TestChainso_MainnetCurrency(t *testing.T) {
	endpoints := NewChainso("DOGE").endpoints
	code, err := endpoints.ExtractCurrency([]byte(`{"data": {"network": "DOGE"}}`))
	require.NoError(t, err)
	assert.Equal(t, "DOGE", code)
}

func TestEthplorer_ExtractBalance(t *testing.T) {
	endpoints := NewEthplorer("").endpoints

	assert.Equal(t, "freekey", endpoints.APIKey)

	balance, err := endpoints.ExtractBalance([]byte(`{"ETH": {"balance": 4.2}}`))
	require.NoError(t, err)
	assert.Equal(t, 4.2, balance)
}

func TestGasTracker_ExtractBalance(t *testing.T) {
	endpoints := NewGasTracker().endpoints

	balance, err := endpoints.ExtractBalance([]byte(`{"balance": {"wei": 2500000000000000000}}`))
	require.NoError(t, err)
	assert.Equal(t, 2.5e18, balance)
	assert.Equal(t, 1e18, endpoints.BalanceDivisor)
}

func TestDashExplorer_PlainNumberBody(t *testing.T) {
	endpoints := NewDashExplorer().endpoints

	// no extractor configured: the whole body is one number
	assert.Nil(t, endpoints.ExtractBalance)
	assert.Equal(t, "DASH", endpoints.DefaultCurrency)
	assert.Equal(t, 0.0, endpoints.BalanceDivisor)
}
