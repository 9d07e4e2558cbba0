package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrders(t *testing.T) {
	t.Run("keys normalized", func(t *testing.T) {
		got, err := NewOrders(map[string]map[string][]Order{
			"btc": {"usdt": {{Amount: 1, Price: 9000, ID: "1"}}},
		})
		require.NoError(t, err)
		assert.Equal(t, Orders{
			"BTC": {"USDT": {{Amount: 1, Price: 9000, ID: "1"}}},
		}, got)
	})

	t.Run("colliding spellings concatenate orders", func(t *testing.T) {
		got, err := NewOrders(map[string]map[string][]Order{
			"btc":           {"usdt": {{Amount: 1, Price: 9000, ID: "1"}}},
			"Bitcoin (BTC)": {"USDT": {{Amount: 2, Price: 9100, ID: "2"}}},
		})
		require.NoError(t, err)
		require.Len(t, got["BTC"]["USDT"], 2)
		ids := []string{got["BTC"]["USDT"][0].ID, got["BTC"]["USDT"][1].ID}
		assert.ElementsMatch(t, []string{"1", "2"}, ids)
	})
}

func TestOrders_Inverted(t *testing.T) {
	orders := Orders{
		"BTC": {"USDT": {{Amount: 2, Price: 9000, ID: "42"}}},
	}

	inverted := orders.Inverted()

	require.Len(t, inverted["USDT"]["BTC"], 1)
	got := inverted["USDT"]["BTC"][0]
	assert.Equal(t, 18000.0, got.Amount)
	assert.InDelta(t, 1.0/9000, got.Price, 1e-12)
	assert.Equal(t, "42", got.ID)
}

func TestOrders_Inverted_ZeroPrice(t *testing.T) {
	orders := Orders{
		"BTC": {"USDT": {{Amount: 2, Price: 0, ID: "42"}}},
	}

	inverted := orders.Inverted()

	got := inverted["USDT"]["BTC"][0]
	assert.Equal(t, 0.0, got.Amount)
	assert.Equal(t, 0.0, got.Price)
}

func TestOrders_Inverted_RoundTripID(t *testing.T) {
	orders := Orders{
		"BTC": {"USDT": {{Amount: 2, Price: 9000, ID: "42"}}},
		"ETH": {"BTC": {{Amount: 5, Price: 0.03, ID: "43"}}},
	}

	twice := orders.Inverted().Inverted()

	assert.Equal(t, "42", twice["BTC"]["USDT"][0].ID)
	assert.Equal(t, "43", twice["ETH"]["BTC"][0].ID)
	assert.InDelta(t, 2, twice["BTC"]["USDT"][0].Amount, 1e-9)
	assert.InDelta(t, 9000, twice["BTC"]["USDT"][0].Price, 1e-9)
}
