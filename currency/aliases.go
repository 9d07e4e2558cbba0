package currency

import "strings"

// aliasGroups maps a canonical currency code to every known raw spelling of
// it across the supported providers. Exchanges disagree on tickers (BCC vs
// BCH, RUR vs RUB) and aggregators use display names ("Bitcoin (BTC)").
var aliasGroups = map[string][]string{
	"BCH":  {"BCC", "BCH", "Bitcoin Cash (BCH)"},
	"DASH": {"DASH", "DSH", "Dash (DASH)"},
	"BTC":  {"BTC", "Bitcoin (BTC)"},
	"ETH":  {"ETH", "Ethereum (ETH)"},
	"ZEC":  {"ZEC", "Zcash (ZEC)"},
	"XMR":  {"XMR", "Monero (XMR)"},
	"LTC":  {"LTC", "Litecoin (LTC)"},
	"ETC":  {"ETC", "Ether Classic (ETC)"},
	"NMC":  {"NMC", "Namecoin (NMC)"},
	"PPC":  {"PPC", "Peercoin (PPC)"},
	"XRP":  {"XRP", "Ripple (XRP)"},
	"DOGE": {"DOGE", "Dogecoin (DOGE)"},
	"RUB":  {"RUR", "RUB"},
	"USDT": {"USDT", "Tether (USDT)"},
	"XEM":  {"XEM", "NEM (XEM)"},
	"REP":  {"REP", "Augur (REP)"},
}

// aliases is aliasGroups flattened: raw spelling -> canonical code.
var aliases = func() map[string]string {
	flat := make(map[string]string)
	for canonical, spellings := range aliasGroups {
		for _, spelling := range spellings {
			flat[spelling] = canonical
		}
	}
	return flat
}()

// NormalizedKey returns the canonical code for a raw currency spelling. The
// lookup tries the spelling as-is, then upper-cased, and falls back to the
// upper-cased spelling itself, so normalization is total: an unknown currency
// keeps its identity instead of being dropped.
func NormalizedKey(key string) string {
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	upper := strings.ToUpper(key)
	if canonical, ok := aliases[upper]; ok {
		return canonical
	}
	return upper
}
