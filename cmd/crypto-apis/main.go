package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/bryzgaloff/crypto-apis/config"
	"github.com/bryzgaloff/crypto-apis/currency"
	"github.com/bryzgaloff/crypto-apis/exchange/binance"
	"github.com/bryzgaloff/crypto-apis/exchange/exmo"
	"github.com/bryzgaloff/crypto-apis/exchange/yobit"
	"github.com/bryzgaloff/crypto-apis/explorer"
	"github.com/bryzgaloff/crypto-apis/internal/logging"
	"github.com/bryzgaloff/crypto-apis/market"
)

const valuationTimeout = 60 * time.Second

func main() {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.SetLevel(cfg.Logging.Level)
	logger := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, valuationTimeout)
	defer cancel()
	ctx = logging.WithRequestID(ctx)

	cache, err := newTickerCache(cfg.Cache)
	if err != nil {
		logger.WithField("error", err.Error()).Fatal("Failed to create ticker cache")
	}
	logger.WithField("backend", cfg.Cache.Backend).Info("Ticker cache initialized")

	quote := currency.NormalizedKey(cfg.Portfolio.Quote)

	exchanges := map[string]market.Exchange{}
	if cfg.Exchanges.Binance.Key != "" {
		exchanges["binance"] = binance.NewClient(cfg.Exchanges.Binance.Key, cfg.Exchanges.Binance.Secret)
	}
	if cfg.Exchanges.Exmo.Key != "" {
		exchanges["exmo"] = exmo.NewClient(cfg.Exchanges.Exmo.Key, cfg.Exchanges.Exmo.Secret)
	}
	if cfg.Exchanges.Yobit.Key != "" {
		exchanges["yobit"] = yobit.NewClient(
			cfg.Exchanges.Yobit.Key,
			cfg.Exchanges.Yobit.Secret,
			cache,
			watchedPairs(cfg.Exchanges.Yobit.WatchedPairs)...,
		)
	}
	if len(exchanges) == 0 {
		logger.Fatal("No exchange credentials configured")
	}

	var mu sync.Mutex
	values := make(map[string]currency.Vector, len(exchanges))
	group, groupCtx := errgroup.WithContext(ctx)
	for name, exchange := range exchanges {
		group.Go(func() error {
			value, err := exchangeValue(groupCtx, exchange, quote, cfg.Portfolio.Fee)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			values[name] = value
			mu.Unlock()
			return nil
		})
	}

	onchain, onchainErr := exploredBalances(ctx, cfg.Explorers)

	if err := group.Wait(); err != nil {
		logger.WithField("error", err.Error()).Fatal("Portfolio valuation failed")
	}
	if onchainErr != nil {
		logger.WithField("error", onchainErr.Error()).Warn("On-chain balance exploration failed")
	}

	total := currency.Vector{}
	for name, value := range values {
		fmt.Printf("%-10s %12.8f %s\n", name, value.Sum(), quote)
		total = total.Add(value)
	}
	if len(onchain) > 0 {
		// On-chain holdings are valued through the first exchange's
		// ticker; every exchange quotes against the same currencies.
		name, exchange := anyExchange(exchanges)
		value, err := market.SellCost(exchange, onchain, quote, nil).Resolve(ctx)
		if err != nil {
			logger.WithField("error", err.Error()).Fatal("Failed to value on-chain balances")
		}
		value = value.Scale(1 - cfg.Portfolio.Fee)
		fmt.Printf("%-10s %12.8f %s (priced on %s)\n", "on-chain", value.Sum(), quote, name)
		total = total.Add(value)
	}
	fmt.Printf("%-10s %12.8f %s\n", "total", total.Sum(), quote)
}

// exchangeValue prices the exchange's total balance in the quote currency,
// net of the trading fee.
func exchangeValue(ctx context.Context, exchange market.Exchange, quote string, fee float64) (currency.Vector, error) {
	balances, err := exchange.FetchBalances(ctx)
	if err != nil {
		return nil, err
	}
	value, err := market.SellCost(exchange, balances.Total, quote, nil).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return value.Scale(1 - fee), nil
}

// exploredBalances sums on-chain wallet balances across explorers. Currencies
// without a dedicated explorer are skipped with a warning.
func exploredBalances(ctx context.Context, cfg config.ExplorersConfig) (currency.Vector, error) {
	logger := logging.WithComponent("explorers")

	type lookup struct {
		client    *explorer.Client
		addresses []string
	}
	var lookups []lookup
	for code, addresses := range cfg.Addresses {
		client := explorerFor(currency.NormalizedKey(code), cfg.EthplorerAPIKey)
		if client == nil {
			logger.WithField("currency", code).Warn("No explorer for currency, skipping")
			continue
		}
		lookups = append(lookups, lookup{client: client, addresses: addresses})
	}

	results := make([]currency.Vector, len(lookups))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, l := range lookups {
		group.Go(func() error {
			balance, err := l.client.Balance(groupCtx, l.addresses...)
			if err != nil {
				return err
			}
			results[i] = balance
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	total := currency.Vector{}
	for _, balance := range results {
		total = total.Add(balance)
	}
	return total, nil
}

func explorerFor(code, ethplorerKey string) *explorer.Client {
	switch code {
	case "BTC":
		return explorer.NewBlockchainInfo()
	case "BCH":
		return explorer.NewCashExplorer()
	case "ETH":
		return explorer.NewEthplorer(ethplorerKey)
	case "DASH":
		return explorer.NewDashExplorer()
	case "ETC":
		return explorer.NewGasTracker()
	case "LTC", "DOGE":
		return explorer.NewChainso(code)
	default:
		return nil
	}
}

func newTickerCache(cfg config.CacheConfig) (market.TickerCache, error) {
	switch cfg.Backend {
	case "memory":
		return market.NewMemoryTickerCache(cfg.TTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return market.NewRedisTickerCache(client, "ticker:yobit", cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

func watchedPairs(pairs []string) []yobit.Pair {
	parsed := make([]yobit.Pair, 0, len(pairs))
	for _, pair := range pairs {
		base, quote, ok := strings.Cut(pair, "/")
		if !ok {
			continue
		}
		parsed = append(parsed, yobit.Pair{base, quote})
	}
	return parsed
}

func anyExchange(exchanges map[string]market.Exchange) (string, market.Exchange) {
	for name, exchange := range exchanges {
		return name, exchange
	}
	return "", nil
}
