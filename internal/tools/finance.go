package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/davitran/finsight/internal/log"
)

// Default upstream endpoints. Overridable through FinanceOptions so tests
// can point at local servers.
const (
	defaultStooqBaseURL   = "https://stooq.com"
	defaultBinanceBaseURL = "https://api.binance.com"

	quoteCacheTTL = 60 * time.Second
	fetchAttempts = 3
)

// FinanceOptions configures the market data toolset.
type FinanceOptions struct {
	StooqBaseURL   string
	BinanceBaseURL string
	HTTPTimeout    time.Duration
}

// FinanceToolset provides stock and crypto quote tools. Quotes are cached
// for a short TTL so repeated calls within one agent turn hit upstream once.
type FinanceToolset struct {
	opts    FinanceOptions
	symbols *SymbolMapper
	client  *http.Client
	cache   *gocache.Cache
	logger  log.Logger
}

// NewFinanceToolset creates the market data toolset.
func NewFinanceToolset(opts FinanceOptions, symbols *SymbolMapper, logger log.Logger) (*FinanceToolset, error) {
	if symbols == nil {
		return nil, fmt.Errorf("symbol mapper is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.StooqBaseURL == "" {
		opts.StooqBaseURL = defaultStooqBaseURL
	}
	if opts.BinanceBaseURL == "" {
		opts.BinanceBaseURL = defaultBinanceBaseURL
	}

	return &FinanceToolset{
		opts:    opts,
		symbols: symbols,
		client:  newHTTPClient(opts.HTTPTimeout),
		cache:   gocache.New(quoteCacheTTL, 5*time.Minute),
		logger:  logger,
	}, nil
}

// StockPriceInput is the argument object for the stock quote tool.
type StockPriceInput struct {
	Symbol string `json:"symbol" jsonschema:"the stock ticker or company name, e.g. AAPL or Apple"`
}

// CryptoPriceInput is the argument object for the crypto quote tool.
type CryptoPriceInput struct {
	Symbol string `json:"symbol" jsonschema:"the coin ticker or name, e.g. BTC or Bitcoin"`
}

// Tools returns the market data tools.
func (f *FinanceToolset) Tools() ([]Tool, error) {
	stock, err := NewTool(
		"get_stock_price",
		"Get the latest stock price for a ticker or company name. US equities only.",
		func(ctx context.Context, input StockPriceInput) (string, error) {
			return f.stockPrice(ctx, input.Symbol), nil
		},
	)
	if err != nil {
		return nil, err
	}

	crypto, err := NewTool(
		"get_crypto_price",
		"Get the latest cryptocurrency price in USDT for a coin ticker or name.",
		func(ctx context.Context, input CryptoPriceInput) (string, error) {
			return f.cryptoPrice(ctx, input.Symbol), nil
		},
	)
	if err != nil {
		return nil, err
	}

	return []Tool{stock, crypto}, nil
}

func (f *FinanceToolset) stockPrice(ctx context.Context, raw string) string {
	symbol := f.symbols.Stock(raw)
	if symbol == "" {
		return "Error: empty stock symbol"
	}

	cacheKey := "stock:" + symbol
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.(string)
	}

	quoteURL := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv",
		f.opts.StooqBaseURL, url.QueryEscape(strings.ToLower(symbol)+".us"))

	body, err := f.fetch(ctx, quoteURL)
	if err != nil {
		f.logger.Error("stock quote fetch failed", "symbol", symbol, "error", err)
		return fmt.Sprintf("Error: could not fetch stock price for %s: %v", symbol, err)
	}

	result, err := parseStooqCSV(symbol, body)
	if err != nil {
		f.logger.Warn("stock quote parse failed", "symbol", symbol, "error", err)
		return fmt.Sprintf("Error: no price data for %s", symbol)
	}

	f.cache.Set(cacheKey, result, gocache.DefaultExpiration)
	return result
}

// parseStooqCSV extracts the close price from a single-quote CSV response.
// The header row is Symbol,Date,Time,Open,High,Low,Close,Volume; unknown
// symbols come back with N/D fields.
func parseStooqCSV(symbol string, body []byte) (string, error) {
	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	if err != nil {
		return "", fmt.Errorf("parsing quote CSV: %w", err)
	}
	if len(records) < 2 || len(records[1]) < 7 {
		return "", fmt.Errorf("quote CSV has no data row")
	}

	row := records[1]
	date, closePrice := row[1], row[6]
	if closePrice == "N/D" || closePrice == "" {
		return "", fmt.Errorf("no data for symbol")
	}
	return fmt.Sprintf("The latest price for %s is $%s (close of %s).", symbol, closePrice, date), nil
}

func (f *FinanceToolset) cryptoPrice(ctx context.Context, raw string) string {
	pair := f.symbols.Crypto(raw)
	if pair == "USDT" {
		return "Error: empty crypto symbol"
	}

	cacheKey := "crypto:" + pair
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.(string)
	}

	tickerURL := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", f.opts.BinanceBaseURL, url.QueryEscape(pair))

	body, err := f.fetch(ctx, tickerURL)
	if err != nil {
		f.logger.Error("crypto quote fetch failed", "pair", pair, "error", err)
		return fmt.Sprintf("Error: could not fetch crypto price for %s: %v", pair, err)
	}

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &ticker); err != nil || ticker.Price == "" {
		f.logger.Warn("crypto quote parse failed", "pair", pair, "error", err)
		return fmt.Sprintf("Error: no price data for %s", pair)
	}

	result := fmt.Sprintf("The current price of %s is %s USDT.", strings.TrimSuffix(ticker.Symbol, "USDT"), ticker.Price)
	f.cache.Set(cacheKey, result, gocache.DefaultExpiration)
	return result
}

// fetch issues a GET with bounded retries. 4xx responses are terminal; 5xx
// and transport errors are retried.
func (f *FinanceToolset) fetch(ctx context.Context, fetchURL string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := f.client.Do(req)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.Unrecoverable(fmt.Errorf("upstream returned %d", resp.StatusCode))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("upstream returned %d", resp.StatusCode)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			return err
		},
		retry.Attempts(fetchAttempts),
		retry.Delay(200*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	return body, err
}
