package tools

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/davitran/finsight/internal/log"
)

//go:embed mapping_data.json
var embeddedMapping []byte

// mappingData is the on-disk shape of the symbol mapping file.
type mappingData struct {
	Overrides map[string]string `json:"overrides"`
	Suffixes  []string          `json:"suffixes"`
	Crypto    map[string]string `json:"crypto"`
}

// SymbolMapper normalizes user-supplied names into exchange tickers. The
// embedded mapping ships with the binary; Refresh can overwrite it from a
// remote copy without redeploying.
type SymbolMapper struct {
	mu     sync.RWMutex
	data   mappingData
	client *http.Client
	logger log.Logger
}

// NewSymbolMapper loads the embedded mapping.
func NewSymbolMapper(logger log.Logger) (*SymbolMapper, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	var data mappingData
	if err := json.Unmarshal(embeddedMapping, &data); err != nil {
		return nil, fmt.Errorf("parsing embedded symbol mapping: %w", err)
	}

	return &SymbolMapper{
		data:   data,
		client: newHTTPClient(0),
		logger: logger,
	}, nil
}

// Stock maps a company name or ticker to its exchange symbol. Unknown names
// pass through uppercased with corporate suffixes stripped.
func (m *SymbolMapper) Stock(name string) string {
	key := strings.ToUpper(strings.TrimSpace(name))

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, suffix := range m.data.Suffixes {
		key = strings.TrimSuffix(key, suffix)
	}
	key = strings.TrimSpace(key)

	if symbol, ok := m.data.Overrides[key]; ok {
		return symbol
	}
	return key
}

// Crypto maps a coin name or ticker to its USDT trading pair. Unknown names
// become <NAME>USDT.
func (m *SymbolMapper) Crypto(name string) string {
	key := strings.ToUpper(strings.TrimSpace(name))

	m.mu.RLock()
	defer m.mu.RUnlock()

	if pair, ok := m.data.Crypto[key]; ok {
		return pair
	}
	if strings.HasSuffix(key, "USDT") {
		return key
	}
	return key + "USDT"
}

// Refresh replaces the mapping with one fetched from url. The embedded
// mapping stays in place on any failure.
func (m *SymbolMapper) Refresh(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating mapping request: %w", err)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching symbol mapping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("symbol mapping fetch returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading symbol mapping: %w", err)
	}

	var data mappingData
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("parsing symbol mapping: %w", err)
	}
	if len(data.Overrides) == 0 && len(data.Crypto) == 0 {
		return fmt.Errorf("symbol mapping is empty")
	}

	m.mu.Lock()
	m.data = data
	m.mu.Unlock()

	m.logger.Info("symbol mapping refreshed", "url", url,
		"overrides", len(data.Overrides), "crypto", len(data.Crypto))
	return nil
}
