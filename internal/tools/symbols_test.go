package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/finsight/internal/log"
)

func TestSymbolMapperStock(t *testing.T) {
	m, err := NewSymbolMapper(log.NewNop())
	require.NoError(t, err)

	cases := map[string]string{
		"AAPL":        "AAPL",
		"aapl":        "AAPL",
		"Apple":       "AAPL",
		"GOOGLE":      "GOOGL",
		"Nvidia":      "NVDA",
		"Facebook":    "META",
		"Tesla Inc.":  "TSLA",
		"Boeing Co":   "BA",
		"UNKNOWNCO":   "UNKNOWNCO",
		" msft ":      "MSFT",
		"Visa Corp.":  "V",
		"Intel Corp":  "INTC",
	}
	for in, want := range cases {
		assert.Equal(t, want, m.Stock(in), "input %q", in)
	}
}

func TestSymbolMapperCrypto(t *testing.T) {
	m, err := NewSymbolMapper(log.NewNop())
	require.NoError(t, err)

	cases := map[string]string{
		"BTC":      "BTCUSDT",
		"bitcoin":  "BTCUSDT",
		"Ethereum": "ETHUSDT",
		"SOLUSDT":  "SOLUSDT",
		"NEWCOIN":  "NEWCOINUSDT",
	}
	for in, want := range cases {
		assert.Equal(t, want, m.Crypto(in), "input %q", in)
	}
}

func TestSymbolMapperRefresh(t *testing.T) {
	t.Run("remote mapping replaces the embedded one", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"overrides":{"ACME":"ACM"},"suffixes":[],"crypto":{"FOO":"FOOUSDT"}}`))
		}))
		defer srv.Close()

		m, err := NewSymbolMapper(log.NewNop())
		require.NoError(t, err)
		require.NoError(t, m.Refresh(context.Background(), srv.URL))

		assert.Equal(t, "ACM", m.Stock("acme"))
		// Embedded overrides are gone after a refresh.
		assert.Equal(t, "GOOGLE", m.Stock("GOOGLE"))
	})

	t.Run("failed refresh keeps the embedded mapping", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer srv.Close()

		m, err := NewSymbolMapper(log.NewNop())
		require.NoError(t, err)
		assert.Error(t, m.Refresh(context.Background(), srv.URL))
		assert.Equal(t, "GOOGL", m.Stock("GOOGLE"))
	})

	t.Run("empty remote mapping is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		m, err := NewSymbolMapper(log.NewNop())
		require.NoError(t, err)
		assert.Error(t, m.Refresh(context.Background(), srv.URL))
	})
}
