package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davitran/finsight/internal/log"
)

func TestURLValidator(t *testing.T) {
	v := NewURLValidator()

	t.Run("public urls pass", func(t *testing.T) {
		for _, u := range []string{
			"https://example.com/article",
			"http://stooq.com/q/l/?s=aapl.us",
			"https://8.8.8.8/path",
		} {
			assert.NoError(t, v.Validate(u), u)
		}
	})

	t.Run("private and dangerous targets are blocked", func(t *testing.T) {
		for _, u := range []string{
			"http://localhost/admin",
			"http://127.0.0.1:8080/",
			"http://10.1.2.3/internal",
			"http://172.16.0.1/",
			"http://192.168.1.1/router",
			"http://169.254.169.254/latest/meta-data/",
			"http://metadata.google.internal/computeMetadata/v1/",
			"http://0.0.0.0/",
			"http://[::1]/",
			"http://[::ffff:127.0.0.1]/",
			"ftp://example.com/file",
			"file:///etc/passwd",
		} {
			assert.Error(t, v.Validate(u), u)
		}
	})
}

func TestWebToolsetBlocksPrivateTargets(t *testing.T) {
	w := NewWebToolset(WebOptions{}, nil, log.NewNop())

	out := w.crawl(context.Background(), "http://169.254.169.254/latest/meta-data/")
	assert.Contains(t, out, "Error crawling")
	assert.NotContains(t, out, "[Source:")

	out = w.scrape(context.Background(), "http://127.0.0.1:9/", "")
	assert.Contains(t, out, "Error: unsafe URL")
}
