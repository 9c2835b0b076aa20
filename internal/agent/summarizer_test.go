package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davitran/finsight/internal/llm"
	"github.com/davitran/finsight/internal/log"
)

func TestSummarizer(t *testing.T) {
	long := strings.Repeat("Inflation data surprised to the upside this month. ", 40)

	t.Run("short text passes through without a model call", func(t *testing.T) {
		stub := llm.NewStub()
		s, err := NewSummarizer(stub, log.NewNop())
		require.NoError(t, err)

		out, err := s.Summarize(context.Background(), "short note")
		require.NoError(t, err)
		assert.Equal(t, "short note", out)
		assert.Equal(t, 0, stub.CallCount())
	})

	t.Run("long text is condensed by the model", func(t *testing.T) {
		stub := llm.NewStub("- inflation up\n- rates likely higher")
		s, err := NewSummarizer(stub, log.NewNop())
		require.NoError(t, err)

		out, err := s.Summarize(context.Background(), long)
		require.NoError(t, err)
		assert.Equal(t, "- inflation up\n- rates likely higher", out)
		assert.Equal(t, 1, stub.CallCount())
	})

	t.Run("oversized input is trimmed before the model sees it", func(t *testing.T) {
		huge := strings.Repeat("x", summarizeInputLimit+5000)
		stub := llm.NewStub("summary")
		s, err := NewSummarizer(stub, log.NewNop())
		require.NoError(t, err)

		_, err = s.Summarize(context.Background(), huge)
		require.NoError(t, err)

		calls := stub.Calls()
		require.Len(t, calls, 1)
		assert.LessOrEqual(t, len(calls[0][0].Content), summarizeInputLimit+200)
	})

	t.Run("fallback truncates and marks failure", func(t *testing.T) {
		stub := llm.NewStub()
		stub.CompleteErr = errors.New("backend down")
		s, err := NewSummarizer(stub, log.NewNop())
		require.NoError(t, err)

		out := s.SummarizeOrFallback(context.Background(), long)
		assert.True(t, strings.HasSuffix(out, summarizeFailedMarker))
		assert.LessOrEqual(t, len([]rune(out)), summarizeThreshold+len(summarizeFailedMarker)+1)
	})

	t.Run("fallback passes short text through", func(t *testing.T) {
		stub := llm.NewStub()
		stub.CompleteErr = errors.New("backend down")
		s, err := NewSummarizer(stub, log.NewNop())
		require.NoError(t, err)

		assert.Equal(t, "tiny", s.SummarizeOrFallback(context.Background(), "tiny"))
	})
}
