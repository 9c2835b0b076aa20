package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePlanTopics(t *testing.T) {
	t.Run("two topics", func(t *testing.T) {
		topics := parsePlanTopics("NEED_SEARCH: NVDA stock price; recent AI chip news")
		assert.Equal(t, []string{"NVDA stock price", "recent AI chip news"}, topics)
	})

	t.Run("one line per topic accumulates", func(t *testing.T) {
		topics := parsePlanTopics("NEED_SEARCH: Apple stock news analysis\nNEED_SEARCH: Tesla stock news analysis")
		assert.Equal(t, []string{"Apple stock news analysis", "Tesla stock news analysis"}, topics)
	})

	t.Run("single topic", func(t *testing.T) {
		assert.Equal(t, []string{"bitcoin price"}, parsePlanTopics("NEED_SEARCH: bitcoin price"))
	})

	t.Run("no search", func(t *testing.T) {
		assert.Nil(t, parsePlanTopics("NO_SEARCH"))
	})

	t.Run("marker buried in other lines", func(t *testing.T) {
		topics := parsePlanTopics("Let me think.\n- NEED_SEARCH: fed rates\nDone.")
		assert.Equal(t, []string{"fed rates"}, topics)
	})

	t.Run("free-form prose yields nothing", func(t *testing.T) {
		assert.Nil(t, parsePlanTopics("I think we should search the web for this."))
	})

	t.Run("empty topics dropped", func(t *testing.T) {
		assert.Equal(t, []string{"a"}, parsePlanTopics("NEED_SEARCH: a; ; "))
	})
}
