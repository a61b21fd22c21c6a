package topics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwhuang/recall/internal/model"
)

func TestClassifyContent(t *testing.T) {
	tags := ClassifyContent("部署 framework 版本到 website", nil)
	require.NotEmpty(t, tags)
	assert.LessOrEqual(t, len(tags), 5)

	// framework (10) and website (9) both fire.
	names := make(map[string]bool)
	for _, ts := range tags {
		names[ts.Tag] = true
	}
	assert.True(t, names["framework"] || names["theory"])

	for i := 1; i < len(tags); i++ {
		assert.GreaterOrEqual(t, tags[i-1].Score, tags[i].Score)
	}
}

func TestClassifyContentNoMatch(t *testing.T) {
	assert.Empty(t, ClassifyContent("早安", nil))
}

func TestClassifyContentSumsAcrossKeywords(t *testing.T) {
	// "api_endpoint" (Data, 9) and "service_endpoint" (System, 5)
	// both emit the "api" tag; its score accumulates both weights.
	tags := ClassifyContent("api_endpoint via service_endpoint", nil)
	require.NotEmpty(t, tags)
	assert.Equal(t, "api", tags[0].Tag)
	assert.Equal(t, 14, tags[0].Score)
}

func TestMergeUserKeywords(t *testing.T) {
	user := map[string]Layered{
		"MyDomain": {
			Primary: []Entry{{"my_framework", 10, []string{"my_framework"}}},
		},
		"Theory": {
			Primary: []Entry{{"special", 10, []string{"special"}}},
		},
	}
	merged := MergeUserKeywords(DefaultMapping, user)

	tags := ClassifyContent("my_framework notes", merged)
	require.NotEmpty(t, tags)
	assert.Equal(t, "my_framework", tags[0].Tag)

	tags = ClassifyContent("special case", merged)
	require.NotEmpty(t, tags)
	assert.Equal(t, "special", tags[0].Tag)

	// Base mapping is untouched.
	assert.Empty(t, ClassifyContent("my_framework", nil))
}

func TestPriorityFromTags(t *testing.T) {
	assert.Equal(t, model.Normal, PriorityFromTags(nil))
	assert.Equal(t, model.Critical, PriorityFromTags([]TagScore{{"x", 10}}))
	assert.Equal(t, model.Critical, PriorityFromTags([]TagScore{{"x", 9}}))
	assert.Equal(t, model.Important, PriorityFromTags([]TagScore{{"x", 5}}))
	assert.Equal(t, model.Normal, PriorityFromTags([]TagScore{{"x", 3}}))
}
