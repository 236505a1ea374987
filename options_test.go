package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptions(t *testing.T) {
	tools := []Tool{{Name: "lookup"}}

	o := ApplyOptions(
		WithModel("claude-sonnet-4-5"),
		WithMaxTokens(1024),
		WithTemperature(0.2),
		WithSystem("be brief"),
		WithTools(tools...),
		WithToolChoice(ToolChoiceRequired),
	)

	assert.Equal(t, "claude-sonnet-4-5", o.Model)
	assert.Equal(t, 1024, o.MaxTokens)
	require.NotNil(t, o.Temperature)
	assert.Equal(t, 0.2, *o.Temperature)
	assert.Equal(t, "be brief", o.System)
	assert.Len(t, o.Tools, 1)
	assert.Equal(t, ToolChoiceRequired, o.ToolChoice)
}

func TestApplyOptionsDefaults(t *testing.T) {
	o := ApplyOptions()
	assert.Empty(t, o.Model)
	assert.Nil(t, o.Temperature)
	assert.Empty(t, o.Tools)
	assert.Equal(t, ToolChoice(""), o.ToolChoice)
}
