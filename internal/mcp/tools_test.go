package mcp

import (
	"context"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleRunScenario_DefaultsTicksWhenOmitted(t *testing.T) {
	t.Parallel()

	result, output, err := handleRunScenario(context.Background(), &mcpsdk.CallToolRequest{}, RunScenarioInput{})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	rows, ok := output.Data.([]TickOutput)
	require.True(t, ok)
	assert.Len(t, rows, defaultTicks)
}

func TestHandleRunScenario_ClampsExcessiveTicks(t *testing.T) {
	t.Parallel()

	_, output, err := handleRunScenario(context.Background(), &mcpsdk.CallToolRequest{}, RunScenarioInput{Ticks: maxTicks + 1})
	require.NoError(t, err)

	rows, ok := output.Data.([]TickOutput)
	require.True(t, ok)
	assert.LessOrEqual(t, len(rows), maxTicks)
}
