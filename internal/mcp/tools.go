package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mikesurface/timely-dataflow/internal/demo"
)

// ToolNameRunScenario is the run_scenario tool's registered name.
const ToolNameRunScenario = "run_scenario"

// defaultTicks is used when the caller omits ticks or passes a non-positive
// value.
const defaultTicks = 8

// maxTicks bounds how long a single tool call may drive the scenario for.
const maxTicks = 10_000

// RunScenarioInput is the input schema for the run_scenario tool.
type RunScenarioInput struct {
	Ticks int `json:"ticks,omitempty" jsonschema:"number of PullInternalProgress ticks to drive (default 8, max 10000)"`
}

// TickOutput is one row of run_scenario's structured output.
type TickOutput struct {
	Tick     int  `json:"tick"`
	Consumed int  `json:"consumed"`
	Produced int  `json:"produced"`
	Internal int  `json:"internal"`
	Active   bool `json:"active"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

// handleRunScenario processes run_scenario tool calls.
func handleRunScenario(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input RunScenarioInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	ticks := input.Ticks
	if ticks <= 0 {
		ticks = defaultTicks
	}

	if ticks > maxTicks {
		ticks = maxTicks
	}

	results := demo.Run(ticks)

	output := make([]TickOutput, len(results))
	for i, r := range results {
		output[i] = TickOutput{Tick: r.Tick, Consumed: r.Consumed, Produced: r.Produced, Internal: r.Internal, Active: r.Active}
	}

	return jsonResult(output)
}
