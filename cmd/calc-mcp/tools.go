package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sparkcalc/sparkos/calc"
)

// calculator is one engine shared by every MCP session.
type calculator struct {
	mu     sync.Mutex
	engine *calc.Engine
}

func newCalculator() *calculator {
	return &calculator{engine: calc.NewEngine()}
}

type stateView struct {
	Display         string   `json:"display"`
	PreviousLine    string   `json:"previous_line"`
	PendingOperand  string   `json:"pending_operand,omitempty"`
	PendingOperator string   `json:"pending_operator,omitempty"`
	Phase           string   `json:"phase"`
	History         []string `json:"history"`
}

func (c *calculator) view() stateView {
	s := c.engine.State()
	return stateView{
		Display:         s.Display,
		PreviousLine:    s.PreviousLine(),
		PendingOperand:  s.PendingOperand,
		PendingOperator: s.PendingOperator.String(),
		Phase:           s.Phase().String(),
		History:         c.engine.History(),
	}
}

func (c *calculator) press(script string) (stateView, error) {
	toks, err := calc.ParseKeys(script)
	if err != nil {
		return stateView{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.PressAll(toks)
	return c.view(), nil
}

func (c *calculator) snapshot() stateView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

func (c *calculator) clearAll() stateView {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.ClearAll()
	return c.view()
}

func jsonResult(v stateView) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error encoding state: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

// addPressKeysTool adds the press_keys tool to the MCP server
func addPressKeysTool(s *server.MCPServer, c *calculator) {
	tool := mcp.NewTool("press_keys",
		mcp.WithDescription("Press a key script on the calculator, e.g. '12+7=' or '9/0{Esc}'"),
		mcp.WithString("keys",
			mcp.Required(),
			mcp.Description("Digits, '.', '+', '-', '*', '/', '=' and named keys {Enter}, {Esc}, {Backspace}"),
		),
	)
	s.AddTool(tool, c.handlePressKeys)
}

func (c *calculator) handlePressKeys(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys, ok := request.GetArguments()["keys"].(string)
	if !ok || strings.TrimSpace(keys) == "" {
		return mcp.NewToolResultError("keys is required"), nil
	}
	v, err := c.press(keys)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error parsing keys: %v", err)), nil
	}
	return jsonResult(v)
}

// addStateTool adds the calculator_state tool to the MCP server
func addStateTool(s *server.MCPServer, c *calculator) {
	tool := mcp.NewTool("calculator_state",
		mcp.WithDescription("Show the display, the pending operation and the input phase"),
	)
	s.AddTool(tool, c.handleState)
}

func (c *calculator) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(c.snapshot())
}

// addHistoryTool adds the calculator_history tool to the MCP server
func addHistoryTool(s *server.MCPServer, c *calculator) {
	tool := mcp.NewTool("calculator_history",
		mcp.WithDescription(fmt.Sprintf("List the last %d completed operations, newest first", calc.HistoryLimit)),
	)
	s.AddTool(tool, c.handleHistory)
}

func (c *calculator) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lines := c.snapshot().History
	if len(lines) == 0 {
		return mcp.NewToolResultText("(no history)"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

// addClearAllTool adds the clear_all tool to the MCP server
func addClearAllTool(s *server.MCPServer, c *calculator) {
	tool := mcp.NewTool("clear_all",
		mcp.WithDescription("Reset the display and pending operation; history is kept"),
	)
	s.AddTool(tool, c.handleClearAll)
}

func (c *calculator) handleClearAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(c.clearAll())
}
