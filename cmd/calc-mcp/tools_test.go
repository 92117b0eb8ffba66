package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("empty result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, res.IsError
	case *mcp.TextContent:
		return c.Text, res.IsError
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return "", false
}

func decodeState(t *testing.T, text string) stateView {
	t.Helper()
	var v stateView
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("decode %q: %v", text, err)
	}
	return v
}

func TestPressKeysChain(t *testing.T) {
	c := newCalculator()
	text, isErr := call(t, c.handlePressKeys, map[string]any{"keys": "2+3*4="})
	if isErr {
		t.Fatalf("error result: %s", text)
	}
	v := decodeState(t, text)
	if v.Display != "20" || v.Phase != "accumulating" {
		t.Fatalf("state=%+v", v)
	}
	if len(v.History) != 2 || v.History[0] != "5 * 4 = 20" {
		t.Fatalf("history=%q", v.History)
	}
}

func TestPressKeysRejectsBadInput(t *testing.T) {
	c := newCalculator()
	if _, isErr := call(t, c.handlePressKeys, map[string]any{}); !isErr {
		t.Fatalf("missing keys should be an error")
	}
	if _, isErr := call(t, c.handlePressKeys, map[string]any{"keys": "2+{F1}"}); !isErr {
		t.Fatalf("unknown key should be an error")
	}
	v := decodeState(t, mustText(call(t, c.handleState, nil)))
	if v.Display != "0" {
		t.Fatalf("rejected script changed state: %+v", v)
	}
}

func TestDivideByZeroThenClear(t *testing.T) {
	c := newCalculator()
	v := decodeState(t, mustText(call(t, c.handlePressKeys, map[string]any{"keys": "1+1=8/0="})))
	if v.Display != "Error" || v.Phase != "error" {
		t.Fatalf("state=%+v", v)
	}

	v = decodeState(t, mustText(call(t, c.handleClearAll, nil)))
	if v.Display != "0" || v.PendingOperator != "" {
		t.Fatalf("after clear=%+v", v)
	}

	hist, _ := call(t, c.handleHistory, nil)
	if !strings.Contains(hist, "1 + 1 = 2") {
		t.Fatalf("history=%q", hist)
	}
}

func TestHistoryEmpty(t *testing.T) {
	c := newCalculator()
	if text, _ := call(t, c.handleHistory, nil); text != "(no history)" {
		t.Fatalf("history=%q", text)
	}
}

func mustText(text string, _ bool) string { return text }
