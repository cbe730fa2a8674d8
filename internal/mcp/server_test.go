package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/dileep-u-k/hn-gateway/internal/tools"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoTool returns its raw arguments, or fails when asked to.
type echoTool struct{}

func (echoTool) Definition() tools.Tool {
	return tools.NewFunctionTool("echo", "Echo arguments", tools.JSONSchema{Type: "object"})
}

func (echoTool) Execute(ctx context.Context, arguments string) (any, error) {
	if strings.Contains(arguments, "fail") {
		return nil, assert.AnError
	}
	return json.RawMessage(arguments), nil
}

func newTestServer() *Server {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tm := tools.NewToolManager(nil, logger)
	tm.Register(echoTool{})
	return NewServer("Hacker News MCP Server", "1.2.3", tm, logger)
}

func roundTrip(t *testing.T, s *Server, msg string) map[string]any {
	t.Helper()
	resp := s.HandleMessage(context.Background(), []byte(msg))
	require.NotNil(t, resp)
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestInitialize(t *testing.T) {
	out := roundTrip(t, newTestServer(), `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	assert.Equal(t, float64(1), out["id"])
	result := out["result"].(map[string]any)
	assert.Equal(t, ProtocolVersion, result["protocolVersion"])
	assert.Equal(t, map[string]any{"tools": map[string]any{}}, result["capabilities"])
	assert.Equal(t, map[string]any{"name": "Hacker News MCP Server", "version": "1.2.3"}, result["serverInfo"])
}

func TestNotificationGetsNoResponse(t *testing.T) {
	resp := newTestServer().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.Nil(t, resp)
}

func TestToolsList(t *testing.T) {
	out := roundTrip(t, newTestServer(), `{"jsonrpc":"2.0","id":"a","method":"tools/list"}`)

	assert.Equal(t, "a", out["id"])
	list := out["result"].(map[string]any)["tools"].([]any)
	require.Len(t, list, 1)
	tool := list[0].(map[string]any)
	assert.Equal(t, "echo", tool["name"])
	assert.Equal(t, map[string]any{"type": "object"}, tool["inputSchema"])
}

func TestToolsCall(t *testing.T) {
	out := roundTrip(t, newTestServer(), `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"x":1}}}`)

	result := out["result"].(map[string]any)
	content := result["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "text", content["type"])
	assert.JSONEq(t, `{"x":1}`, content["text"].(string))
	assert.NotContains(t, result, "isError")
}

func TestToolsCall_ToolFailureIsError(t *testing.T) {
	out := roundTrip(t, newTestServer(), `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"fail":true}}}`)

	result := out["result"].(map[string]any)
	assert.Equal(t, true, result["isError"])
	text := result["content"].([]any)[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, `"error"`)
	assert.Nil(t, out["error"])
}

func TestToolsCall_UnknownTool(t *testing.T) {
	out := roundTrip(t, newTestServer(), `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"nope"}}`)

	rpcErr := out["error"].(map[string]any)
	assert.Equal(t, float64(CodeMethodNotFound), rpcErr["code"])
	assert.Equal(t, "Tool 'nope' not found", rpcErr["message"])
}

func TestToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	for _, msg := range []string{
		`{"jsonrpc":"2.0","id":5,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"arguments":{}}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call","params":[1,2]}`,
	} {
		out := roundTrip(t, s, msg)
		rpcErr := out["error"].(map[string]any)
		assert.Equal(t, float64(CodeInvalidParams), rpcErr["code"], msg)
	}
}

func TestUnknownMethodAndParseError(t *testing.T) {
	s := newTestServer()

	out := roundTrip(t, s, `{"jsonrpc":"2.0","id":6,"method":"resources/list"}`)
	assert.Equal(t, float64(CodeMethodNotFound), out["error"].(map[string]any)["code"])

	out = roundTrip(t, s, `{not json`)
	assert.Equal(t, float64(CodeParseError), out["error"].(map[string]any)["code"])
	assert.Nil(t, out["id"])

	out = roundTrip(t, s, `{"jsonrpc":"2.0","id":7}`)
	assert.Equal(t, float64(CodeInvalidRequest), out["error"].(map[string]any)["code"])
}

func TestServeStdio(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"echo","arguments":{"q":"hn"}}}`,
	}, "\n"))
	var out bytes.Buffer

	err := newTestServer().ServeStdio(context.Background(), in, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var ids []float64
	for _, line := range lines {
		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		assert.Equal(t, "2.0", resp["jsonrpc"])
		ids = append(ids, resp["id"].(float64))
	}
	sort.Float64s(ids)
	assert.Equal(t, []float64{1, 2, 3}, ids)
}

func TestServeStdio_OversizedMessageKeepsServing(t *testing.T) {
	huge := `{"jsonrpc":"2.0","id":9,"method":"ping","params":{"pad":"` + strings.Repeat("x", maxMessageSize) + `"}}`
	// Larger than the reader's buffer but within the limit.
	large := `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"pad":"` + strings.Repeat("y", 200*1024) + `"}}}`
	in := strings.NewReader(huge + "\n" + `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n" + large)
	var out bytes.Buffer

	err := newTestServer().ServeStdio(context.Background(), in, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	byID := map[string]map[string]any{}
	for _, line := range lines {
		var resp map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		byID[fmt.Sprint(resp["id"])] = resp
	}

	parseErr := byID["<nil>"]
	require.NotNil(t, parseErr)
	assert.Equal(t, float64(CodeParseError), parseErr["error"].(map[string]any)["code"])

	assert.Contains(t, byID, "1")
	require.Contains(t, byID, "2")
	result := byID["2"]["result"].(map[string]any)
	assert.NotContains(t, result, "isError")
}
