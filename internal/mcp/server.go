// Package mcp implements a Model Context Protocol server exposing the
// assistant to external AI agents.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wiredbrain/axiom/internal/domain"
	"github.com/wiredbrain/axiom/internal/knowledge"
	"github.com/wiredbrain/axiom/internal/port"
	"github.com/wiredbrain/axiom/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
// It exposes tools for external AI agents to talk to the assistant.
type Server struct {
	dispatcher *service.DispatchService
	retriever  port.Retriever
	base       *knowledge.Base
	port       string
}

// NewServer creates a new MCP server.
func NewServer(dispatcher *service.DispatchService, retriever port.Retriever, base *knowledge.Base, port string) *Server {
	return &Server{
		dispatcher: dispatcher,
		retriever:  retriever,
		base:       base,
		port:       port,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)

	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "axiom-assistant",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	w.(http.Flusher).Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "ask_assistant",
			Description: "Ask the lab voice assistant a question and get the routed, corrected answer",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"text": {"type": "string", "description": "Question text"},
					"session_id": {"type": "string", "description": "Conversation session to continue; omit for a shared agent session"}
				},
				"required": ["text"]
			}`),
		},
		{
			Name:        "search_knowledge",
			Description: "Search the lab knowledge corpora by semantic similarity",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query"},
					"intent": {"type": "string", "description": "Optional intent hint narrowing the corpora"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "knowledge_stats",
			Description: "Per-category item counts of the loaded knowledge corpora",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
		{
			Name:        "list_strategies",
			Description: "List the registered response strategies",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "ask_assistant":
		var args struct {
			Text      string `json:"text"`
			SessionID string `json:"session_id"`
		}
		json.Unmarshal(req.Arguments, &args)
		if args.SessionID == "" {
			args.SessionID = "mcp-agent"
		}

		reply, err := s.dispatcher.Converse(ctx, args.SessionID, args.Text)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": reply.Text},
			},
			"route":      reply.Route,
			"intent":     reply.Intent,
			"confidence": reply.Confidence,
		}, nil

	case "search_knowledge":
		var args struct {
			Query  string `json:"query"`
			Intent string `json:"intent"`
		}
		json.Unmarshal(req.Arguments, &args)

		results, err := s.retriever.Retrieve(ctx, args.Query, args.Intent)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": formatResults(results)},
			},
			"results": results,
		}, nil

	case "knowledge_stats":
		snap := s.base.Current()
		counts := make(map[string]int, len(domain.Categories))
		for _, cat := range domain.Categories {
			counts[string(cat)] = snap.Store.Count(cat)
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Corpus sizes: %v", counts)},
			},
		}, nil

	case "list_strategies":
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": fmt.Sprintf("Available strategies: %v", s.dispatcher.Strategies())},
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func formatResults(results []domain.ScoredItem) string {
	if len(results) == 0 {
		return "No matching knowledge items."
	}
	out := ""
	for i, r := range results {
		out += fmt.Sprintf("%d. [%s %.2f] %s\n", i+1, r.Category, r.Similarity, r.Text)
	}
	return out
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
