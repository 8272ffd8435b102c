package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"

	"github.com/Protocol-Lattice/slingql/ast"
	"github.com/Protocol-Lattice/slingql/executor"
	"github.com/Protocol-Lattice/slingql/lexer"
	"github.com/Protocol-Lattice/slingql/parser"
)

// GraphQLRequest represents a standard GraphQL request.
type GraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// ErrorResponse is written when a request fails as a whole.
type ErrorResponse struct {
	Errors []*executor.FieldError `json:"errors"`
}

// Handler serves GraphQL over HTTP and subscriptions over WebSocket.
type Handler struct {
	exec     *executor.Executor
	logger   hclog.Logger
	upgrader websocket.Upgrader
}

// New creates a Handler executing requests with exec. logger may be nil.
func New(exec *executor.Executor, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{
		exec:   exec,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles POST requests carrying JSON or multipart/form-data.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req GraphQLRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if status, err := h.readUpload(r, &req); err != nil {
			http.Error(w, err.Error(), status)
			return
		}
	} else {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "unable to read body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
	}
	h.execute(r.Context(), w, &req)
}

func (h *Handler) execute(ctx context.Context, w http.ResponseWriter, req *GraphQLRequest) {
	if req.Variables == nil {
		req.Variables = make(map[string]interface{})
	}

	// Lex and parse the query
	doc, errs := parse(req.Query)
	if len(errs) > 0 {
		resp := &ErrorResponse{}
		for _, e := range errs {
			resp.Errors = append(resp.Errors, &executor.FieldError{Message: e})
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	result, err := h.exec.Execute(ctx, doc, req.Variables)
	if err != nil {
		h.logger.Error("query failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(result.Errors) > 0 {
		h.logger.Debug("query completed with field errors", "count", len(result.Errors))
	}
	writeJSON(w, http.StatusOK, result)
}

// Subscription handles GraphQL subscriptions over WebSocket. The first
// message is the request; each event is then written as a JSON message.
func (h *Handler) Subscription(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP to WebSocket
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Read the subscription request from the WebSocket
	_, msg, err := conn.ReadMessage()
	if err != nil {
		conn.WriteMessage(websocket.TextMessage, []byte("failed to read subscription message"))
		return
	}

	var req GraphQLRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		conn.WriteMessage(websocket.TextMessage, []byte("invalid subscription JSON"))
		return
	}

	doc, errs := parse(req.Query)
	if len(errs) > 0 {
		conn.WriteMessage(websocket.TextMessage, []byte(strings.Join(errs, "; ")))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	subCh, err := h.exec.Subscribe(ctx, doc, req.Variables)
	if err != nil {
		conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf("subscription error: %v", err)))
		return
	}

	// Reading is the only way to notice the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				h.logger.Debug("subscription client disconnected", "error", err)
				return
			}
		}
	}()

	// Stream events from the subscription channel to the WebSocket
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-subCh:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Warn("failed to write event", "error", err)
				return
			}
		}
	}
}

// readUpload decodes a GraphQL multipart request into req, placing each
// uploaded file into the variables at the paths given by the "map" field.
func (h *Handler) readUpload(r *http.Request, req *GraphQLRequest) (int, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return http.StatusBadRequest, fmt.Errorf("failed to parse multipart form: %w", err)
	}

	operations := r.FormValue("operations")
	if operations == "" {
		return http.StatusBadRequest, fmt.Errorf("missing operations field")
	}
	if err := json.Unmarshal([]byte(operations), req); err != nil {
		return http.StatusBadRequest, fmt.Errorf("invalid operations JSON: %w", err)
	}
	if req.Variables == nil {
		req.Variables = make(map[string]interface{})
	}

	fileMapStr := r.FormValue("map")
	if fileMapStr == "" {
		return http.StatusBadRequest, fmt.Errorf("missing map field")
	}
	var fileMap map[string][]string
	if err := json.Unmarshal([]byte(fileMapStr), &fileMap); err != nil {
		return http.StatusBadRequest, fmt.Errorf("invalid map JSON: %w", err)
	}

	var wg sync.WaitGroup
	var varMu sync.Mutex
	for fileKey, paths := range fileMap {
		wg.Add(1)
		go func(fileKey string, paths []string) {
			defer wg.Done()
			file, header, err := r.FormFile(fileKey)
			if err != nil {
				h.logger.Warn("failed to retrieve file", "key", fileKey, "error", err)
				return
			}
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				h.logger.Warn("failed to read file", "file", header.Filename, "error", err)
				return
			}
			h.logger.Debug("uploaded file", "file", header.Filename, "bytes", len(data))
			upload := map[string]interface{}{
				"filename": header.Filename,
				"data":     data,
			}
			varMu.Lock()
			defer varMu.Unlock()
			for _, path := range paths {
				setVariable(req.Variables, strings.TrimPrefix(path, "variables."), upload)
			}
		}(fileKey, paths)
	}
	wg.Wait()
	return 0, nil
}

func parse(query string) (*ast.Document, []string) {
	p := parser.New(lexer.New(query))
	doc := p.ParseDocument()
	return doc, p.Errors()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// setVariable stores value at a dotted path such as "file" or "files.0",
// creating maps and growing slices along the way.
func setVariable(vars map[string]interface{}, path string, value interface{}) {
	keys := strings.Split(path, ".")
	vars[keys[0]] = setPath(vars[keys[0]], keys[1:], value)
}

func setPath(node interface{}, keys []string, value interface{}) interface{} {
	if len(keys) == 0 {
		return value
	}
	if idx, err := strconv.Atoi(keys[0]); err == nil && idx >= 0 {
		arr, _ := node.([]interface{})
		if idx >= len(arr) {
			grown := make([]interface{}, idx+1)
			copy(grown, arr)
			arr = grown
		}
		arr[idx] = setPath(arr[idx], keys[1:], value)
		return arr
	}
	m, ok := node.(map[string]interface{})
	if !ok {
		m = make(map[string]interface{})
	}
	m[keys[0]] = setPath(m[keys[0]], keys[1:], value)
	return m
}
