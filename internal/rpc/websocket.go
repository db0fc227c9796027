package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketServer serves drop methods and event subscriptions over a
// WebSocket connection.
type WebSocketServer struct {
	upgrader websocket.Upgrader
	manager  *SubscriptionManager
	registry *MethodRegistry

	mu          sync.RWMutex
	connections map[string]*wsConnection

	nextID uint64
}

type wsConnection struct {
	id     string
	conn   *websocket.Conn
	sub    *connection
	ctx    context.Context
	cancel context.CancelFunc
	closed chan struct{}
}

// NewWebSocketServer builds a WebSocket endpoint sharing the HTTP
// server's method registry and the given subscription manager.
func NewWebSocketServer(registry *MethodRegistry, manager *SubscriptionManager) *WebSocketServer {
	return &WebSocketServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		manager:     manager,
		registry:    registry,
		connections: make(map[string]*wsConnection),
	}
}

// ServeHTTP upgrades the request and runs the connection loops.
func (ws *WebSocketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("rpc: websocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())

	ws.mu.Lock()
	ws.nextID++
	id := fmt.Sprintf("conn_%d", ws.nextID)
	wsConn := &wsConnection{
		id:   id,
		conn: conn,
		sub: &connection{
			id:      id,
			send:    make(chan []byte, 256),
			streams: make(map[Stream]bool),
		},
		ctx:    ctx,
		cancel: cancel,
		closed: make(chan struct{}),
	}
	ws.connections[id] = wsConn
	ws.mu.Unlock()

	ws.manager.add(wsConn.sub)

	go ws.readLoop(wsConn)
	go ws.writeLoop(wsConn)
}

func (ws *WebSocketServer) readLoop(wsConn *wsConnection) {
	defer ws.closeConnection(wsConn)

	wsConn.conn.SetReadLimit(512 * 1024)
	wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	wsConn.conn.SetPongHandler(func(string) error {
		wsConn.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := wsConn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("rpc: websocket read error: %v", err)
			}
			return
		}
		ws.handleMessage(wsConn, message)
	}
}

func (ws *WebSocketServer) writeLoop(wsConn *wsConnection) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-wsConn.ctx.Done():
			return
		case <-wsConn.closed:
			return
		case <-ticker.C:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case message := <-wsConn.sub.send:
			wsConn.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := wsConn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("rpc: websocket send failed: %v", err)
				return
			}
		}
	}
}

// handleMessage dispatches one inbound command. The command, id and
// parameters all sit at the top level of the message.
func (ws *WebSocketServer) handleMessage(wsConn *wsConnection, message []byte) {
	var cmdMap map[string]interface{}
	if err := json.Unmarshal(message, &cmdMap); err != nil {
		ws.sendError(wsConn, RpcErrorInvalidParams("Invalid JSON: "+err.Error()), nil)
		return
	}

	command, ok := cmdMap["command"].(string)
	if !ok || command == "" {
		ws.sendError(wsConn, NewRpcError(-32600, "missingCommand", "Missing command field"), nil)
		return
	}

	id := cmdMap["id"]
	delete(cmdMap, "command")
	delete(cmdMap, "id")

	cmd := WebSocketCommand{Command: command, ID: id}
	if len(cmdMap) > 0 {
		params, _ := json.Marshal(cmdMap)
		cmd.Params = params
	}

	switch cmd.Command {
	case "subscribe":
		ws.handleSubscribe(wsConn, cmd, true)
	case "unsubscribe":
		ws.handleSubscribe(wsConn, cmd, false)
	default:
		ws.handleMethod(wsConn, cmd)
	}
}

type subscribeRequest struct {
	Streams []Stream `json:"streams"`
}

func (ws *WebSocketServer) handleSubscribe(wsConn *wsConnection, cmd WebSocketCommand, subscribe bool) {
	var request subscribeRequest
	if len(cmd.Params) > 0 {
		if err := json.Unmarshal(cmd.Params, &request); err != nil {
			ws.sendError(wsConn, RpcErrorInvalidParams("Invalid subscription parameters"), cmd.ID)
			return
		}
	}

	for _, s := range request.Streams {
		switch s {
		case StreamSales, StreamFunds, StreamConfig:
		default:
			ws.sendError(wsConn, RpcErrorInvalidParams(fmt.Sprintf("Unknown stream: %s", s)), cmd.ID)
			return
		}
	}

	if subscribe {
		wsConn.sub.subscribe(request.Streams)
	} else {
		wsConn.sub.unsubscribe(request.Streams)
	}

	ws.sendResponse(wsConn, WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: map[string]interface{}{"streams": request.Streams},
	})
}

func (ws *WebSocketServer) handleMethod(wsConn *wsConnection, cmd WebSocketCommand) {
	handler, exists := ws.registry.Get(cmd.Command)
	if !exists {
		ws.sendError(wsConn, RpcErrorMethodNotFound(cmd.Command), cmd.ID)
		return
	}

	rpcCtx := &RpcContext{
		Context:  wsConn.ctx,
		ClientIP: wsConn.conn.RemoteAddr().String(),
	}

	result, rpcErr := handler(rpcCtx, cmd.Params)
	if rpcErr != nil {
		ws.sendError(wsConn, rpcErr, cmd.ID)
		return
	}

	ws.sendResponse(wsConn, WebSocketResponse{
		Type:   "response",
		ID:     cmd.ID,
		Status: "success",
		Result: result,
	})
}

func (ws *WebSocketServer) sendResponse(wsConn *wsConnection, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("rpc: failed to marshal websocket response: %v", err)
		return
	}
	ws.push(wsConn, data)
}

// sendError sends error fields flat at the top level.
func (ws *WebSocketServer) sendError(wsConn *wsConnection, rpcErr *RpcError, id interface{}) {
	response := map[string]interface{}{
		"type":          "response",
		"status":        "error",
		"error":         rpcErr.ErrorString,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if id != nil {
		response["id"] = id
	}

	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("rpc: failed to marshal websocket error: %v", err)
		return
	}
	ws.push(wsConn, data)
}

func (ws *WebSocketServer) push(wsConn *wsConnection, data []byte) {
	select {
	case wsConn.sub.send <- data:
	case <-wsConn.ctx.Done():
	default:
		log.Printf("rpc: send channel full, closing connection %s", wsConn.id)
		ws.closeConnection(wsConn)
	}
}

func (ws *WebSocketServer) closeConnection(wsConn *wsConnection) {
	wsConn.cancel()

	ws.mu.Lock()
	if _, open := ws.connections[wsConn.id]; open {
		delete(ws.connections, wsConn.id)
		close(wsConn.closed)
	}
	ws.mu.Unlock()

	ws.manager.remove(wsConn.id)
	wsConn.conn.Close()
}
