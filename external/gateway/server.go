package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/voxlane/apptvoice/internal/config"
	gatewayport "github.com/voxlane/apptvoice/internal/gateway"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

type inboundCommand struct {
	Command string `json:"command"`
}

type Server struct {
	hub      *Hub
	commands gatewayport.CommandHandler
	engine   *gin.Engine
	addr     string
	upgrader websocket.Upgrader
}

func NewServer(cfg *config.Config, hub *Hub, commands gatewayport.CommandHandler) *Server {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		hub:      hub,
		commands: commands,
		addr:     cfg.ListenAddr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.AllowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/ws", s.handleWebSocket)
	s.engine = engine
	return s
}

func (s *Server) Run() error {
	slog.Info("gateway server listening", "addr", s.addr)
	return s.engine.Run(s.addr)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
	s.hub.register(cl)

	go s.writePump(cl)
	go s.readPump(cl)
}

func (s *Server) readPump(cl *client) {
	defer func() {
		s.hub.unregister(cl)
		_ = cl.conn.Close()
	}()
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, message, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("gateway client read error", "error", err)
			}
			return
		}
		var cmd inboundCommand
		if err := json.Unmarshal(message, &cmd); err != nil || cmd.Command == "" {
			slog.Debug("ignoring malformed gateway command", "error", err)
			continue
		}
		slog.Info("gateway command received", "command", cmd.Command)
		s.commands.HandleCommand(cmd.Command)
	}
}

func (s *Server) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case message, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
