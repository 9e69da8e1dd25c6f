package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"matchops-service/config"
	"matchops-service/logger"
	"matchops-service/pkg/common"
	"matchops-service/services"
)

type Server struct {
	config     *config.Config
	db         *sql.DB
	wsHub      *Hub
	matches    *services.MatchStore
	lineup     *services.LineupRegistry
	ledger     *services.EventLedger
	referees   *services.RefereeStore
	adapter    *services.SyncAdapter
	scheduler  *services.SyncScheduler
	syncRuns   *services.SyncRunStore
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// NewServer 创建 Web 服务器
func NewServer(cfg *config.Config, db *sql.DB, hub *Hub,
	matches *services.MatchStore, lineup *services.LineupRegistry,
	ledger *services.EventLedger, referees *services.RefereeStore,
	adapter *services.SyncAdapter, syncRuns *services.SyncRunStore) *Server {
	return &Server{
		config:   cfg,
		db:       db,
		wsHub:    hub,
		matches:  matches,
		lineup:   lineup,
		ledger:   ledger,
		referees: referees,
		adapter:  adapter,
		syncRuns: syncRuns,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有来源(生产环境需要限制)
			},
		},
	}
}

// SetScheduler 设置同步调度器(关闭 sync_enabled 时取消在途回放)
func (s *Server) SetScheduler(scheduler *services.SyncScheduler) {
	s.scheduler = scheduler
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	// API路由
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/stats", s.handleGetStats).Methods("GET")

	api.HandleFunc("/matches", s.handleCreateMatch).Methods("POST")
	api.HandleFunc("/matches", s.handleListMatches).Methods("GET")
	api.HandleFunc("/matches/{id}", s.handleGetMatch).Methods("GET")
	api.HandleFunc("/matches/{id}", s.handlePatchMatch).Methods("PATCH")
	api.HandleFunc("/matches/{id}/reset-status", s.handleResetStatus).Methods("POST")

	api.HandleFunc("/matches/{id}/events", s.handleAppendEvent).Methods("POST")
	api.HandleFunc("/matches/{id}/events", s.handleListEvents).Methods("GET")
	api.HandleFunc("/events/{id}", s.handleDeleteEvent).Methods("DELETE")

	api.HandleFunc("/matches/{id}/lineup", s.handleAddLineupEntry).Methods("POST")
	api.HandleFunc("/matches/{id}/lineup", s.handleListLineup).Methods("GET")
	api.HandleFunc("/lineup/{id}", s.handleRemoveLineupEntry).Methods("DELETE")

	api.HandleFunc("/matches/{id}/referees", s.handleAssignReferee).Methods("POST")
	api.HandleFunc("/matches/{id}/referees", s.handleListReferees).Methods("GET")
	api.HandleFunc("/referees/{id}", s.handleRemoveReferee).Methods("DELETE")

	api.HandleFunc("/matches/{id}/sync", s.handleTriggerSync).Methods("POST")
	api.HandleFunc("/matches/{id}/sync-runs", s.handleListSyncRuns).Methods("GET")

	// WebSocket路由
	router.HandleFunc("/ws", s.handleWebSocket)

	// CORS配置
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}
}

// handleHealth 健康检查
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleGetStats 获取统计信息
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	var stats struct {
		TotalMatches    int `json:"total_matches"`
		LiveMatches     int `json:"live_matches"`
		TotalEvents     int `json:"total_events"`
		LineupEntries   int `json:"lineup_entries"`
		RefereeAssigned int `json:"referee_assignments"`
		SyncRuns        int `json:"sync_runs"`
	}

	s.db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&stats.TotalMatches)
	s.db.QueryRow("SELECT COUNT(*) FROM matches WHERE status = 'live'").Scan(&stats.LiveMatches)
	s.db.QueryRow("SELECT COUNT(*) FROM match_events").Scan(&stats.TotalEvents)
	s.db.QueryRow("SELECT COUNT(*) FROM lineup_entries").Scan(&stats.LineupEntries)
	s.db.QueryRow("SELECT COUNT(*) FROM referee_assignments").Scan(&stats.RefereeAssigned)
	s.db.QueryRow("SELECT COUNT(*) FROM sync_runs").Scan(&stats.SyncRuns)

	writeJSON(w, http.StatusOK, stats)
}

// handleWebSocket WebSocket连接处理
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:      s.wsHub,
		conn:     conn,
		send:     make(chan []byte, 256),
		matchIDs: make(map[int64]bool),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// writeJSON 输出 JSON 响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError 按错误码映射 HTTP 状态码输出错误响应
func writeError(w http.ResponseWriter, err error) {
	code := common.CodeInternal
	status := http.StatusInternalServerError

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
		switch appErr.Code {
		case common.CodeValidation:
			status = http.StatusUnprocessableEntity
		case common.CodeNotFound:
			status = http.StatusNotFound
		case common.CodeMatchClosed, common.CodeReferencedByEvent, common.CodeConflict:
			status = http.StatusConflict
		case common.CodeSyncTransient:
			status = http.StatusBadGateway
		}
	}

	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": err.Error(),
		},
	})
}
