package web

import (
	"net/http"
	"strconv"

	"matchops-service/pkg/common"
)

// handleTriggerSync 手动触发一次同步回放
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	match, err := s.matches.Get(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !match.SyncEnabled {
		writeError(w, common.NewValidationError("sync is not enabled for this match"))
		return
	}
	if s.adapter == nil {
		writeError(w, common.NewValidationError("no feed provider configured"))
		return
	}

	result, err := s.adapter.RunPass(r.Context(), match)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListSyncRuns 获取同步执行记录
func (s *Server) handleListSyncRuns(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := s.syncRuns.List(r.Context(), matchID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": matchID,
		"runs":     runs,
	})
}
