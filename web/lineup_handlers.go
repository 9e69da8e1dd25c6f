package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"matchops-service/pkg/common"
	"matchops-service/services"
)

// handleAddLineupEntry 新增阵容条目
func (s *Server) handleAddLineupEntry(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var params services.AddLineupParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	params.MatchID = matchID

	entry, err := s.lineup.AddEntry(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// handleListLineup 获取阵容,可按 team_id 过滤
func (s *Server) handleListLineup(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var teamID *int64
	if v := r.URL.Query().Get("team_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, common.NewValidationError("invalid team_id"))
			return
		}
		teamID = &id
	}

	entries, err := s.lineup.List(r.Context(), matchID, teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": matchID,
		"lineup":   entries,
	})
}

// handleRemoveLineupEntry 删除阵容条目
// 条目仍被事件引用时返回 409,调用方先删事件
func (s *Server) handleRemoveLineupEntry(w http.ResponseWriter, r *http.Request) {
	entryID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.lineup.RemoveEntry(r.Context(), entryID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": entryID,
	})
}
