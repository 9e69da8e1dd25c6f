package web

import (
	"encoding/json"
	"net/http"

	"matchops-service/pkg/common"
	"matchops-service/services"
)

// handleAppendEvent 入账一条事件
// 入账成功即比分已重算,响应附带最新比分
func (s *Server) handleAppendEvent(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var params services.AppendEventParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	params.MatchID = matchID

	event, err := s.ledger.Append(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	match, err := s.matches.Get(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"event":      event,
		"home_score": match.HomeScore,
		"away_score": match.AwayScore,
	})
}

// handleListEvents 获取账本,(阶段, 分钟, 入账顺序) 排序
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	events, err := s.ledger.List(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": matchID,
		"events":   events,
	})
}

// handleDeleteEvent 删除一条事件并重算比分
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.ledger.Delete(r.Context(), eventID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": eventID,
	})
}
