package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"matchops-service/pkg/common"
	"matchops-service/pkg/models"
	"matchops-service/services"
)

// pathID 解析路径中的 {id}
func pathID(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewValidationError("invalid id in path")
	}
	return id, nil
}

// handleCreateMatch 创建比赛(赛程协作方的边界入口)
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var params services.CreateMatchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	match, err := s.matches.Create(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, match)
}

// handleListMatches 获取比赛列表
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := services.MatchFilter{
		Status: models.MatchStatus(query.Get("status")),
	}
	if v := query.Get("sync_enabled"); v != "" {
		enabled := v == "true"
		filter.SyncEnabled = &enabled
	}
	if limit, _ := strconv.Atoi(query.Get("limit")); limit > 0 {
		filter.Limit = limit
	}

	matches, err := s.matches.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
	})
}

// handleGetMatch 获取单场比赛
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	match, err := s.matches.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}

// handlePatchMatch 部分更新比赛(状态/比分/点球比分/同步开关)
func (s *Server) handlePatchMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch services.MatchPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	match, err := s.matches.Patch(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	// 关闭同步时取消该场在途的回放(已提交的事件保留)
	if patch.SyncEnabled != nil && !*patch.SyncEnabled && s.scheduler != nil {
		s.scheduler.Cancel(id)
	}

	writeJSON(w, http.StatusOK, match)
}

// handleResetStatus 重置比赛状态回 created
func (s *Server) handleResetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	match, err := s.matches.ResetStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
