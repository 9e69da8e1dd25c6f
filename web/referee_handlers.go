package web

import (
	"encoding/json"
	"net/http"

	"matchops-service/pkg/common"
	"matchops-service/services"
)

// handleAssignReferee 委派裁判
func (s *Server) handleAssignReferee(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var params services.AssignRefereeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, common.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	params.MatchID = matchID

	assignment, err := s.referees.Assign(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// handleListReferees 获取一场比赛的裁判委派
func (s *Server) handleListReferees(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	assignments, err := s.referees.List(r.Context(), matchID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match_id": matchID,
		"referees": assignments,
	})
}

// handleRemoveReferee 撤销裁判委派
func (s *Server) handleRemoveReferee(w http.ResponseWriter, r *http.Request) {
	assignmentID, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.referees.Remove(r.Context(), assignmentID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": assignmentID,
	})
}
