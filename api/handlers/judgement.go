package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lexflow/lexflow-api/api"
	"github.com/lexflow/lexflow-api/caseflow"
	"github.com/lexflow/lexflow-api/config"
)

// Judgement exported for testing purposes
type Judgement struct {
	Service *caseflow.Service
}

// IssueJudgementHandler embeds the write-once judgement into a case
func (j Judgement) IssueJudgementHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var input caseflow.IssueJudgementInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := j.Service.IssueJudgement(ctx, caseID, input)
	if err != nil {
		config.ErrorStatus("failed to issue judgement", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(courtCase)
}
