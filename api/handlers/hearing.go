package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/lexflow/lexflow-api/api"
	"github.com/lexflow/lexflow-api/caseflow"
	"github.com/lexflow/lexflow-api/config"
)

// Hearing exported for testing purposes
type Hearing struct {
	Service *caseflow.Service
}

// ScheduleHearingHandler creates a hearing for a filed case
func (h Hearing) ScheduleHearingHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var input caseflow.ScheduleHearingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearing, err := h.Service.ScheduleHearing(ctx, caseID, input)
	if err != nil {
		config.ErrorStatus("failed to schedule hearing", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(hearing)
}

// HearingsByCaseIDHandler returns a case's hearings in date order
func (h Hearing) HearingsByCaseIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearings, err := h.Service.GetHearingsByCaseID(ctx, caseID)
	if err != nil {
		config.ErrorStatus("failed to get hearings by case id", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(hearings)
}

// RescheduleHearingHandler moves a hearing to a new date
func (h Hearing) RescheduleHearingHandler(w http.ResponseWriter, r *http.Request) {
	hearingID := mux.Vars(r)["hearing_id"]

	var body struct {
		NewDate time.Time `json:"newDate"`
		Reason  string    `json:"reason"`
		ActorID string    `json:"actorID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	hearing, err := h.Service.RescheduleHearing(ctx, hearingID, body.NewDate, body.Reason, body.ActorID)
	if err != nil {
		config.ErrorStatus("failed to reschedule hearing", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(hearing)
}
