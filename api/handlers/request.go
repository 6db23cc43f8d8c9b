package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lexflow/lexflow-api/api"
	"github.com/lexflow/lexflow-api/caseflow"
	"github.com/lexflow/lexflow-api/config"
)

// Request exported for testing purposes
type Request struct {
	Service *caseflow.Service
}

// CreateRequestHandler records a representation request from a client to a lawyer
func (rq Request) CreateRequestHandler(w http.ResponseWriter, r *http.Request) {
	var input caseflow.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	request, err := rq.Service.CreateRequest(ctx, input)
	if err != nil {
		config.ErrorStatus("failed to create representation request", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(request)
}

// ResolveRequestHandler records the lawyer's accept or reject decision
func (rq Request) ResolveRequestHandler(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["request_id"]

	var body struct {
		Decision string `json:"decision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	request, err := rq.Service.ResolveRequest(ctx, requestID, body.Decision)
	if err != nil {
		config.ErrorStatus("failed to resolve representation request", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(request)
}

// RequestsByLawyerIDHandler returns the requests targeting a lawyer
func (rq Request) RequestsByLawyerIDHandler(w http.ResponseWriter, r *http.Request) {
	lawyerID := mux.Vars(r)["lawyer_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	requests, err := rq.Service.GetRequestsByLawyerID(ctx, lawyerID)
	if err != nil {
		config.ErrorStatus("failed to get requests by lawyer id", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requests)
}
