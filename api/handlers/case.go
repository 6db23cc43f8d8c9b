package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lexflow/lexflow-api/api"
	"github.com/lexflow/lexflow-api/caseflow"
	"github.com/lexflow/lexflow-api/config"
	"github.com/lexflow/lexflow-api/models"
)

// Case exported for testing purposes
type Case struct {
	Service *caseflow.Service
}

// kindStatus maps an engine error to the HTTP status the route returns
func kindStatus(err error) int {
	switch caseflow.KindOf(err) {
	case caseflow.KindNotFound:
		return http.StatusNotFound
	case caseflow.KindInvalidTransition, caseflow.KindPreconditionFailed:
		return http.StatusBadRequest
	case caseflow.KindAlreadyResolved, caseflow.KindConflict:
		return http.StatusConflict
	case caseflow.KindForbidden:
		return http.StatusForbidden
	case caseflow.KindPartiallyApplied:
		return http.StatusBadGateway
	case caseflow.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// CreateCaseHandler creates a new case in pending status
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	var input caseflow.CreateCaseInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.CreateCase(ctx, input)
	if err != nil {
		config.ErrorStatus("failed to create case", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(courtCase)
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.GetCaseByID(ctx, caseID)
	if err != nil {
		config.ErrorStatus("failed to get case", kindStatus(err), w, err)
		return
	}

	b, err := json.Marshal(courtCase)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateCaseHandler applies field updates and/or a status transition to a case
func (c Case) UpdateCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.UpdateCase(ctx, caseID, fields)
	if err != nil {
		config.ErrorStatus("failed to update case", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(courtCase)
}

// CasesByUserIDHandler returns all cases the given account participates in
func (c Case) CasesByUserIDHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := c.Service.GetCasesByUserID(ctx, userID)
	if err != nil {
		config.ErrorStatus("failed to get cases by user id", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(cases)
}

// CasesByIdentityHandler returns cases naming the queried defendant identity
func (c Case) CasesByIdentityHandler(w http.ResponseWriter, r *http.Request) {
	idType := r.URL.Query().Get("idType")
	idNumber := r.URL.Query().Get("idNumber")
	phone := r.URL.Query().Get("phone")

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	cases, err := c.Service.FindCasesAgainstIdentity(ctx, idType, idNumber, phone)
	if err != nil {
		config.ErrorStatus("failed to search cases by identity", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(cases)
}

// ClaimDefendantHandler links the calling account to the open defendant slot
func (c Case) ClaimDefendantHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var body struct {
		UserID string `json:"userID"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.ClaimDefendantIdentity(ctx, caseID, body.UserID)
	if err != nil {
		config.ErrorStatus("failed to claim defendant identity", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(courtCase)
}

// AddEvidenceHandler appends an evidence entry to a case
func (c Case) AddEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var item models.EvidenceItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.AddEvidence(ctx, caseID, item)
	if err != nil {
		config.ErrorStatus("failed to add evidence", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(courtCase)
}

// AddWitnessHandler appends a witness entry to a case
func (c Case) AddWitnessHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var witness models.Witness
	if err := json.NewDecoder(r.Body).Decode(&witness); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.AddWitness(ctx, caseID, witness)
	if err != nil {
		config.ErrorStatus("failed to add witness", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(courtCase)
}

// RefreshNamesHandler re-copies the denormalized lawyer and judge names
func (c Case) RefreshNamesHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.RefreshRepresentationNames(ctx, caseID)
	if err != nil {
		config.ErrorStatus("failed to refresh representation names", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(courtCase)
}

// DismissCaseHandler is the administrative dismissal path
func (c Case) DismissCaseHandler(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["case_id"]

	var body struct {
		ActorID string `json:"actorID"`
		Reason  string `json:"reason"`
	}
	// body is optional for a dismissal
	_ = json.NewDecoder(r.Body).Decode(&body)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	courtCase, err := c.Service.DismissCase(ctx, caseID, body.ActorID, body.Reason)
	if err != nil {
		config.ErrorStatus("failed to dismiss case", kindStatus(err), w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(courtCase)
}
