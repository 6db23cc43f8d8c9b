package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lexflow/lexflow-api/api/handlers"
	"github.com/lexflow/lexflow-api/models"
)

func TestJudgement_IssueJudgementHandler(t *testing.T) {
	service, m := newServiceMocks()

	judgeOID := primitive.NewObjectID()
	courtCase := storedCase(models.CaseStatusInProgress)
	courtCase.Details.JudgeID = judgeOID.Hex()

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	m.users.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:      judgeOID,
		Details: models.UserDetails{Name: "Hon. Rivera", Role: models.RoleJudge},
	}, nil)
	m.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)

	body := []byte(`{"judgeID":"` + judgeOID.Hex() + `","decision":"approved","rulingText":"Judgement for the plaintiff.","courtroomNumber":"Courtroom 3","physicalPresenceConfirmed":true}`)
	req, err := http.NewRequest("POST", "/api/v1/case/"+courtCase.ID.Hex()+"/judgement", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	j := handlers.Judgement{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(j.IssueJudgementHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
}

func TestJudgement_IssueJudgementHandlerPresenceRequired(t *testing.T) {
	service, m := newServiceMocks()

	judgeOID := primitive.NewObjectID()
	courtCase := storedCase(models.CaseStatusInProgress)
	courtCase.Details.JudgeID = judgeOID.Hex()

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	m.users.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:      judgeOID,
		Details: models.UserDetails{Name: "Hon. Rivera", Role: models.RoleJudge},
	}, nil)

	body := []byte(`{"judgeID":"` + judgeOID.Hex() + `","decision":"approved","physicalPresenceConfirmed":false}`)
	req, err := http.NewRequest("POST", "/api/v1/case/"+courtCase.ID.Hex()+"/judgement", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	j := handlers.Judgement{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(j.IssueJudgementHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestJudgement_IssueJudgementHandlerAlreadyIssued(t *testing.T) {
	service, m := newServiceMocks()

	courtCase := storedCase(models.CaseStatusInProgress)
	courtCase.Details.Judgement = &models.Judgement{Decision: models.JudgementDenied}

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	body := []byte(`{"judgeID":"judge-1","decision":"approved","physicalPresenceConfirmed":true}`)
	req, err := http.NewRequest("POST", "/api/v1/case/"+courtCase.ID.Hex()+"/judgement", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	j := handlers.Judgement{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(j.IssueJudgementHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}
