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
	"github.com/lexflow/lexflow-api/caseflow"
	mocksdb "github.com/lexflow/lexflow-api/databases/mocks"
	"github.com/lexflow/lexflow-api/models"
)

type serviceMocks struct {
	cases    *mocksdb.CaseDatabase
	requests *mocksdb.RequestDatabase
	hearings *mocksdb.HearingDatabase
	users    *mocksdb.UserDatabase
}

func newServiceMocks() (*caseflow.Service, serviceMocks) {
	m := serviceMocks{
		cases:    &mocksdb.CaseDatabase{},
		requests: &mocksdb.RequestDatabase{},
		hearings: &mocksdb.HearingDatabase{},
		users:    &mocksdb.UserDatabase{},
	}
	return caseflow.NewService(m.cases, m.requests, m.hearings, m.users), m
}

func storedCase(status string) *models.Case {
	return &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Title:           "Smith v Jones",
			Status:          status,
			PlaintiffUserID: "plaintiff-1",
			Plaintiff:       models.PartyIdentity{Name: "Alice Smith"},
		},
	}
}

func TestCase_CaseByIDHandler(t *testing.T) {
	service, m := newServiceMocks()
	courtCase := storedCase(models.CaseStatusFiled)

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	req, err := http.NewRequest("GET", "/api/v1/case/"+courtCase.ID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CaseByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, courtCase.ID, got.ID)
}

func TestCase_CaseByIDHandlerInvalidID(t *testing.T) {
	service, _ := newServiceMocks()

	req, err := http.NewRequest("GET", "/api/v1/case/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "1234"})

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CaseByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCase_CreateCaseHandler(t *testing.T) {
	service, m := newServiceMocks()
	m.cases.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	body, _ := json.Marshal(caseflow.CreateCaseInput{
		Title:           "Smith v Jones",
		Plaintiff:       models.PartyIdentity{Name: "Alice Smith"},
		PlaintiffUserID: "plaintiff-1",
	})
	req, err := http.NewRequest("POST", "/api/v1/case", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.CaseStatusPending, got.Details.Status)
}

func TestCase_CreateCaseHandlerMissingPlaintiff(t *testing.T) {
	service, _ := newServiceMocks()

	req, err := http.NewRequest("POST", "/api/v1/case", bytes.NewReader([]byte(`{"title":"No plaintiff"}`)))
	if err != nil {
		t.Fatal(err)
	}

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CreateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCase_UpdateCaseHandlerInvalidTransition(t *testing.T) {
	service, m := newServiceMocks()
	courtCase := storedCase(models.CaseStatusPending)

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	body := []byte(`{"status":"in_progress"}`)
	req, err := http.NewRequest("PATCH", "/api/v1/case/"+courtCase.ID.Hex(), bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.UpdateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCase_ClaimDefendantHandlerConflict(t *testing.T) {
	service, m := newServiceMocks()
	courtCase := storedCase(models.CaseStatusFiled)
	courtCase.Details.DefendantUserID = "someone-else"

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	body := []byte(`{"userID":"defendant-9"}`)
	req, err := http.NewRequest("POST", "/api/v1/case/"+courtCase.ID.Hex()+"/claim-defendant", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.ClaimDefendantHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCase_CasesByIdentityHandlerMissingParams(t *testing.T) {
	service, _ := newServiceMocks()

	req, err := http.NewRequest("GET", "/api/v1/cases/identity?idType=passport", nil)
	if err != nil {
		t.Fatal(err)
	}

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CasesByIdentityHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCase_CasesByIdentityHandler(t *testing.T) {
	service, m := newServiceMocks()
	courtCase := storedCase(models.CaseStatusFiled)

	m.cases.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Case{*courtCase}, nil)

	req, err := http.NewRequest("GET", "/api/v1/cases/identity?idType=passport&idNumber=P123456", nil)
	if err != nil {
		t.Fatal(err)
	}

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CasesByIdentityHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []models.Case
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestCase_CasesByUserIDHandlerEmpty(t *testing.T) {
	service, m := newServiceMocks()
	m.cases.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	req, err := http.NewRequest("GET", "/api/v1/cases/user/user-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "user-1"})

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.CasesByUserIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestCase_DismissCaseHandlerWithoutBody(t *testing.T) {
	service, m := newServiceMocks()
	courtCase := storedCase(models.CaseStatusScheduled)

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	m.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	req, err := http.NewRequest("POST", "/api/v1/case/"+courtCase.ID.Hex()+"/dismiss", bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	c := handlers.Case{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(c.DismissCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
