package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lexflow/lexflow-api/api/handlers"
	"github.com/lexflow/lexflow-api/models"
)

func storedHearing(caseID string, date time.Time) *models.Hearing {
	return &models.Hearing{
		ID: primitive.NewObjectID(),
		Details: models.HearingDetails{
			CaseID:            caseID,
			Date:              primitive.NewDateTimeFromTime(date),
			Location:          "Courtroom 3",
			Status:            models.HearingStatusScheduled,
			RescheduleHistory: []models.RescheduleEntry{},
		},
	}
}

func TestHearing_ScheduleHearingHandler(t *testing.T) {
	service, m := newServiceMocks()

	judgeOID := primitive.NewObjectID()
	courtCase := storedCase(models.CaseStatusFiled)

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	m.users.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:      judgeOID,
		Details: models.UserDetails{Name: "Hon. Rivera", Role: models.RoleJudge},
	}, nil)
	m.hearings.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)
	m.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	body := []byte(`{"date":"2030-06-01T10:00:00Z","location":"Courtroom 3","judgeID":"` + judgeOID.Hex() + `"}`)
	req, err := http.NewRequest("POST", "/api/v1/case/"+courtCase.ID.Hex()+"/hearing", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	h := handlers.Hearing{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ScheduleHearingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Hearing
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, models.HearingStatusScheduled, got.Details.Status)
}

func TestHearing_ScheduleHearingHandlerPendingCase(t *testing.T) {
	service, m := newServiceMocks()
	courtCase := storedCase(models.CaseStatusPending)

	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	body := []byte(`{"date":"2030-06-01T10:00:00Z","location":"Courtroom 3"}`)
	req, err := http.NewRequest("POST", "/api/v1/case/"+courtCase.ID.Hex()+"/hearing", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": courtCase.ID.Hex()})

	h := handlers.Hearing{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.ScheduleHearingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHearing_HearingsByCaseIDHandlerSorted(t *testing.T) {
	service, m := newServiceMocks()

	caseID := primitive.NewObjectID().Hex()
	later := storedHearing(caseID, time.Date(2030, 6, 10, 10, 0, 0, 0, time.UTC))
	sooner := storedHearing(caseID, time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC))

	m.hearings.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Hearing{*later, *sooner}, nil)

	req, err := http.NewRequest("GET", "/api/v1/hearings/case/"+caseID, nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": caseID})

	h := handlers.Hearing{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.HearingsByCaseIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got []models.Hearing
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestHearing_RescheduleHearingHandler(t *testing.T) {
	service, m := newServiceMocks()

	courtCase := storedCase(models.CaseStatusScheduled)
	hearing := storedHearing(courtCase.ID.Hex(), time.Date(2030, 6, 1, 10, 0, 0, 0, time.UTC))

	m.hearings.On("FindOne", mock.Anything, mock.Anything).Return(hearing, nil)
	m.cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	m.hearings.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)
	m.hearings.On("Find", mock.Anything, mock.Anything, mock.Anything).Return([]models.Hearing{*hearing}, nil)
	m.cases.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	body := []byte(`{"newDate":"2030-06-15T10:00:00Z","reason":"witness unavailable","actorID":"clerk-1"}`)
	req, err := http.NewRequest("PUT", "/api/v1/hearing/"+hearing.ID.Hex()+"/reschedule", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"hearing_id": hearing.ID.Hex()})

	h := handlers.Hearing{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.RescheduleHearingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHearing_RescheduleHearingHandlerMissingDate(t *testing.T) {
	service, _ := newServiceMocks()

	hearingID := primitive.NewObjectID().Hex()
	body := []byte(`{"reason":"no date supplied"}`)
	req, err := http.NewRequest("PUT", "/api/v1/hearing/"+hearingID+"/reschedule", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"hearing_id": hearingID})

	h := handlers.Hearing{Service: service}
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.RescheduleHearingHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
