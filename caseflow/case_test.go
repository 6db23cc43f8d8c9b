package caseflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	mocksdb "github.com/lexflow/lexflow-api/databases/mocks"
	"github.com/lexflow/lexflow-api/models"
)

var testClock = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newTestService(cases *mocksdb.CaseDatabase, requests *mocksdb.RequestDatabase, hearings *mocksdb.HearingDatabase, users *mocksdb.UserDatabase) *Service {
	return &Service{
		Cases:    cases,
		Requests: requests,
		Hearings: hearings,
		Users:    users,
		now:      func() time.Time { return testClock },
	}
}

func testCase(status string) *models.Case {
	return &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Title:           "Smith v Jones",
			Status:          status,
			PlaintiffUserID: "plaintiff-1",
			Plaintiff:       models.PartyIdentity{Name: "Alice Smith"},
			Defendant:       models.PartyIdentity{Name: "Bob Jones", IDType: "passport", IDNumber: "P123456"},
		},
	}
}

func TestTransitionTable(t *testing.T) {
	allowed := []struct{ from, to string }{
		{models.CaseStatusPending, models.CaseStatusFiled},
		{models.CaseStatusFiled, models.CaseStatusScheduled},
		{models.CaseStatusScheduled, models.CaseStatusInProgress},
		{models.CaseStatusScheduled, models.CaseStatusOnHold},
		{models.CaseStatusScheduled, models.CaseStatusDismissed},
		{models.CaseStatusScheduled, models.CaseStatusClosed},
		{models.CaseStatusInProgress, models.CaseStatusOnHold},
		{models.CaseStatusInProgress, models.CaseStatusScheduled},
		{models.CaseStatusInProgress, models.CaseStatusClosed},
		{models.CaseStatusOnHold, models.CaseStatusScheduled},
		{models.CaseStatusOnHold, models.CaseStatusDismissed},
		{models.CaseStatusOnHold, models.CaseStatusClosed},
	}
	for _, tc := range allowed {
		assert.True(t, transitionAllowed(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{models.CaseStatusPending, models.CaseStatusScheduled},
		{models.CaseStatusPending, models.CaseStatusClosed},
		{models.CaseStatusFiled, models.CaseStatusInProgress},
		{models.CaseStatusFiled, models.CaseStatusClosed},
		{models.CaseStatusInProgress, models.CaseStatusDismissed},
		{models.CaseStatusScheduled, models.CaseStatusPending},
		{models.CaseStatusDismissed, models.CaseStatusScheduled},
		{models.CaseStatusClosed, models.CaseStatusScheduled},
		{models.CaseStatusClosed, models.CaseStatusInProgress},
	}
	for _, tc := range denied {
		assert.False(t, transitionAllowed(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestCreateCase(t *testing.T) {
	conn := &mocksdb.CaseDatabase{}
	s := newTestService(conn, nil, nil, nil)

	conn.On("InsertOne", mock.Anything, mock.Anything).Return(nil, nil)

	created, err := s.CreateCase(context.Background(), CreateCaseInput{
		Title:           "Smith v Jones",
		Plaintiff:       models.PartyIdentity{Name: "Alice Smith"},
		PlaintiffUserID: "plaintiff-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.CaseStatusPending, created.Details.Status)
	assert.Empty(t, created.Details.CaseNumber)
	assert.NotNil(t, created.Details.Evidence)
	assert.NotNil(t, created.Details.Witnesses)
	assert.Equal(t, primitive.NewDateTimeFromTime(testClock), created.Details.CreatedAt)
}

func TestCreateCaseRequiresPlaintiff(t *testing.T) {
	s := newTestService(&mocksdb.CaseDatabase{}, nil, nil, nil)

	_, err := s.CreateCase(context.Background(), CreateCaseInput{Title: "No plaintiff"})
	assert.Equal(t, KindPreconditionFailed, KindOf(err))

	_, err = s.CreateCase(context.Background(), CreateCaseInput{PlaintiffUserID: "plaintiff-1"})
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestUpdateCaseFileStampsNumberAndDate(t *testing.T) {
	conn := &mocksdb.CaseDatabase{}
	s := newTestService(conn, nil, nil, nil)

	courtCase := testCase(models.CaseStatusPending)
	courtCase.Details.PlaintiffLawyer = models.LawyerRef{UserID: "lawyer-p"}
	courtCase.Details.DefendantLawyer = models.LawyerRef{UserID: "lawyer-d"}

	conn.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	conn.On("CountDocuments", mock.Anything, bson.M{"case.caseNumber": bson.M{"$ne": ""}}).Return(int64(41), nil)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		return set["case.status"] == models.CaseStatusFiled &&
			set["case.caseNumber"] == "CV-2024-000042" &&
			set["case.filedDate"] == primitive.NewDateTimeFromTime(testClock)
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"status": models.CaseStatusFiled,
	})
	assert.NoError(t, err)
}

func TestUpdateCaseFileRequiresBothLawyers(t *testing.T) {
	conn := &mocksdb.CaseDatabase{}
	s := newTestService(conn, nil, nil, nil)

	courtCase := testCase(models.CaseStatusPending)
	courtCase.Details.PlaintiffLawyer = models.LawyerRef{UserID: "lawyer-p"}

	conn.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"status": models.CaseStatusFiled,
	})
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateCaseFileLawyerInSameUpdate(t *testing.T) {
	conn := &mocksdb.CaseDatabase{}
	s := newTestService(conn, nil, nil, nil)

	courtCase := testCase(models.CaseStatusPending)
	courtCase.Details.PlaintiffLawyer = models.LawyerRef{UserID: "lawyer-p"}

	conn.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	conn.On("CountDocuments", mock.Anything, mock.Anything).Return(int64(0), nil)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	// the missing defendant lawyer arrives in the same call
	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"status":                 models.CaseStatusFiled,
		"defendantLawyer.userID": "lawyer-d",
	})
	assert.NoError(t, err)
}

func TestUpdateCaseScheduleRequiresHearing(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	hearings := &mocksdb.HearingDatabase{}
	s := newTestService(cases, nil, hearings, nil)

	courtCase := testCase(models.CaseStatusFiled)
	courtCase.Details.JudgeID = "judge-1"
	courtCase.Details.Courtroom = "Courtroom 3"

	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	hearings.On("CountDocuments", mock.Anything, bson.M{"hearing.caseID": courtCase.ID.Hex()}).Return(int64(0), nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"status": models.CaseStatusScheduled,
	})
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestUpdateCaseScheduleRequiresJudgeAndCourtroom(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, &mocksdb.HearingDatabase{}, nil)

	courtCase := testCase(models.CaseStatusFiled)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"status": models.CaseStatusScheduled,
	})
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestUpdateCaseCloseRequiresJudgement(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	courtCase := testCase(models.CaseStatusInProgress)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"status": models.CaseStatusClosed,
	})
	assert.Equal(t, KindPreconditionFailed, KindOf(err))
}

func TestUpdateCaseTerminalIsFrozen(t *testing.T) {
	for _, status := range []string{models.CaseStatusDismissed, models.CaseStatusClosed} {
		cases := &mocksdb.CaseDatabase{}
		s := newTestService(cases, nil, nil, nil)

		courtCase := testCase(status)
		cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

		_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
			"description": "late edit",
		})
		assert.Equal(t, KindInvalidTransition, KindOf(err))
		cases.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestUpdateCaseInvalidTransition(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	courtCase := testCase(models.CaseStatusPending)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"status": models.CaseStatusInProgress,
	})
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestUpdateCaseDropsProtectedFields(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	courtCase := testCase(models.CaseStatusFiled)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	cases.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		_, hasNumber := set["case.caseNumber"]
		_, hasJudgement := set["case.judgement"]
		_, hasEvidence := set["case.evidence"]
		return !hasNumber && !hasJudgement && !hasEvidence && set["case.description"] == "amended"
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"caseNumber":  "CV-9999-999999",
		"judgement":   map[string]interface{}{"decision": "approved"},
		"evidence":    []interface{}{},
		"description": "amended",
	})
	assert.NoError(t, err)
}

func TestUpdateCaseNormalizesDates(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	courtCase := testCase(models.CaseStatusFiled)
	want := primitive.NewDateTimeFromTime(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	cases.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		_, hasBad := set["case.reviewDate"]
		return set["case.nextHearingDate"] == want && !hasBad
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	_, err := s.UpdateCase(context.Background(), courtCase.ID.Hex(), map[string]interface{}{
		"nextHearingDate": "2024-06-01",
		"reviewDate":      "not a date",
	})
	assert.NoError(t, err)
}

func TestUpdateCaseInvalidID(t *testing.T) {
	s := newTestService(&mocksdb.CaseDatabase{}, nil, nil, nil)
	_, err := s.UpdateCase(context.Background(), "not-an-oid", map[string]interface{}{"title": "x"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestUpdateCaseNotFound(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	cases.On("FindOne", mock.Anything, mock.Anything).Return(nil, mongo.ErrNoDocuments)

	_, err := s.UpdateCase(context.Background(), primitive.NewObjectID().Hex(), map[string]interface{}{"title": "x"})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestDismissCaseRoutesThroughTransitionTable(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	courtCase := testCase(models.CaseStatusInProgress)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	// in_progress cannot be dismissed directly
	_, err := s.DismissCase(context.Background(), courtCase.ID.Hex(), "clerk-1", "filed in error")
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestAddEvidence(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	courtCase := testCase(models.CaseStatusScheduled)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	cases.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		push := update.(bson.M)["$push"].(bson.M)
		item, ok := push["case.evidence"].(models.EvidenceItem)
		return ok && item.Title == "Signed contract" && !item.ID.IsZero()
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	_, err := s.AddEvidence(context.Background(), courtCase.ID.Hex(), models.EvidenceItem{
		Title:     "Signed contract",
		FileURL:   "https://files.example.com/contract.pdf",
		AddedByID: "lawyer-p",
	})
	assert.NoError(t, err)
}

func TestAddWitnessTerminalCase(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, nil)

	courtCase := testCase(models.CaseStatusClosed)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	_, err := s.AddWitness(context.Background(), courtCase.ID.Hex(), models.Witness{Name: "Carol"})
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestRefreshRepresentationNames(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	users := &mocksdb.UserDatabase{}
	s := newTestService(cases, nil, nil, users)

	lawyerOID := primitive.NewObjectID()
	courtCase := testCase(models.CaseStatusFiled)
	courtCase.Details.PlaintiffLawyer = models.LawyerRef{UserID: lawyerOID.Hex(), Name: "Old Name"}

	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)
	users.On("FindOne", mock.Anything, bson.M{"_id": lawyerOID}).Return(&models.User{
		ID:      lawyerOID,
		Details: models.UserDetails{Name: "New Name", Role: models.RoleLawyer},
	}, nil)
	cases.On("UpdateOne", mock.Anything, mock.Anything, mock.MatchedBy(func(update interface{}) bool {
		set := update.(bson.M)["$set"].(bson.M)
		return set["case.plaintiffLawyer.name"] == "New Name"
	})).Return(&mongo.UpdateResult{MatchedCount: 1}, nil)

	_, err := s.RefreshRepresentationNames(context.Background(), courtCase.ID.Hex())
	assert.NoError(t, err)
}

func TestRefreshRepresentationNamesNothingToDo(t *testing.T) {
	cases := &mocksdb.CaseDatabase{}
	s := newTestService(cases, nil, nil, &mocksdb.UserDatabase{})

	courtCase := testCase(models.CaseStatusPending)
	cases.On("FindOne", mock.Anything, mock.Anything).Return(courtCase, nil)

	got, err := s.RefreshRepresentationNames(context.Background(), courtCase.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, courtCase, got)
	cases.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestBuildCaseNumber(t *testing.T) {
	assert.Equal(t, "CV-2024-000001", BuildCaseNumber(2024, 1))
	assert.Equal(t, "CV-2024-000042", BuildCaseNumber(2024, 42))
	assert.Equal(t, "CV-2025-123456", BuildCaseNumber(2025, 123456))
	assert.Equal(t, "CV-2025-1234567", BuildCaseNumber(2025, 1234567))
}

func TestNormalizeDate(t *testing.T) {
	rfc, ok := normalizeDate("2024-06-01T12:00:00Z")
	assert.True(t, ok)
	assert.Equal(t, primitive.NewDateTimeFromTime(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)), rfc)

	dateOnly, ok := normalizeDate("2024-06-01")
	assert.True(t, ok)
	assert.Equal(t, primitive.NewDateTimeFromTime(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), dateOnly)

	millis, ok := normalizeDate(float64(1717243200000))
	assert.True(t, ok)
	assert.Equal(t, primitive.DateTime(1717243200000), millis)

	_, ok = normalizeDate("tomorrow-ish")
	assert.False(t, ok)

	_, ok = normalizeDate(true)
	assert.False(t, ok)
}

func TestStoreErrorKinds(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(storeError("op", mongo.ErrNoDocuments)))
	assert.Equal(t, KindStoreUnavailable, KindOf(storeError("op", errors.New("connection reset"))))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
