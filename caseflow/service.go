package caseflow

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexflow/lexflow-api/databases"
	"github.com/lexflow/lexflow-api/models"
)

// Service exposes the case lifecycle operations over the entity databases.
// Every operation is a short-lived unit of work, safe to invoke concurrently
// from independent callers; none spawns internal concurrency and none
// retries store failures on its own.
type Service struct {
	Cases    databases.CaseDatabase
	Requests databases.RequestDatabase
	Hearings databases.HearingDatabase
	Users    databases.UserDatabase

	// now is swapped out in tests
	now func() time.Time
}

// NewService wires the engine to its entity databases
func NewService(cases databases.CaseDatabase, requests databases.RequestDatabase, hearings databases.HearingDatabase, users databases.UserDatabase) *Service {
	return &Service{
		Cases:    cases,
		Requests: requests,
		Hearings: hearings,
		Users:    users,
		now:      time.Now,
	}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// GetCaseByID returns the case with the given id
func (s *Service) GetCaseByID(ctx context.Context, caseID string) (*models.Case, error) {
	const op = "caseflow.GetCaseByID"
	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid case id").With("caseID", caseID)
	}
	courtCase, err := s.Cases.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	return courtCase, nil
}

// GetCasesByUserID returns all cases the given account participates in, in
// any capacity: plaintiff, defendant, either lawyer, or judge.
func (s *Service) GetCasesByUserID(ctx context.Context, userID string) ([]models.Case, error) {
	const op = "caseflow.GetCasesByUserID"
	filter := bson.M{
		"$or": []bson.M{
			{"case.plaintiffUserID": userID},
			{"case.defendantUserID": userID},
			{"case.plaintiffLawyer.userID": userID},
			{"case.defendantLawyer.userID": userID},
			{"case.judgeID": userID},
		},
	}
	cases, err := s.Cases.Find(ctx, filter, &options.FindOptions{Sort: bson.M{"_id": -1}})
	if err != nil {
		return nil, storeError(op, err).With("userID", userID)
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return cases, nil
}

// GetHearingsByCaseID returns the case's hearings sorted ascending by their
// current date, stable for equal dates.
func (s *Service) GetHearingsByCaseID(ctx context.Context, caseID string) ([]models.Hearing, error) {
	const op = "caseflow.GetHearingsByCaseID"
	hearings, err := s.Hearings.Find(ctx, bson.M{"hearing.caseID": caseID}, &options.FindOptions{Sort: bson.M{"_id": 1}})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	if hearings == nil {
		hearings = []models.Hearing{}
	}
	SortHearings(hearings)
	return hearings, nil
}

// GetRequestsByLawyerID returns the requests targeting the given lawyer
func (s *Service) GetRequestsByLawyerID(ctx context.Context, lawyerID string) ([]models.RepresentationRequest, error) {
	const op = "caseflow.GetRequestsByLawyerID"
	requests, err := s.Requests.Find(ctx, bson.M{"request.lawyerID": lawyerID}, &options.FindOptions{Sort: bson.M{"_id": -1}})
	if err != nil {
		return nil, storeError(op, err).With("lawyerID", lawyerID)
	}
	if requests == nil {
		requests = []models.RepresentationRequest{}
	}
	return requests, nil
}

func (s *Service) findUser(ctx context.Context, op, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid user id").With("userID", userID)
	}
	user, err := s.Users.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("userID", userID)
	}
	return user, nil
}
