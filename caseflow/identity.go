package caseflow

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lexflow/lexflow-api/models"
)

// FindCasesAgainstIdentity returns every case whose recorded defendant
// identity matches the given document exactly (same id type, same id
// number). A phone number, when supplied, narrows the match further.
// Already-claimed cases are included so a caller can see the full picture.
func (s *Service) FindCasesAgainstIdentity(ctx context.Context, idType, idNumber, phone string) ([]models.Case, error) {
	const op = "caseflow.FindCasesAgainstIdentity"

	if idType == "" || idNumber == "" {
		return nil, newError(KindPreconditionFailed, op, "identity document type and number are required")
	}

	filter := bson.M{
		"case.defendant.idType":   idType,
		"case.defendant.idNumber": idNumber,
	}
	if phone != "" {
		filter["case.defendant.phone"] = phone
	}

	cases, err := s.Cases.Find(ctx, filter, nil)
	if err != nil {
		return nil, storeError(op, err).With("idType", idType)
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return cases, nil
}

// ClaimDefendantIdentity binds an account to the defendant slot of a case.
// An occupied slot always reports Conflict, even for the account that holds
// it, and the write is conditional on the slot still being empty, so two
// racing claimants cannot both win.
func (s *Service) ClaimDefendantIdentity(ctx context.Context, caseID, userID string) (*models.Case, error) {
	const op = "caseflow.ClaimDefendantIdentity"

	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid case id").With("caseID", caseID)
	}
	if userID == "" {
		return nil, newError(KindPreconditionFailed, op, "claimant account id is required")
	}

	courtCase, err := s.Cases.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	if courtCase.Details.DefendantUserID != "" {
		return nil, newError(KindConflict, op, "defendant identity already claimed").
			With("caseID", caseID).With("claimedBy", courtCase.Details.DefendantUserID)
	}

	filter := bson.M{"_id": oid, "case.defendantUserID": ""}
	update := bson.M{"$set": bson.M{
		"case.defendantUserID": userID,
		"case.updatedAt":       primitive.NewDateTimeFromTime(s.clock()),
	}}
	res, err := s.Cases.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	if res.MatchedCount == 0 {
		return nil, newError(KindConflict, op, "defendant identity already claimed").With("caseID", caseID)
	}

	return s.Cases.FindOne(ctx, bson.M{"_id": oid})
}
