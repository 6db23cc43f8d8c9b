package caseflow

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/lexflow/lexflow-api/models"
)

// CreateRequestInput carries the caller-supplied fields for a new
// representation request
type CreateRequestInput struct {
	ClientID    string `json:"clientID"`
	LawyerID    string `json:"lawyerID"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	CaseID      string `json:"caseID,omitempty"`
}

// CreateRequest records a pending representation request from a client to a
// lawyer. Defense requests must reference an existing case; new-case
// requests must not reference one.
func (s *Service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.RepresentationRequest, error) {
	const op = "caseflow.CreateRequest"

	if input.ClientID == "" || input.LawyerID == "" {
		return nil, newError(KindPreconditionFailed, op, "client and lawyer ids are required")
	}

	lawyer, err := s.findUser(ctx, op, input.LawyerID)
	if err != nil {
		return nil, err
	}
	if lawyer.Details.Role != models.RoleLawyer {
		return nil, newError(KindPreconditionFailed, op, "target account is not a lawyer").
			With("lawyerID", input.LawyerID).With("role", lawyer.Details.Role)
	}

	switch input.Kind {
	case models.RequestKindNewCase:
		if input.CaseID != "" {
			return nil, newError(KindPreconditionFailed, op, "a new-case request cannot reference a case")
		}
	case models.RequestKindDefense:
		if input.CaseID == "" {
			return nil, newError(KindPreconditionFailed, op, "a defense request must reference a case")
		}
		courtCase, err := s.GetCaseByID(ctx, input.CaseID)
		if err != nil {
			return nil, err
		}
		if isTerminal(courtCase.Details.Status) {
			return nil, newError(KindPreconditionFailed, op, "case is %s and cannot take on defense counsel", courtCase.Details.Status).
				With("caseID", input.CaseID)
		}
	default:
		return nil, newError(KindPreconditionFailed, op, "unknown request kind %q", input.Kind)
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	request := models.RepresentationRequest{
		ID: primitive.NewObjectID(),
		Details: models.RepresentationRequestDetails{
			ClientID:    input.ClientID,
			LawyerID:    input.LawyerID,
			Kind:        input.Kind,
			Description: input.Description,
			CaseID:      input.CaseID,
			Status:      models.RequestStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	if _, err := s.Requests.InsertOne(ctx, request); err != nil {
		return nil, storeError(op, err)
	}
	return &request, nil
}

// ResolveRequest records the lawyer's accept/reject decision and, on accept,
// runs the follow-on writes in order: a defense acceptance binds the lawyer
// and client to the case first, then the client joins the lawyer's roster.
// Each write lands on one document; a failure after the decision has
// committed surfaces as PartiallyApplied with the applied steps attached,
// and re-resolving later reports AlreadyResolved.
func (s *Service) ResolveRequest(ctx context.Context, requestID, decision string) (*models.RepresentationRequest, error) {
	const op = "caseflow.ResolveRequest"

	if decision != models.RequestStatusAccepted && decision != models.RequestStatusRejected {
		return nil, newError(KindPreconditionFailed, op, "decision must be %s or %s", models.RequestStatusAccepted, models.RequestStatusRejected)
	}

	oid, err := primitive.ObjectIDFromHex(requestID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid request id").With("requestID", requestID)
	}
	request, err := s.Requests.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("requestID", requestID)
	}
	if request.Details.Status != models.RequestStatusPending {
		return nil, newError(KindAlreadyResolved, op, "request already %s", request.Details.Status).
			With("requestID", requestID).With("status", request.Details.Status)
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	update := bson.M{"$set": bson.M{
		"request.status":     decision,
		"request.resolvedAt": now,
		"request.updatedAt":  now,
	}}
	if _, err := s.Requests.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return nil, storeError(op, err).With("requestID", requestID)
	}

	if decision == models.RequestStatusRejected {
		return s.Requests.FindOne(ctx, bson.M{"_id": oid})
	}

	applied := "request resolved"
	if request.Details.Kind == models.RequestKindDefense {
		if err := s.bindDefenseCounsel(ctx, request, now); err != nil {
			return nil, partialError(op, applied, err).With("requestID", requestID).With("caseID", request.Details.CaseID)
		}
		applied += ", case updated"
	}

	if err := s.addClientToRoster(ctx, request.Details.LawyerID, request.Details.ClientID); err != nil {
		return nil, partialError(op, applied, err).With("requestID", requestID)
	}

	return s.Requests.FindOne(ctx, bson.M{"_id": oid})
}

// addClientToRoster is idempotent: $addToSet leaves the roster unchanged
// when the client is already on it
func (s *Service) addClientToRoster(ctx context.Context, lawyerID, clientID string) error {
	oid, err := primitive.ObjectIDFromHex(lawyerID)
	if err != nil {
		return newError(KindNotFound, "caseflow.addClientToRoster", "invalid lawyer id").With("lawyerID", lawyerID)
	}
	_, err = s.Users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$addToSet": bson.M{"user.clients": clientID},
	})
	return err
}

// bindDefenseCounsel writes the accepted lawyer into the case's defendant
// side. The defendant account slot is set to the request's client, replacing
// any earlier identity claim with the resolved client's canonical id. When
// the binding completes a pending case whose plaintiff side is already
// represented, the case advances to filed in the same write.
func (s *Service) bindDefenseCounsel(ctx context.Context, request *models.RepresentationRequest, now primitive.DateTime) error {
	const op = "caseflow.bindDefenseCounsel"

	caseOID, err := primitive.ObjectIDFromHex(request.Details.CaseID)
	if err != nil {
		return newError(KindNotFound, op, "invalid case id").With("caseID", request.Details.CaseID)
	}
	courtCase, err := s.Cases.FindOne(ctx, bson.M{"_id": caseOID})
	if err != nil {
		return storeError(op, err).With("caseID", request.Details.CaseID)
	}
	if isTerminal(courtCase.Details.Status) {
		return newError(KindInvalidTransition, op, "case is %s and no longer mutable", courtCase.Details.Status).
			With("caseID", request.Details.CaseID)
	}

	lawyer, err := s.findUser(ctx, op, request.Details.LawyerID)
	if err != nil {
		return err
	}

	setFields := bson.M{
		"case.defendantLawyer": models.LawyerRef{UserID: request.Details.LawyerID, Name: lawyer.Details.Name},
		"case.defendantUserID": request.Details.ClientID,
		"case.updatedAt":       now,
	}
	if courtCase.Details.DefendantUserID != "" && courtCase.Details.DefendantUserID != request.Details.ClientID {
		zap.S().Warnw("defense acceptance replaces an identity claim by another account",
			"caseID", request.Details.CaseID,
			"claimedBy", courtCase.Details.DefendantUserID,
			"requestClientID", request.Details.ClientID)
	}
	if courtCase.Details.Status == models.CaseStatusPending && courtCase.Details.PlaintiffLawyer.UserID != "" {
		setFields["case.status"] = models.CaseStatusFiled
		setFields["case.filedDate"] = now
		if courtCase.Details.CaseNumber == "" {
			number, err := s.nextCaseNumber(ctx)
			if err != nil {
				return storeError(op, err).With("caseID", request.Details.CaseID)
			}
			setFields["case.caseNumber"] = number
		}
	}

	if _, err := s.Cases.UpdateOne(ctx, bson.M{"_id": caseOID}, bson.M{"$set": setFields}); err != nil {
		return storeError(op, err).With("caseID", request.Details.CaseID)
	}
	return nil
}
