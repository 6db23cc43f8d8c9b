package caseflow

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lexflow/lexflow-api/models"
)

// IssueJudgementInput carries the judge's ruling
type IssueJudgementInput struct {
	JudgeID                   string `json:"judgeID"`
	Decision                  string `json:"decision"`
	RulingText                string `json:"rulingText"`
	Courtroom                 string `json:"courtroomNumber"`
	PhysicalPresenceConfirmed bool   `json:"physicalPresenceConfirmed"`

	// CloseCase also advances the case to closed in the same write
	CloseCase bool `json:"closeCase"`
}

func validJudgementDecision(decision string) bool {
	switch decision {
	case models.JudgementApproved, models.JudgementDenied, models.JudgementPartial:
		return true
	}
	return false
}

// IssueJudgement embeds the write-once judgement record into the case. The
// ruling account must hold the judge role, physical presence in the named
// courtroom must be confirmed (a caller-asserted policy control, recorded as
// given), and the case must be scheduled, in progress, or on hold; any
// violation is Forbidden. The write is conditional on no judgement existing
// yet, so a second ruling always loses with Conflict.
func (s *Service) IssueJudgement(ctx context.Context, caseID string, input IssueJudgementInput) (*models.Case, error) {
	const op = "caseflow.IssueJudgement"

	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid case id").With("caseID", caseID)
	}
	courtCase, err := s.Cases.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}

	if courtCase.Details.Judgement != nil {
		return nil, newError(KindConflict, op, "judgement already issued").With("caseID", caseID)
	}
	switch courtCase.Details.Status {
	case models.CaseStatusScheduled, models.CaseStatusInProgress, models.CaseStatusOnHold:
	default:
		return nil, newError(KindForbidden, op, "cannot rule on a %s case", courtCase.Details.Status).
			With("caseID", caseID).With("status", courtCase.Details.Status)
	}
	if input.JudgeID == "" {
		return nil, newError(KindForbidden, op, "ruling judge id is required").With("caseID", caseID)
	}
	judge, err := s.findUser(ctx, op, input.JudgeID)
	if err != nil {
		return nil, err
	}
	if judge.Details.Role != models.RoleJudge {
		return nil, newError(KindForbidden, op, "ruling account is not a judge").
			With("judgeID", input.JudgeID).With("role", judge.Details.Role)
	}
	if !input.PhysicalPresenceConfirmed {
		return nil, newError(KindForbidden, op, "physical presence must be confirmed").With("caseID", caseID)
	}
	if !validJudgementDecision(input.Decision) {
		return nil, newError(KindForbidden, op, "unknown decision %q", input.Decision).With("caseID", caseID)
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	judgement := models.Judgement{
		Decision:                  input.Decision,
		RulingText:                input.RulingText,
		JudgeID:                   input.JudgeID,
		JudgeName:                 judge.Details.Name,
		Courtroom:                 input.Courtroom,
		PhysicalPresenceConfirmed: true,
		IssuedAt:                  now,
	}
	setFields := bson.M{
		"case.judgement": judgement,
		"case.updatedAt": now,
	}
	if input.CloseCase {
		setFields["case.status"] = models.CaseStatusClosed
	}

	// nil matches a missing field too, so a racing second ruling cannot land
	filter := bson.M{"_id": oid, "case.judgement": nil}
	res, err := s.Cases.UpdateOne(ctx, filter, bson.M{"$set": setFields})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	if res.MatchedCount == 0 {
		return nil, newError(KindConflict, op, "judgement already issued").With("caseID", caseID)
	}

	return s.Cases.FindOne(ctx, bson.M{"_id": oid})
}
