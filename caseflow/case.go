package caseflow

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/lexflow/lexflow-api/models"
)

// allowedTransitions is the full status transition table. Any attempt
// outside it fails with InvalidTransition and leaves the stored status
// unchanged. dismissed and closed are terminal.
var allowedTransitions = map[string][]string{
	models.CaseStatusPending:    {models.CaseStatusFiled},
	models.CaseStatusFiled:      {models.CaseStatusScheduled},
	models.CaseStatusScheduled:  {models.CaseStatusInProgress, models.CaseStatusOnHold, models.CaseStatusDismissed, models.CaseStatusClosed},
	models.CaseStatusInProgress: {models.CaseStatusOnHold, models.CaseStatusScheduled, models.CaseStatusClosed},
	models.CaseStatusOnHold:     {models.CaseStatusScheduled, models.CaseStatusDismissed, models.CaseStatusClosed},
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func isTerminal(status string) bool {
	return status == models.CaseStatusDismissed || status == models.CaseStatusClosed
}

// fields that only the engine itself may write
var protectedCaseFields = map[string]bool{
	"_id":        true,
	"caseNumber": true,
	"judgement":  true,
	"evidence":   true,
	"witnesses":  true,
	"filedDate":  true,
	"createdAt":  true,
	"updatedAt":  true,
}

// CreateCaseInput carries the caller-supplied fields for a new case
type CreateCaseInput struct {
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Plaintiff       models.PartyIdentity `json:"plaintiff"`
	Defendant       models.PartyIdentity `json:"defendant"`
	PlaintiffUserID string               `json:"plaintiffUserID"`
}

// CreateCase persists a new case in pending status. The case number is not
// assigned here; it is stamped once at the pending->filed transition.
func (s *Service) CreateCase(ctx context.Context, input CreateCaseInput) (*models.Case, error) {
	const op = "caseflow.CreateCase"

	if input.PlaintiffUserID == "" {
		return nil, newError(KindPreconditionFailed, op, "plaintiff account id is required")
	}
	if input.Plaintiff.Name == "" {
		return nil, newError(KindPreconditionFailed, op, "plaintiff name is required")
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	courtCase := models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			Title:           input.Title,
			Description:     input.Description,
			Plaintiff:       input.Plaintiff,
			Defendant:       input.Defendant,
			PlaintiffUserID: input.PlaintiffUserID,
			Status:          models.CaseStatusPending,
			Evidence:        []models.EvidenceItem{},
			Witnesses:       []models.Witness{},
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}

	if _, err := s.Cases.InsertOne(ctx, courtCase); err != nil {
		return nil, storeError(op, err)
	}
	return &courtCase, nil
}

// UpdateCase applies field-level updates plus a status transition (if status
// is included) as one single-document write. Date-valued fields are
// normalized to the store's native timestamp type; a value that cannot be
// parsed as a date is dropped from the update with a warning rather than
// failing the whole write. Always stamps updatedAt.
func (s *Service) UpdateCase(ctx context.Context, caseID string, fields map[string]interface{}) (*models.Case, error) {
	const op = "caseflow.UpdateCase"

	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid case id").With("caseID", caseID)
	}
	courtCase, err := s.Cases.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}

	if isTerminal(courtCase.Details.Status) {
		return nil, newError(KindInvalidTransition, op, "case is %s and no longer mutable", courtCase.Details.Status).
			With("caseID", caseID).With("status", courtCase.Details.Status)
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	setFields := bson.M{}
	for key, value := range fields {
		if key == "status" {
			continue
		}
		if protectedCaseFields[rootField(key)] {
			zap.S().Warnw("dropping protected field from case update", "field", key, "caseID", caseID)
			continue
		}
		if isDateField(key) {
			dt, ok := normalizeDate(value)
			if !ok {
				zap.S().Warnw("dropping unparseable date field from case update", "field", key, "caseID", caseID)
				continue
			}
			value = dt
		}
		setFields["case."+key] = value
	}

	if raw, ok := fields["status"]; ok {
		target, ok := raw.(string)
		if !ok {
			return nil, newError(KindInvalidTransition, op, "status must be a string").With("caseID", caseID)
		}
		if err := s.checkTransition(ctx, op, courtCase, fields, target); err != nil {
			return nil, err
		}
		setFields["case.status"] = target
		if target == models.CaseStatusFiled {
			setFields["case.filedDate"] = now
			if courtCase.Details.CaseNumber == "" {
				number, err := s.nextCaseNumber(ctx)
				if err != nil {
					return nil, storeError(op, err).With("caseID", caseID)
				}
				setFields["case.caseNumber"] = number
			}
		}
	}

	setFields["case.updatedAt"] = now

	if _, err := s.Cases.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": setFields}); err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}

	updated, err := s.Cases.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	return updated, nil
}

// checkTransition validates the table plus the required co-fields for the
// target status. Co-fields may arrive in the same update call, so lookups
// consult the pending fields before the stored document.
func (s *Service) checkTransition(ctx context.Context, op string, courtCase *models.Case, fields map[string]interface{}, target string) error {
	current := courtCase.Details.Status
	if !transitionAllowed(current, target) {
		return newError(KindInvalidTransition, op, "cannot transition from %s to %s", current, target).
			With("caseID", courtCase.ID.Hex()).With("from", current).With("to", target)
	}

	switch target {
	case models.CaseStatusFiled:
		plaintiffLawyer := lookupString(fields, "plaintiffLawyer.userID", courtCase.Details.PlaintiffLawyer.UserID)
		defendantLawyer := lookupString(fields, "defendantLawyer.userID", courtCase.Details.DefendantLawyer.UserID)
		if plaintiffLawyer == "" || defendantLawyer == "" {
			return newError(KindPreconditionFailed, op, "filing requires both a plaintiff and a defendant lawyer").
				With("caseID", courtCase.ID.Hex()).With("to", target)
		}
	case models.CaseStatusScheduled:
		judgeID := lookupString(fields, "judgeID", courtCase.Details.JudgeID)
		courtroom := lookupString(fields, "courtroom", courtCase.Details.Courtroom)
		if judgeID == "" || courtroom == "" {
			return newError(KindPreconditionFailed, op, "scheduling requires a judge and a courtroom").
				With("caseID", courtCase.ID.Hex()).With("to", target)
		}
		count, err := s.Hearings.CountDocuments(ctx, bson.M{"hearing.caseID": courtCase.ID.Hex()})
		if err != nil {
			return storeError(op, err).With("caseID", courtCase.ID.Hex())
		}
		if count == 0 {
			return newError(KindPreconditionFailed, op, "scheduling requires at least one hearing").
				With("caseID", courtCase.ID.Hex()).With("to", target)
		}
	case models.CaseStatusClosed:
		if courtCase.Details.Judgement == nil {
			return newError(KindPreconditionFailed, op, "closing requires a judgement").
				With("caseID", courtCase.ID.Hex()).With("to", target)
		}
	}
	return nil
}

// DismissCase is the administrative dismissal path. It routes through the
// transition table, so it is only valid from scheduled or on_hold.
func (s *Service) DismissCase(ctx context.Context, caseID, actorID, reason string) (*models.Case, error) {
	zap.S().Infow("administrative dismissal requested", "caseID", caseID, "actorID", actorID, "reason", reason)
	return s.UpdateCase(ctx, caseID, map[string]interface{}{"status": models.CaseStatusDismissed})
}

// AddEvidence appends an evidence entry to the case. Evidence lists are
// append-only and become read-only once the case is terminal.
func (s *Service) AddEvidence(ctx context.Context, caseID string, item models.EvidenceItem) (*models.Case, error) {
	return s.appendToCaseList(ctx, "caseflow.AddEvidence", caseID, "case.evidence", func(now primitive.DateTime) interface{} {
		item.ID = primitive.NewObjectID()
		item.CreatedAt = now
		return item
	})
}

// AddWitness appends a witness entry to the case
func (s *Service) AddWitness(ctx context.Context, caseID string, witness models.Witness) (*models.Case, error) {
	return s.appendToCaseList(ctx, "caseflow.AddWitness", caseID, "case.witnesses", func(now primitive.DateTime) interface{} {
		witness.ID = primitive.NewObjectID()
		witness.CreatedAt = now
		return witness
	})
}

func (s *Service) appendToCaseList(ctx context.Context, op, caseID, field string, build func(now primitive.DateTime) interface{}) (*models.Case, error) {
	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid case id").With("caseID", caseID)
	}
	courtCase, err := s.Cases.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	if isTerminal(courtCase.Details.Status) {
		return nil, newError(KindInvalidTransition, op, "case is %s and no longer mutable", courtCase.Details.Status).
			With("caseID", caseID).With("status", courtCase.Details.Status)
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	update := bson.M{
		"$push": bson.M{field: build(now)},
		"$set":  bson.M{"case.updatedAt": now},
	}
	if _, err := s.Cases.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	return s.Cases.FindOne(ctx, bson.M{"_id": oid})
}

// RefreshRepresentationNames re-copies the denormalized lawyer and judge
// name snapshots from the user records. Snapshots otherwise reflect the
// value at assignment time, not a live join.
func (s *Service) RefreshRepresentationNames(ctx context.Context, caseID string) (*models.Case, error) {
	const op = "caseflow.RefreshRepresentationNames"

	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid case id").With("caseID", caseID)
	}
	courtCase, err := s.Cases.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}

	setFields := bson.M{}
	refresh := func(userID, field string) error {
		if userID == "" {
			return nil
		}
		user, err := s.findUser(ctx, op, userID)
		if err != nil {
			return err
		}
		setFields[field] = user.Details.Name
		return nil
	}
	if err := refresh(courtCase.Details.PlaintiffLawyer.UserID, "case.plaintiffLawyer.name"); err != nil {
		return nil, err
	}
	if err := refresh(courtCase.Details.DefendantLawyer.UserID, "case.defendantLawyer.name"); err != nil {
		return nil, err
	}
	if err := refresh(courtCase.Details.JudgeID, "case.judgeName"); err != nil {
		return nil, err
	}
	if len(setFields) == 0 {
		return courtCase, nil
	}

	setFields["case.updatedAt"] = primitive.NewDateTimeFromTime(s.clock())
	if _, err := s.Cases.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": setFields}); err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	return s.Cases.FindOne(ctx, bson.M{"_id": oid})
}

// nextCaseNumber derives the next human-facing case number from the
// collection count. Uniqueness relies on the single filing path.
func (s *Service) nextCaseNumber(ctx context.Context) (string, error) {
	count, err := s.Cases.CountDocuments(ctx, bson.M{"case.caseNumber": bson.M{"$ne": ""}})
	if err != nil {
		return "", err
	}
	return BuildCaseNumber(s.clock().Year(), count+1), nil
}

func rootField(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			return key[:i]
		}
	}
	return key
}

// lookupString resolves a merged view of a string field: the pending update
// first (flat dotted key or nested map), then the stored value.
func lookupString(fields map[string]interface{}, key, stored string) string {
	if v, ok := fields[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	root := rootField(key)
	if root != key {
		if sub, ok := fields[root].(map[string]interface{}); ok {
			if v, ok := sub[key[len(root)+1:]].(string); ok {
				return v
			}
		}
	}
	return stored
}

// isDateField reports whether an update key is date-valued by naming
// convention (the record shape uses Date/At suffixes throughout).
func isDateField(key string) bool {
	return hasSuffix(key, "Date") || hasSuffix(key, "At") || key == "date"
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

// normalizeDate coerces the supported caller representations to the store's
// native timestamp type: RFC3339 or date-only strings, epoch milliseconds,
// time.Time, or an already-native value.
func normalizeDate(value interface{}) (primitive.DateTime, bool) {
	switch v := value.(type) {
	case primitive.DateTime:
		return v, true
	case time.Time:
		return primitive.NewDateTimeFromTime(v), true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return primitive.NewDateTimeFromTime(t), true
			}
		}
		return 0, false
	case float64:
		return primitive.DateTime(int64(v)), true
	case int64:
		return primitive.DateTime(v), true
	case int:
		return primitive.DateTime(int64(v)), true
	default:
		return 0, false
	}
}

// BuildCaseNumber formats a human-facing case number: CV-<year>-<sequence>
func BuildCaseNumber(year int, sequence int64) string {
	return fmt.Sprintf("CV-%d-%06d", year, sequence)
}
