package caseflow

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lexflow/lexflow-api/models"
)

// ScheduleHearingInput carries the caller-supplied fields for a new hearing.
// JudgeID may be omitted when the case already has an assigned judge.
type ScheduleHearingInput struct {
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	JudgeID     string    `json:"judgeID,omitempty"`
}

// ScheduleHearing creates a hearing for a filed case and folds the
// scheduling data back into the case: judge assignment, courtroom, next
// hearing date, and the filed->scheduled advance. The hearing insert commits
// first; a case update failure after that surfaces as PartiallyApplied.
func (s *Service) ScheduleHearing(ctx context.Context, caseID string, input ScheduleHearingInput) (*models.Hearing, error) {
	const op = "caseflow.ScheduleHearing"

	courtCase, err := s.GetCaseByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if isTerminal(courtCase.Details.Status) {
		return nil, newError(KindInvalidTransition, op, "case is %s and no longer mutable", courtCase.Details.Status).
			With("caseID", caseID).With("status", courtCase.Details.Status)
	}
	if courtCase.Details.Status == models.CaseStatusPending {
		return nil, newError(KindPreconditionFailed, op, "case has not been filed yet").With("caseID", caseID)
	}
	if input.Date.IsZero() {
		return nil, newError(KindPreconditionFailed, op, "hearing date is required").With("caseID", caseID)
	}
	if input.Location == "" {
		return nil, newError(KindPreconditionFailed, op, "hearing location is required").With("caseID", caseID)
	}

	judgeID := input.JudgeID
	if judgeID == "" {
		judgeID = courtCase.Details.JudgeID
	}
	if judgeID == "" {
		return nil, newError(KindPreconditionFailed, op, "a judge is required to schedule a hearing").With("caseID", caseID)
	}
	judge, err := s.findUser(ctx, op, judgeID)
	if err != nil {
		return nil, err
	}
	if judge.Details.Role != models.RoleJudge {
		return nil, newError(KindPreconditionFailed, op, "assigned account is not a judge").
			With("judgeID", judgeID).With("role", judge.Details.Role)
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	hearing := models.Hearing{
		ID: primitive.NewObjectID(),
		Details: models.HearingDetails{
			CaseID:            caseID,
			Date:              primitive.NewDateTimeFromTime(input.Date),
			Location:          input.Location,
			Description:       input.Description,
			Status:            models.HearingStatusScheduled,
			Participants:      participantSnapshot(courtCase, judgeID),
			RescheduleHistory: []models.RescheduleEntry{},
			CreatedAt:         now,
			UpdatedAt:         now,
		},
	}
	if _, err := s.Hearings.InsertOne(ctx, hearing); err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}

	setFields := bson.M{
		"case.judgeID":   judgeID,
		"case.judgeName": judge.Details.Name,
		"case.courtroom": input.Location,
		"case.updatedAt": now,
	}
	if next := earlierOf(courtCase.Details.NextHearingDate, hearing.Details.Date); next != courtCase.Details.NextHearingDate {
		setFields["case.nextHearingDate"] = next
	}
	if courtCase.Details.Status == models.CaseStatusFiled {
		setFields["case.status"] = models.CaseStatusScheduled
	}
	if _, err := s.Cases.UpdateOne(ctx, bson.M{"_id": courtCase.ID}, bson.M{"$set": setFields}); err != nil {
		return nil, partialError(op, "hearing created", err).With("caseID", caseID).With("hearingID", hearing.ID.Hex())
	}

	return &hearing, nil
}

// RescheduleHearing moves a hearing to a new date, appending the move to the
// hearing's history in the same write. The case's next hearing date is then
// recomputed; if that second write fails the move itself has still landed
// and the caller sees PartiallyApplied.
func (s *Service) RescheduleHearing(ctx context.Context, hearingID string, newDate time.Time, reason, actorID string) (*models.Hearing, error) {
	const op = "caseflow.RescheduleHearing"

	oid, err := primitive.ObjectIDFromHex(hearingID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid hearing id").With("hearingID", hearingID)
	}
	if newDate.IsZero() {
		return nil, newError(KindPreconditionFailed, op, "new hearing date is required").With("hearingID", hearingID)
	}
	hearing, err := s.Hearings.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, storeError(op, err).With("hearingID", hearingID)
	}

	courtCase, err := s.GetCaseByID(ctx, hearing.Details.CaseID)
	if err != nil {
		return nil, err
	}
	if isTerminal(courtCase.Details.Status) {
		return nil, newError(KindInvalidTransition, op, "case is %s and no longer mutable", courtCase.Details.Status).
			With("caseID", hearing.Details.CaseID).With("status", courtCase.Details.Status)
	}

	now := primitive.NewDateTimeFromTime(s.clock())
	entry := models.RescheduleEntry{
		PreviousDate:  CurrentDate(hearing),
		NewDate:       primitive.NewDateTimeFromTime(newDate),
		Reason:        reason,
		ActorID:       actorID,
		RescheduledAt: now,
	}
	update := bson.M{
		"$push": bson.M{"hearing.rescheduleHistory": entry},
		"$set": bson.M{
			"hearing.date":        entry.NewDate,
			"hearing.rescheduled": true,
			"hearing.updatedAt":   now,
		},
	}
	if _, err := s.Hearings.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return nil, storeError(op, err).With("hearingID", hearingID)
	}

	if _, err := s.RefreshNextHearingDate(ctx, hearing.Details.CaseID); err != nil {
		return nil, partialError(op, "hearing rescheduled", err).
			With("hearingID", hearingID).With("caseID", hearing.Details.CaseID)
	}

	return s.Hearings.FindOne(ctx, bson.M{"_id": oid})
}

// RefreshNextHearingDate recomputes the case's denormalized next hearing
// date from its non-cancelled upcoming hearings. With none left the field
// is cleared.
func (s *Service) RefreshNextHearingDate(ctx context.Context, caseID string) (*models.Case, error) {
	const op = "caseflow.RefreshNextHearingDate"

	oid, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		return nil, newError(KindNotFound, op, "invalid case id").With("caseID", caseID)
	}
	hearings, err := s.Hearings.Find(ctx, bson.M{"hearing.caseID": caseID}, nil)
	if err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}

	var next primitive.DateTime
	ref := s.clock()
	for i := range hearings {
		h := &hearings[i]
		if h.Details.Status == models.HearingStatusCancelled {
			continue
		}
		current := CurrentDate(h)
		if !IsUpcoming(h, ref) {
			continue
		}
		next = earlierOf(next, current)
	}

	now := primitive.NewDateTimeFromTime(ref)
	update := bson.M{"$set": bson.M{"case.updatedAt": now}}
	if next == 0 {
		update["$unset"] = bson.M{"case.nextHearingDate": ""}
	} else {
		update["$set"].(bson.M)["case.nextHearingDate"] = next
	}
	if _, err := s.Cases.UpdateOne(ctx, bson.M{"_id": oid}, update); err != nil {
		return nil, storeError(op, err).With("caseID", caseID)
	}
	return s.Cases.FindOne(ctx, bson.M{"_id": oid})
}

// CurrentDate returns the hearing's effective date: the most recent
// reschedule target, or the original date if never rescheduled.
func CurrentDate(h *models.Hearing) primitive.DateTime {
	if n := len(h.Details.RescheduleHistory); n > 0 {
		return h.Details.RescheduleHistory[n-1].NewDate
	}
	return h.Details.Date
}

// IsToday reports whether the hearing falls on the same calendar day as ref
func IsToday(h *models.Hearing, ref time.Time) bool {
	return sameDay(CurrentDate(h).Time(), ref)
}

// IsTomorrow reports whether the hearing falls on the calendar day after ref
func IsTomorrow(h *models.Hearing, ref time.Time) bool {
	return sameDay(CurrentDate(h).Time(), ref.AddDate(0, 0, 1))
}

// IsUpcoming reports whether the hearing falls on ref's day or later.
// A hearing earlier the same day still counts as upcoming.
func IsUpcoming(h *models.Hearing, ref time.Time) bool {
	return !CurrentDate(h).Time().Before(startOfDay(ref))
}

// IsPast reports whether the hearing's day is entirely behind ref
func IsPast(h *models.Hearing, ref time.Time) bool {
	return CurrentDate(h).Time().Before(startOfDay(ref))
}

// SortHearings orders hearings ascending by their current date, keeping the
// existing order for equal dates
func SortHearings(hearings []models.Hearing) {
	sort.SliceStable(hearings, func(i, j int) bool {
		return CurrentDate(&hearings[i]) < CurrentDate(&hearings[j])
	})
}

func participantSnapshot(courtCase *models.Case, judgeID string) []string {
	participants := []string{}
	for _, id := range []string{
		courtCase.Details.PlaintiffUserID,
		courtCase.Details.DefendantUserID,
		courtCase.Details.PlaintiffLawyer.UserID,
		courtCase.Details.DefendantLawyer.UserID,
		judgeID,
	} {
		if id != "" {
			participants = append(participants, id)
		}
	}
	return participants
}

// earlierOf treats the zero value as unset
func earlierOf(a, b primitive.DateTime) primitive.DateTime {
	if a == 0 {
		return b
	}
	if b == 0 || a < b {
		return a
	}
	return b
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
