package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Hearing statuses
const (
	HearingStatusScheduled = "scheduled"
	HearingStatusCompleted = "completed"
	HearingStatusCancelled = "cancelled"
)

// Hearing holds the structure for the hearings collection in mongo
type Hearing struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details HearingDetails     `json:"hearing" bson:"hearing"`
	Version int32              `json:"__v" bson:"__v"`
}

// HearingDetails holds the inner hearing details
type HearingDetails struct {
	CaseID      string             `json:"caseID" bson:"caseID"`
	Date        primitive.DateTime `json:"date" bson:"date"`
	Location    string             `json:"location" bson:"location"`
	Description string             `json:"description" bson:"description"`
	Status      string             `json:"status" bson:"status"`

	// Participant ids snapshotted from the case at creation time. Later
	// lawyer reassignment does not retroactively change this list.
	Participants []string `json:"participants" bson:"participants"`

	Rescheduled       bool              `json:"rescheduled" bson:"rescheduled"`
	RescheduleHistory []RescheduleEntry `json:"rescheduleHistory" bson:"rescheduleHistory"`

	// Stamped by the reminder scheduler once a reminder has gone out
	ReminderSentAt primitive.DateTime `json:"reminderSentAt,omitempty" bson:"reminderSentAt,omitempty"`

	CreatedAt primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// RescheduleEntry records one rescheduling of a hearing. Entries are
// append-only; the current date is always the most recent entry's NewDate,
// or the original date if never rescheduled.
type RescheduleEntry struct {
	PreviousDate  primitive.DateTime `json:"previousDate" bson:"previousDate"`
	NewDate       primitive.DateTime `json:"newDate" bson:"newDate"`
	Reason        string             `json:"reason" bson:"reason"`
	ActorID       string             `json:"actorID" bson:"actorID"`
	RescheduledAt primitive.DateTime `json:"rescheduledAt" bson:"rescheduledAt"`
}
