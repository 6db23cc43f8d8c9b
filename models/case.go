package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Case statuses. The transition rules live in the caseflow package; the
// model only knows the vocabulary.
const (
	CaseStatusPending    = "pending"
	CaseStatusFiled      = "filed"
	CaseStatusActive     = "active"
	CaseStatusScheduled  = "scheduled"
	CaseStatusInProgress = "in_progress"
	CaseStatusOnHold     = "on_hold"
	CaseStatusDismissed  = "dismissed"
	CaseStatusClosed     = "closed"
)

// Judgement decisions
const (
	JudgementApproved = "approved"
	JudgementDenied   = "denied"
	JudgementPartial  = "partial"
)

// Case holds the structure for the cases collection in mongo
type Case struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	Details CaseDetails        `json:"case" bson:"case"`
	Version int32              `json:"__v" bson:"__v"`
}

// CaseDetails holds the structure for the inner case details
type CaseDetails struct {
	// Human-facing case number, assigned at filing and immutable once set
	CaseNumber  string `json:"caseNumber" bson:"caseNumber"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	// Named parties. Defendant identity fields may be filled before any
	// defendant account is linked.
	Plaintiff PartyIdentity `json:"plaintiff" bson:"plaintiff"`
	Defendant PartyIdentity `json:"defendant" bson:"defendant"`

	// Linked accounts
	PlaintiffUserID string `json:"plaintiffUserID" bson:"plaintiffUserID"`
	DefendantUserID string `json:"defendantUserID" bson:"defendantUserID"`

	// Representation. Names are snapshots taken at assignment time, not a
	// live join; see RefreshRepresentationNames.
	PlaintiffLawyer LawyerRef `json:"plaintiffLawyer" bson:"plaintiffLawyer"`
	DefendantLawyer LawyerRef `json:"defendantLawyer" bson:"defendantLawyer"`

	// Judge, set when a hearing is first scheduled
	JudgeID   string `json:"judgeID" bson:"judgeID"`
	JudgeName string `json:"judgeName" bson:"judgeName"`
	Courtroom string `json:"courtroom" bson:"courtroom"`

	Status string `json:"status" bson:"status"`

	// Append-only collections owned by whichever party role added them
	Evidence  []EvidenceItem `json:"evidence" bson:"evidence"`
	Witnesses []Witness      `json:"witnesses" bson:"witnesses"`

	// Write-once, immutable after creation
	Judgement *Judgement `json:"judgement,omitempty" bson:"judgement,omitempty"`

	FiledDate       primitive.DateTime `json:"filedDate,omitempty" bson:"filedDate,omitempty"`
	NextHearingDate primitive.DateTime `json:"nextHearingDate,omitempty" bson:"nextHearingDate,omitempty"`
	CreatedAt       primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt       primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// PartyIdentity is a natural-person identity as named on a case
type PartyIdentity struct {
	Name     string `json:"name" bson:"name"`
	IDType   string `json:"idType" bson:"idType"`
	IDNumber string `json:"idNumber" bson:"idNumber"`
	Phone    string `json:"phone" bson:"phone"`
}

// LawyerRef is a lawyer account reference plus a denormalized name snapshot
type LawyerRef struct {
	UserID string `json:"userID" bson:"userID"`
	Name   string `json:"name" bson:"name"`
}

// EvidenceItem is a single append-only evidence entry. The file itself lives
// in external blob storage; only the reference is kept here.
type EvidenceItem struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description" bson:"description"`
	FileURL     string             `json:"fileURL" bson:"fileURL"`
	AddedByID   string             `json:"addedByID" bson:"addedByID"`
	AddedByRole string             `json:"addedByRole" bson:"addedByRole"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Witness is a single append-only witness entry
type Witness struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Phone       string             `json:"phone" bson:"phone"`
	Statement   string             `json:"statement" bson:"statement"`
	AddedByID   string             `json:"addedByID" bson:"addedByID"`
	AddedByRole string             `json:"addedByRole" bson:"addedByRole"`
	CreatedAt   primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// Judgement is the write-once outcome record embedded in the case
type Judgement struct {
	Decision                  string             `json:"decision" bson:"decision"`
	RulingText                string             `json:"rulingText" bson:"rulingText"`
	JudgeID                   string             `json:"judgeID" bson:"judgeID"`
	JudgeName                 string             `json:"judgeName" bson:"judgeName"`
	Courtroom                 string             `json:"courtroom" bson:"courtroom"`
	PhysicalPresenceConfirmed bool               `json:"physicalPresenceConfirmed" bson:"physicalPresenceConfirmed"`
	IssuedAt                  primitive.DateTime `json:"issuedAt" bson:"issuedAt"`
}
