package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Representation request kinds
const (
	RequestKindNewCase = "new_case"
	RequestKindDefense = "defense"
)

// Representation request statuses. A request is mutated exactly once, to
// accepted or rejected, and never again.
const (
	RequestStatusPending  = "pending"
	RequestStatusAccepted = "accepted"
	RequestStatusRejected = "rejected"
)

// RepresentationRequest holds the structure for the representationRequests
// collection in mongo
type RepresentationRequest struct {
	ID      primitive.ObjectID           `json:"_id" bson:"_id"`
	Details RepresentationRequestDetails `json:"request" bson:"request"`
	Version int32                        `json:"__v" bson:"__v"`
}

// RepresentationRequestDetails holds the inner request details
type RepresentationRequestDetails struct {
	ClientID    string `json:"clientID" bson:"clientID"`
	LawyerID    string `json:"lawyerID" bson:"lawyerID"`
	Kind        string `json:"kind" bson:"kind"`
	Description string `json:"description" bson:"description"`

	// Set only for defense requests
	CaseID string `json:"caseID,omitempty" bson:"caseID,omitempty"`

	Status     string             `json:"status" bson:"status"`
	ResolvedAt primitive.DateTime `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	CreatedAt  primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt  primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}
