package domain

import "context"

type AccessRequest struct {
	// UserID may be empty for anonymous visitors; they are simply not
	// entitled rather than rejected.
	UserID   string
	CourseID string
}

type AccessDecision struct {
	Entitled bool   `json:"entitled"`
	Reason   string `json:"reason,omitempty"`
}

const (
	ReasonFreeCourse   = "free_course"
	ReasonPurchased    = "purchased"
	ReasonNotPurchased = "not_purchased"
	ReasonAnonymous    = "anonymous"
)

type Service interface {
	Entitled(context.Context, AccessRequest) (AccessDecision, error)
}
