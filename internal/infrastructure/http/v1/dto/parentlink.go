package dto

import (
	"herptrack/internal/core/id"
	"herptrack/internal/domain/parentlink"
)

// ProposeLinkRequest proposes a father/mother edge between two individuals.
type ProposeLinkRequest struct {
	ChildID  id.ID  `json:"childId" binding:"required"`
	ParentID id.ID  `json:"parentId" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=father mother"`
	Message  string `json:"message"`
}

// ToInput converts to the service input.
func (r ProposeLinkRequest) ToInput() parentlink.ProposeInput {
	return parentlink.ProposeInput{
		ChildID:  r.ChildID,
		ParentID: r.ParentID,
		Role:     parentlink.Role(r.Role),
		Message:  r.Message,
	}
}

// DecideLinkRequest carries the receiver's or requester's decision.
type DecideLinkRequest struct {
	Status       string `json:"status" binding:"required,oneof=approved rejected cancelled"`
	RejectReason string `json:"rejectReason"`
}
