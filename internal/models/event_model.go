package models

import "time"

// SellerApprovedEventType is the routing name of the promotion event.
const SellerApprovedEventType = "seller.approved"

// SellerApprovedEvent is published once a member becomes an approved seller.
type SellerApprovedEvent struct {
	Type       string    `json:"type"`
	MemberID   string    `json:"memberId"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	ApprovedAt time.Time `json:"approvedAt"`
}
