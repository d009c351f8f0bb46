package models

import "time"

const (
	InquiryGeneral     = "general"
	InquiryBooking     = "booking"
	InquirySupport     = "support"
	InquiryPartnership = "partnership"
	InquiryFeedback    = "feedback"
)

// InquiryTypes lists the contact form choices in display order.
var InquiryTypes = []string{InquiryGeneral, InquiryBooking, InquirySupport, InquiryPartnership, InquiryFeedback}

type Inquiry struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	InquiryType string    `json:"inquiry_type"`
	SessionID   string    `json:"session_id,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}
