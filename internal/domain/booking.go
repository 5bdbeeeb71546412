package domain

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingDeclined  BookingStatus = "declined"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          string        `json:"_id"`
	CustomerID  string        `json:"customerId"`
	ProviderID  string        `json:"providerId"`
	Service     string        `json:"service"`
	Note        string        `json:"note,omitempty"`
	Status      BookingStatus `json:"status"`
	ScheduledAt time.Time     `json:"scheduledAt"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
