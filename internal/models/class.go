package models

import "time"

// ClassStatus represents the review lifecycle of a class listing.
type ClassStatus string

const (
	ClassStatusPending  ClassStatus = "pending"
	ClassStatusApproved ClassStatus = "approved"
	ClassStatusDenied   ClassStatus = "denied"
)

// Class represents a class listing in the catalog. AvailableSeat never
// goes negative: the only write path that decrements it is the
// conditional update in ClassRepository.ReserveSeat.
type Class struct {
	ID              string      `db:"id" json:"id"`
	Name            string      `db:"name" json:"name"`
	Image           string      `db:"image" json:"image,omitempty"`
	InstructorID    string      `db:"instructor_id" json:"instructor_id"`
	InstructorName  string      `db:"instructor_name" json:"instructor_name"`
	InstructorEmail string      `db:"instructor_email" json:"instructor_email"`
	Status          ClassStatus `db:"status" json:"status"`
	AvailableSeat   int         `db:"available_seat" json:"available_seat"`
	Enrolled        int         `db:"enrolled" json:"enrolled"`
	Price           float64     `db:"price" json:"price"`
	Feedback        *string     `db:"feedback" json:"feedback,omitempty"`
	CreatedAt       time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Status          ClassStatus
	InstructorEmail string
	Limit           int
}
