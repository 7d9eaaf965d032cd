package models

import "time"

// CartItem is a transient selection of a class by a student. The
// (class_id, email) pair is unique at the store level.
type CartItem struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartItemDetail enriches a cart item with catalog info for display.
type CartItemDetail struct {
	CartItem
	ClassName      string  `db:"class_name" json:"class_name"`
	Image          string  `db:"image" json:"image,omitempty"`
	InstructorName string  `db:"instructor_name" json:"instructor_name"`
	AvailableSeat  int     `db:"available_seat" json:"available_seat"`
	Price          float64 `db:"price" json:"price"`
}
