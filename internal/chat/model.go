package chat

import "time"

type Message struct {
	ID        int        `db:"id" json:"id"`
	BookingID int        `db:"booking_id" json:"booking_id"`
	SenderID  int        `db:"sender_id" json:"sender_id"`
	Body      string     `db:"body" json:"body"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

type SendRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

type UnreadResponse struct {
	Unread int `json:"unread"`
}
