package chat

import "context"

type Repository interface {
	Insert(ctx context.Context, m *Message) error
	ListAfter(ctx context.Context, bookingID, afterID, limit int) ([]Message, error)
	MarkRead(ctx context.Context, bookingID, readerID int) (int64, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
}
