package user

import (
	"context"

	"serviceconnect/internal/notify"
)

type Repository interface {
	CreateWithWallet(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetContact(ctx context.Context, id int) (*notify.Contact, error)
}
