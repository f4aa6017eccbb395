package user

import (
	"context"

	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/api"
	"serviceconnect/internal/auth"
	"serviceconnect/internal/catalog"
	"serviceconnect/internal/db"
	"serviceconnect/internal/notify"
	"serviceconnect/internal/wallet"
)

type repository struct {
	db       *sqlx.DB
	wallets  wallet.Repository
	profiles catalog.Repository
}

func NewRepository(database *sqlx.DB, wallets wallet.Repository, profiles catalog.Repository) Repository {
	return &repository{db: database, wallets: wallets, profiles: profiles}
}

// CreateWithWallet inserts the user, its wallet and, for providers, an empty
// profile in one transaction.
func (r *repository) CreateWithWallet(ctx context.Context, u *User) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO users (name, email, password_hash, role, phone)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone).Scan(&u.ID, &u.CreatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return api.Errorf(api.ErrConflict, "email already registered")
			}
			return err
		}

		if err := r.wallets.Create(ctx, tx, u.ID); err != nil {
			return err
		}

		if u.Role == auth.RoleProvider {
			return r.profiles.CreateProfile(ctx, tx, u.ID)
		}
		return nil
	})
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, phone, created_at
		FROM users
		WHERE email = $1
	`

	var u User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "user not found")
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, phone, created_at
		FROM users
		WHERE id = $1
	`

	var u User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "user %d not found", id)
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) GetContact(ctx context.Context, id int) (*notify.Contact, error) {
	var c notify.Contact
	if err := r.db.GetContext(ctx, &c, `SELECT name, email FROM users WHERE id = $1`, id); err != nil {
		if db.IsNoRows(err) {
			return nil, api.Errorf(api.ErrNotFound, "user %d not found", id)
		}
		return nil, err
	}
	return &c, nil
}
