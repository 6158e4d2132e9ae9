package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// ErrDuplicate is returned when an insert hits the unique constraint on user_id.
var ErrDuplicate = errors.New("duplicate user id")

// Store is the account persistence contract used by the identity service.
// Lookups return sql.ErrNoRows when nothing matches.
type Store interface {
	// WithinTx runs fn inside one transaction. fn must use the Store it is
	// given, not the receiver.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUserID(ctx context.Context, userID string) (*entity.User, error)
	ExistsByUserID(ctx context.Context, userID string) (bool, error)
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
}

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB // nil when the repo is bound to a transaction
	ex sqlx.ExtContext
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db, ex: db} }

const selectUser = `SELECT id, user_id, provider, password, nick_name, age, gender,
	phone_num, profile_img, push_token, created_at, updated_at
  FROM users`

// WithinTx begins a transaction, or joins the current one when the repo is
// already transaction-bound.
func (r *UserRepo) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&UserRepo{ex: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", translate(err))
	}
	return nil
}

// Create inserts u and fills CreatedAt/UpdatedAt from the database.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id,user_id,provider,password,nick_name,age,gender,phone_num,profile_img,push_token)
		VALUES (:id,:user_id,:provider,:password,:nick_name,:age,:gender,:phone_num,:profile_img,:push_token)
		RETURNING created_at, updated_at`
	rows, err := sqlx.NamedQueryContext(ctx, r.ex, q, u)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		return nil
	}
	if err := rows.Err(); err != nil {
		return translate(err)
	}
	return errors.New("insert returned no row")
}

// GetByID fetches a user by internal id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var u entity.User
	if err := sqlx.GetContext(ctx, r.ex, &u, selectUser+` WHERE id=$1`, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUserID fetches a user by external id.
func (r *UserRepo) GetByUserID(ctx context.Context, userID string) (*entity.User, error) {
	var u entity.User
	if err := sqlx.GetContext(ctx, r.ex, &u, selectUser+` WHERE user_id=$1`, userID); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ExistsByUserID(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.ex, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE user_id=$1)`, userID)
	return exists, err
}

// Update writes the profile columns only; user_id, provider and password are
// never touched here.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) error {
	const q = `UPDATE users SET nick_name=:nick_name, age=:age, gender=:gender,
		phone_num=:phone_num, profile_img=:profile_img, updated_at=NOW()
		WHERE id=:id RETURNING updated_at`
	rows, err := sqlx.NamedQueryContext(ctx, r.ex, q, u)
	if err != nil {
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&u.UpdatedAt)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return sql.ErrNoRows
}

// Delete removes the row. Star ratings go with it (ON DELETE CASCADE).
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.ex.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// translate maps a postgres unique violation to ErrDuplicate.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w (%s)", ErrDuplicate, pqErr.Constraint)
	}
	return err
}
