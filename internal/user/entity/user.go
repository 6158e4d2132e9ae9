package entity

import "time"

// ProviderLocal marks accounts that authenticate with the application's own
// id/password scheme. Any other Provider value names a social provider.
const ProviderLocal = "COCONUT"

// User represents an account row in the `users` table.
// UserID is the external id: the login handle for local accounts or the
// provider subject id for social ones. Provider and Password never change
// after creation.
type User struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	Provider   string    `db:"provider"`
	Password   *string   `db:"password"` // bcrypt hash, nil for social accounts
	NickName   string    `db:"nick_name"`
	Age        int       `db:"age"`
	Gender     string    `db:"gender"`
	PhoneNum   string    `db:"phone_num"`
	ProfileImg string    `db:"profile_img"`
	PushToken  string    `db:"push_token"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// IsLocal reports whether the account signs in with a password.
func (u *User) IsLocal() bool { return u.Provider == ProviderLocal }

// Profile holds the user-editable fields supplied at creation.
type Profile struct {
	NickName   string
	Age        int
	Gender     string
	PhoneNum   string
	ProfileImg string
	PushToken  string
}

// ProfileUpdate is the wholesale replacement applied by an update. The push
// token is not part of it.
type ProfileUpdate struct {
	NickName   string
	Age        int
	Gender     string
	PhoneNum   string
	ProfileImg string
}

// Apply overwrites the mutable profile fields.
func (u *User) Apply(p ProfileUpdate) {
	u.NickName = p.NickName
	u.Age = p.Age
	u.Gender = p.Gender
	u.PhoneNum = p.PhoneNum
	u.ProfileImg = p.ProfileImg
}
