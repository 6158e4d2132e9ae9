package user

import (
	"time"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
)

// CreateUserRequest is the body of POST /users. Provider is "COCONUT" (or
// "LOCAL") for id/password accounts, otherwise a social provider tag.
type CreateUserRequest struct {
	Provider    string `json:"provider" validate:"required"`
	UserID      string `json:"userId" validate:"max=100"`
	Password    string `json:"password" validate:"max=72"`
	AccessToken string `json:"accessToken"`
	NickName    string `json:"nickName" validate:"required,max=50"`
	Age         int    `json:"age" validate:"gte=0,lte=150"`
	Gender      string `json:"gender" validate:"max=10"`
	PhoneNum    string `json:"phoneNum" validate:"max=20"`
	ProfileImg  string `json:"profileImg" validate:"max=2048"`
	PushToken   string `json:"pushToken" validate:"max=512"`
}

func (r CreateUserRequest) profile() entity.Profile {
	return entity.Profile{
		NickName:   r.NickName,
		Age:        r.Age,
		Gender:     r.Gender,
		PhoneNum:   r.PhoneNum,
		ProfileImg: r.ProfileImg,
		PushToken:  r.PushToken,
	}
}

// SignInRequest is the body of POST /users/signin.
type SignInRequest struct {
	Provider    string `json:"provider" validate:"required"`
	UserID      string `json:"userId"`
	Password    string `json:"password"`
	AccessToken string `json:"accessToken"`
}

// UpdateUserRequest replaces the editable profile.
type UpdateUserRequest struct {
	NickName   string `json:"nickName" validate:"required,max=50"`
	Age        int    `json:"age" validate:"gte=0,lte=150"`
	Gender     string `json:"gender" validate:"max=10"`
	PhoneNum   string `json:"phoneNum" validate:"max=20"`
	ProfileImg string `json:"profileImg" validate:"max=2048"`
}

func (r UpdateUserRequest) update() entity.ProfileUpdate {
	return entity.ProfileUpdate{
		NickName:   r.NickName,
		Age:        r.Age,
		Gender:     r.Gender,
		PhoneNum:   r.PhoneNum,
		ProfileImg: r.ProfileImg,
	}
}

// UserResponse is the public view of an account. It never carries the
// password hash.
type UserResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Provider   string    `json:"provider"`
	NickName   string    `json:"nickName"`
	Age        int       `json:"age"`
	Gender     string    `json:"gender"`
	PhoneNum   string    `json:"phoneNum"`
	ProfileImg string    `json:"profileImg"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		UserID:     u.UserID,
		Provider:   u.Provider,
		NickName:   u.NickName,
		Age:        u.Age,
		Gender:     u.Gender,
		PhoneNum:   u.PhoneNum,
		ProfileImg: u.ProfileImg,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

type SignInResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
