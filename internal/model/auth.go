package model

import "time"

type Role string

const (
	RoleUser    Role = "user"
	RoleCaptain Role = "captain"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleCaptain
}

// Title is used in client-facing messages ("User already exists").
func (r Role) Title() string {
	switch r {
	case RoleCaptain:
		return "Captain"
	default:
		return "User"
	}
}

type CaptainStatus string

const (
	CaptainActive   CaptainStatus = "active"
	CaptainInactive CaptainStatus = "inactive"
)

type FullName struct {
	FirstName string `json:"firstname" bson:"firstname"`
	LastName  string `json:"lastname,omitempty" bson:"lastname,omitempty"`
}

type Vehicle struct {
	Color       string `json:"color" bson:"color"`
	Plate       string `json:"plate" bson:"plate"`
	Capacity    int    `json:"capacity" bson:"capacity"`
	VehicleType string `json:"vehicleType" bson:"vehicleType"`
}

// Account is a user or captain record. PasswordHash is only populated on
// reads that need it (login) and is never serialized.
type Account struct {
	ID           string        `bson:"_id"`
	Role         Role          `bson:"-"`
	FullName     FullName      `bson:"fullname"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	SocketID     string        `bson:"socketId,omitempty"`
	Status       CaptainStatus `bson:"status,omitempty"`
	Vehicle      *Vehicle      `bson:"vehicle,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

type RevokedToken struct {
	Token     string    `bson:"token"`
	CreatedAt time.Time `bson:"createdAt"`
}

type FullNameRequest struct {
	FirstName string `json:"firstname" binding:"required,min=3"`
	LastName  string `json:"lastname" binding:"omitempty,min=3"`
}

type VehicleRequest struct {
	Color       string `json:"color" binding:"required,min=3"`
	Plate       string `json:"plate" binding:"required,min=3"`
	Capacity    int    `json:"capacity" binding:"required,min=1"`
	VehicleType string `json:"vehicleType" binding:"required,oneof=car motorcycle auto"`
}

type RegisterUserRequest struct {
	FullName FullNameRequest `json:"fullname" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6,max=72"`
}

type RegisterCaptainRequest struct {
	FullName FullNameRequest `json:"fullname" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6,max=72"`
	Vehicle  VehicleRequest  `json:"vehicle" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// NewAccount is the input to AuthService.Register.
type NewAccount struct {
	Role     Role
	FullName FullName
	Email    string
	Password string
	Vehicle  *Vehicle
}

type AccountResponse struct {
	ID        string        `json:"_id"`
	FullName  FullName      `json:"fullname"`
	Email     string        `json:"email"`
	SocketID  string        `json:"socketId,omitempty"`
	Status    CaptainStatus `json:"status,omitempty"`
	Vehicle   *Vehicle      `json:"vehicle,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

func NewAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		SocketID:  a.SocketID,
		Status:    a.Status,
		Vehicle:   a.Vehicle,
		CreatedAt: a.CreatedAt,
	}
}
