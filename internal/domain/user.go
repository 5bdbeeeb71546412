package domain

import (
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	AvatarURL    *string   `json:"avatar,omitempty"`
	Services     []string  `json:"services,omitempty"`
	Rating       float64   `json:"rating"`
	Featured     bool      `json:"featured"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public face of a user, used wherever another user's
// record is embedded in a response.
type Profile struct {
	ID        string  `json:"_id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

// Provider is a user as listed in the featured section.
type Provider struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	AvatarURL *string  `json:"avatar,omitempty"`
	Services  []string `json:"services"`
	Rating    float64  `json:"rating"`
}

func (u *User) AsProvider() Provider {
	services := u.Services
	if services == nil {
		services = []string{}
	}
	return Provider{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL, Services: services, Rating: u.Rating}
}
