package models

import "time"

// Tokens is the access/refresh pair issued by the backend.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Sections describes which parts of the admin UI a user may open.
type Sections struct {
	Admin      bool `json:"admin"`
	Employees  bool `json:"employees"`
	MySessions bool `json:"mySessions"`
}

// User is the authenticated backend user returned by /auth/me.
type User struct {
	UserID      int64    `json:"userId"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	PhoneNumber string   `json:"phoneNumber"`
	Roles       []string `json:"roles"`
	Sections    Sections `json:"sections"`
}

// CanManageEmployees reports whether the user may use the employee administration features.
func (u User) CanManageEmployees() bool {
	return u.Sections.Employees || u.Sections.Admin
}

// HasAnyRole reports whether the user has at least one of the given roles.
func (u User) HasAnyRole(roles ...string) bool {
	for _, required := range roles {
		for _, role := range u.Roles {
			if role == required {
				return true
			}
		}
	}
	return false
}

// AdminSession links a Telegram account to a backend session.
type AdminSession struct {
	TelegramID  int64     // Telegram ID of the administrator
	UserID      int64     // Backend user ID
	PhoneNumber string    // Phone number used to log in
	Tokens      Tokens    // Current token pair
	CreatedAt   time.Time // When the administrator logged in
	UpdatedAt   time.Time // When the tokens were last rotated
}
