package assistant

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/topphysics/core"
)

// Roles
const (
	RoleAdmin     = "admin"
	RoleAssistant = "assistant"
)

var AllRoles = []string{RoleAdmin, RoleAssistant}

// Assistant is a center staff member allowed to use the dashboard.
type Assistant struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Phone        string    `json:"phone"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (a *Assistant) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Assistant) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

func (a *Assistant) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Actor returns the caller identity carried through service calls.
func (a Assistant) Actor() core.Actor {
	return core.Actor{ID: a.ID, Username: a.Username, IsAdmin: a.IsAdmin()}
}

// NewAssistant contains information needed to create a new Assistant.
type NewAssistant struct {
	Name            string `json:"name" validate:"required,notblank"`
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Phone           string `json:"phone" validate:"omitempty,numeric"`
	Role            string `json:"role" validate:"omitempty,oneof=admin assistant"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (na *NewAssistant) Clean() {
	na.Name = core.CleanString(na.Name)
	na.Username = core.CleanString(na.Username, true /* lower */)
	na.Phone = core.CleanString(na.Phone)
	if na.Role == "" {
		na.Role = RoleAssistant
	}
}

// UpdateAssistant defines what information may be provided to modify an existing Assistant.
type UpdateAssistant struct {
	Name            string `json:"name"`
	Username        string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Phone           string `json:"phone" validate:"omitempty,numeric"`
	Role            string `json:"role" validate:"omitempty,oneof=admin assistant"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

// Clean fills blank fields from orig so that the update only changes what was provided.
func (ua *UpdateAssistant) Clean(orig Assistant) {
	if name := core.CleanString(ua.Name); name != "" {
		ua.Name = name
	} else {
		ua.Name = orig.Name
	}
	if uname := core.CleanString(ua.Username, true /* lower */); uname != "" {
		ua.Username = uname
	} else {
		ua.Username = orig.Username
	}
	if phone := core.CleanString(ua.Phone); phone != "" {
		ua.Phone = phone
	} else {
		ua.Phone = orig.Phone
	}
	if ua.Role == "" {
		ua.Role = orig.Role
	}
}
