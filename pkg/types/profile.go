package types

import "time"

// Profile is the signed-in user's public identity.
type Profile struct {
	UserID      string    `json:"user_id" yaml:"user_id" validate:"required"`
	DisplayName string    `json:"display_name" yaml:"display_name" validate:"required,max=80"`
	Email       string    `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	AvatarURL   string    `json:"avatar_url,omitempty" yaml:"avatar_url,omitempty" validate:"omitempty,url"`
	Bio         string    `json:"bio,omitempty" yaml:"bio,omitempty" validate:"max=500"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

var profileFieldErrors = map[string]error{
	"UserID":      ErrInvalidUser,
	"DisplayName": ErrInvalidName,
}

// Validate checks profile field rules.
func (p *Profile) Validate() error {
	return validateStruct(p, profileFieldErrors)
}
