package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type RegisterPlayerRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (req *RegisterPlayerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

func (req *SetActiveRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.IsActive, validation.NotNil),
	)
}
