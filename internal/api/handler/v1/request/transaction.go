package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type DepositRequest struct {
	Amount      int    `json:"amount"`
	ExternalRef string `json:"external_ref"`
}

func (req *DepositRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Amount, validation.Required),
		validation.Field(&req.ExternalRef, validation.Required, validation.Length(1, 64)),
	)
}
