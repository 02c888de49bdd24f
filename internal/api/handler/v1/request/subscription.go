package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateSubscriptionRequest struct {
	Numbers    []int `json:"numbers"`
	TotalGames *int  `json:"total_games,omitempty"`
}

func (req *CreateSubscriptionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Numbers, validation.NotNil),
	)
}
