package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type PurchaseBoardRequest struct {
	GameID  string `json:"game_id"`
	Numbers []int  `json:"numbers"`
}

// Validate only checks the shape; number rules are enforced by the purchase
// itself so their messages stay the same for every caller.
func (req *PurchaseBoardRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.GameID, validation.Required, is.UUID),
		validation.Field(&req.Numbers, validation.NotNil),
	)
}

type EndGameRequest struct {
	WinningNumbers []int `json:"winning_numbers"`
}

func (req *EndGameRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.WinningNumbers, validation.Required, validation.Length(3, 3)),
	)
}
