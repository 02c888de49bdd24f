package repository

import (
	"errors"

	"github.com/jerneif/lotto-api/internal/domain"
	"github.com/jerneif/lotto-api/internal/repository/dao"
)

var daoErrors = map[error]error{
	dao.ErrGameNotFound:           domain.ErrGameNotFound,
	dao.ErrBoardNotFound:          domain.ErrBoardNotFound,
	dao.ErrTransactionNotFound:    domain.ErrTransactionNotFound,
	dao.ErrSubscriptionNotFound:   domain.ErrSubscriptionNotFound,
	dao.ErrPlayerNotFound:         domain.ErrPlayerNotFound,
	dao.ErrPlayerEmailExists:      domain.ErrEmailTaken,
	dao.ErrExternalRefExists:      domain.ErrDuplicateReference,
	dao.ErrBoardAlreadySubscribed: domain.ErrBoardAlreadySubscribed,
}

// translate swaps a DAO sentinel for the domain error callers classify on.
func translate(err error) error {
	for daoErr, domainErr := range daoErrors {
		if errors.Is(err, daoErr) {
			return domainErr
		}
	}
	return err
}

func toInt64s(numbers []int) []int64 {
	out := make([]int64, len(numbers))
	for i, n := range numbers {
		out[i] = int64(n)
	}
	return out
}

func toInts(numbers []int64) []int {
	out := make([]int, len(numbers))
	for i, n := range numbers {
		out[i] = int(n)
	}
	return out
}
