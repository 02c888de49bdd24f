package domain

const (
	MinNumber = 1
	MaxNumber = 16

	MinNumbersPerBoard = 5
	MaxNumbersPerBoard = 8
)

// PriceTable maps the number of selected fields on a board to its price in
// minor currency units.
var PriceTable = map[int]int{
	5: 20,
	6: 40,
	7: 80,
	8: 160,
}

func Price(numberCount int) (int, error) {
	price, ok := PriceTable[numberCount]
	if !ok {
		return 0, ErrUnpricedCount
	}
	return price, nil
}
