package expense

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Health        Category = "Health"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Utilities     Category = "Utilities"
	Other         Category = "Other"
)

var categories = []Category{Food, Transport, Health, Entertainment, Shopping, Utilities, Other}

// Categories returns the closed set of categories in declaration order.
func Categories() []Category {
	res := make([]Category, len(categories))
	copy(res, categories)
	return res
}

func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

func (c Category) String() string {
	return string(c)
}

type Expense struct {
	ID          int64
	Amount      decimal.Decimal
	Category    Category
	Date        Date
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
