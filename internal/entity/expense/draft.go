package expense

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"max.ks1230/expense-tracker/internal/model/customerr"
)

const MaxDescriptionLen = 200

const (
	fieldAmount      = "amount"
	fieldCategory    = "category"
	fieldDate        = "date"
	fieldDescription = "description"
)

// Draft is an unvalidated client intent. Omitted fields stay None.
type Draft struct {
	Amount      Optional[decimal.Decimal]
	Category    Optional[string]
	Date        Optional[string]
	Description Optional[string]
}

// Patch is a validated partial update: only set fields are applied.
type Patch struct {
	Amount      Optional[decimal.Decimal]
	Category    Optional[Category]
	Date        Optional[Date]
	Description Optional[string]
}

func (p Patch) IsEmpty() bool {
	return !p.Amount.IsSet() && !p.Category.IsSet() && !p.Date.IsSet() && !p.Description.IsSet()
}

// Apply returns e with the set fields of p replaced.
func (p Patch) Apply(e Expense) Expense {
	e.Amount = p.Amount.OrElse(e.Amount)
	e.Category = p.Category.OrElse(e.Category)
	e.Date = p.Date.OrElse(e.Date)
	e.Description = p.Description.OrElse(e.Description)
	return e
}

// Patch validates every present field and trims the description.
func (d Draft) Patch() (Patch, error) {
	verr := &customerr.ValidationError{}
	p := d.validate(verr)
	if err := verr.OrNil(); err != nil {
		return Patch{}, err
	}
	return p, nil
}

// Expense validates d as a creation request. Amount and category are
// required, date defaults to today and description to "".
func (d Draft) Expense(today Date) (Expense, error) {
	verr := &customerr.ValidationError{}
	if !d.Amount.IsSet() {
		verr.Add(fieldAmount, "field required")
	}
	if !d.Category.IsSet() {
		verr.Add(fieldCategory, "field required")
	}
	p := d.validate(verr)
	if err := verr.OrNil(); err != nil {
		return Expense{}, err
	}

	return p.Apply(Expense{Date: today}), nil
}

func (d Draft) validate(verr *customerr.ValidationError) Patch {
	var p Patch

	if amount, ok := d.Amount.Get(); ok {
		// amounts leave the service as JSON numbers, so they must fit a float64
		f := amount.InexactFloat64()
		switch {
		case amount.Sign() <= 0 || f == 0:
			verr.Add(fieldAmount, "must be greater than 0")
		case math.IsInf(f, 0):
			verr.Add(fieldAmount, "must be a finite number")
		default:
			p.Amount = Some(amount)
		}
	}

	if raw, ok := d.Category.Get(); ok {
		c, err := ParseCategory(raw)
		if err != nil {
			verr.Add(fieldCategory, fmt.Sprintf("must be one of %s", categoryList()))
		} else {
			p.Category = Some(c)
		}
	}

	if raw, ok := d.Date.Get(); ok {
		date, err := ParseDate(raw)
		if err != nil {
			verr.Add(fieldDate, err.Error())
		} else {
			p.Date = Some(date)
		}
	}

	if raw, ok := d.Description.Get(); ok {
		desc := strings.TrimSpace(raw)
		if utf8.RuneCountInString(desc) > MaxDescriptionLen {
			verr.Add(fieldDescription, fmt.Sprintf("must be at most %d characters", MaxDescriptionLen))
		} else {
			p.Description = Some(desc)
		}
	}

	return p
}

func categoryList() string {
	all := Categories()
	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
