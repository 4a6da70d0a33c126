package expense

type SortColumn string

const (
	SortByDate        SortColumn = "date"
	SortByAmount      SortColumn = "amount"
	SortByCategory    SortColumn = "category"
	SortByDescription SortColumn = "description"
)

// ParseSortColumn reports false for anything outside the sortable columns.
func ParseSortColumn(s string) (SortColumn, bool) {
	switch c := SortColumn(s); c {
	case SortByDate, SortByAmount, SortByCategory, SortByDescription:
		return c, true
	}
	return "", false
}

// Sort with an empty Column means the default order: date desc, id desc.
type Sort struct {
	Column     SortColumn
	Descending bool
}

// Filter conditions are optional and combined with AND.
type Filter struct {
	Category  Optional[string]
	StartDate Optional[Date]
	EndDate   Optional[Date]
	Keyword   Optional[string]
	Sort      Sort
}
