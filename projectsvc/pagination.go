package projectsvc

// PerPage is the fixed listing window size.
const PerPage = 15

type Pagination struct {
	CurrentPage int    `json:"current_page"`
	PerPage     int    `json:"per_page"`
	Total       int64  `json:"total"`
	LastPage    int    `json:"last_page"`
	From        *int64 `json:"from"`
	To          *int64 `json:"to"`
}

// PageRequest returns the window for page before the total is known.
// Pages below 1 are treated as 1.
func PageRequest(page int) Pagination {
	if page < 1 {
		page = 1
	}
	return Pagination{CurrentPage: page, PerPage: PerPage, LastPage: 1}
}

// Offset is only meaningful for pages that are not Beyond the total.
func (p Pagination) Offset() int { return (p.CurrentPage - 1) * p.PerPage }

func (p Pagination) Limit() int { return p.PerPage }

// Beyond reports whether the page holds none of total items.
func (p Pagination) Beyond(total int64) bool {
	return int64(p.CurrentPage) > lastPage(total, p.PerPage) || total == 0
}

func lastPage(total int64, perPage int) int64 {
	n := (total + int64(perPage) - 1) / int64(perPage)
	if n < 1 {
		n = 1
	}
	return n
}

// WithTotal fills the metadata once the size of the full ordered set is known.
// From and To stay nil when the window holds no items.
func (p Pagination) WithTotal(total int64) Pagination {
	p.Total = total
	p.From, p.To = nil, nil
	p.LastPage = int(lastPage(total, p.PerPage))

	if p.Beyond(total) {
		return p
	}

	first := int64(p.Offset()) + 1
	last := first + int64(p.PerPage) - 1
	if last > total {
		last = total
	}
	p.From, p.To = &first, &last
	return p
}

// NewPagination computes the metadata of page over total items.
func NewPagination(total int64, page int) Pagination {
	return PageRequest(page).WithTotal(total)
}
