package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page/limit inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the pagination block echoed back to API consumers.
type Page struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// Normalize clamps page and limit to sane bounds.
func Normalize(params Params) Params {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}
	if params.Limit > MaxLimit {
		params.Limit = MaxLimit
	}
	return params
}

// Offset converts normalized params into a row offset.
func (p Params) Offset() int {
	normalized := Normalize(p)
	return (normalized.Page - 1) * normalized.Limit
}

// Build assembles the pagination block for a result set of total rows.
func Build(params Params, total int64) Page {
	normalized := Normalize(params)
	pages := int(total) / normalized.Limit
	if int(total)%normalized.Limit != 0 {
		pages++
	}
	return Page{
		Page:  normalized.Page,
		Limit: normalized.Limit,
		Total: total,
		Pages: pages,
	}
}
