package domain

// Rating is the aggregate review score reported by the catalog.
type Rating struct {
	Rate  *float64 `json:"rate"  validate:"required"`
	Count *float64 `json:"count" validate:"required"`
}

// Product mirrors the upstream catalog schema. Pointer fields let validation
// tell a missing number apart from a zero.
type Product struct {
	ID          *float64 `json:"id"          validate:"required"`
	Title       *string  `json:"title"       validate:"required"`
	Price       *float64 `json:"price"       validate:"required"`
	Description *string  `json:"description" validate:"required"`
	Category    *string  `json:"category"    validate:"required"`
	Image       *string  `json:"image"       validate:"required,url"`
	Rating      *Rating  `json:"rating"      validate:"required"`
}

// CategoryName returns the product category or "" when absent.
func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return *p.Category
}
