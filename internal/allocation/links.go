package allocation

import (
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// LinkBook accepts quantity links against need-request lines while keeping
// each line's linked total at or below its requested quantity. It is not
// safe for concurrent use.
type LinkBook struct {
	limits map[string]decimal.Decimal
	linked map[string]decimal.Decimal
	links  []domain.AllocationLink
}

// RequestedQuantities maps each line ID to its requested quantity.
func RequestedQuantities(lines []domain.NeedLine) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		out[l.ID] = l.Quantity
	}
	return out
}

func NewLinkBook(requested map[string]decimal.Decimal) *LinkBook {
	b := &LinkBook{
		limits: make(map[string]decimal.Decimal, len(requested)),
		linked: make(map[string]decimal.Decimal, len(requested)),
	}
	for id, q := range requested {
		b.limits[id] = q
	}
	return b
}

// Add accepts link if the running total for its source line, including
// link, stays within the requested quantity. A rejected link leaves the
// book unchanged.
func (b *LinkBook) Add(link domain.AllocationLink) error {
	limit, ok := b.limits[link.SourceLineID]
	if !ok {
		return &domain.UnknownSourceLineError{SourceLineID: link.SourceLineID}
	}
	if link.LinkedQuantity.IsNegative() {
		return &domain.InvalidAmountError{Field: "link", Ref: link.SourceLineID, Amount: link.LinkedQuantity}
	}
	attempted := b.linked[link.SourceLineID].Add(link.LinkedQuantity)
	if attempted.GreaterThan(limit) {
		return &domain.AllocationExceedsRequestError{
			SourceLineID:   link.SourceLineID,
			AttemptedTotal: attempted,
			Limit:          limit,
		}
	}
	b.linked[link.SourceLineID] = attempted
	b.links = append(b.links, link)
	return nil
}

// Rejection pairs a link with the reason it was refused.
type Rejection struct {
	Link domain.AllocationLink
	Err  error
}

// AddAll offers links in order. One rejected link does not affect the others.
func (b *LinkBook) AddAll(links []domain.AllocationLink) ([]domain.AllocationLink, []Rejection) {
	var accepted []domain.AllocationLink
	var rejected []Rejection
	for _, l := range links {
		if err := b.Add(l); err != nil {
			rejected = append(rejected, Rejection{Link: l, Err: err})
			continue
		}
		accepted = append(accepted, l)
	}
	return accepted, rejected
}

func (b *LinkBook) Linked(sourceLineID string) decimal.Decimal {
	return b.linked[sourceLineID]
}

func (b *LinkBook) Limit(sourceLineID string) decimal.Decimal {
	return b.limits[sourceLineID]
}

// Remaining is how much quantity can still be linked to the line.
func (b *LinkBook) Remaining(sourceLineID string) decimal.Decimal {
	return b.limits[sourceLineID].Sub(b.linked[sourceLineID])
}

func (b *LinkBook) Links() []domain.AllocationLink {
	return append([]domain.AllocationLink(nil), b.links...)
}
