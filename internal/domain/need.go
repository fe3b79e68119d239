package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NeedRequest is a request for resources, made of NeedLines.
type NeedRequest struct {
	ID        string
	Title     string
	Requester string
	ProjectID string
	Date      time.Time
	Notes     string
	CreatedAt time.Time
}

// NeedLine is one requested resource. Quantity is the ceiling for the sum of
// its allocation links.
type NeedLine struct {
	ID          string
	RequestID   string
	ResourceID  string
	Quantity    decimal.Decimal
	Unit        string
	ProjectID   string
	WBSID       string
	BOQID       string
	BOQItemID   string
	BOQDetailID string
	Notes       string
}

func (l *NeedLine) Validate() []error {
	var errs []error
	if strings.TrimSpace(l.ResourceID) == "" {
		errs = append(errs, fmt.Errorf("resource is required"))
	}
	if !l.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("quantity must be greater than zero, got %s", l.Quantity.String()))
	}
	if strings.TrimSpace(l.ProjectID) == "" {
		errs = append(errs, fmt.Errorf("project is required"))
	}
	return errs
}

// LinkTarget names the BOQ position a quantity is linked to.
type LinkTarget struct {
	BOQID    string
	ItemID   string
	DetailID string
	WBSID    string
}

func (t LinkTarget) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{t.BOQID, t.ItemID, t.DetailID, t.WBSID} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "/")
}

type AllocationLink struct {
	ID             string
	SourceLineID   string
	Target         LinkTarget
	LinkedQuantity decimal.Decimal
	CreatedAt      time.Time
}
