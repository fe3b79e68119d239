package formatter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders part/whole as a bar like [████░░░░]  45%. A zero
// whole counts as complete. The bar is green from 100%, yellow from 50% and
// red below.
func RenderProgress(part, whole decimal.Decimal, width int) string {
	pct := 1.0
	if whole.IsPositive() {
		pct = part.Div(whole).InexactFloat64()
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if width < 2 {
		width = 2
	}

	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	if pct < 0.5 {
		style = StyleRed
	} else if pct < 1 {
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3.0f%%", style.Render(bar), pct*100)
}
