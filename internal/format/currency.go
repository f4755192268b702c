package format

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const brlPattern = "#.###,##"

// BRL renders an amount as Brazilian real text, e.g. "R$ 1.234,56".
func BRL(amount decimal.Decimal) string {
	return "R$ " + humanize.FormatFloat(brlPattern, amount.Round(2).InexactFloat64())
}

// Percent renders a rate such as 2.9 as "2,90%".
func Percent(pct decimal.Decimal) string {
	return humanize.FormatFloat(brlPattern, pct.Round(2).InexactFloat64()) + "%"
}

// Date renders a day as dd/mm/yyyy.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}
