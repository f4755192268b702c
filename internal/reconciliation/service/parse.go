package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/reconciliation/domain"
)

// ParseFeed reads one "referenceId<sep>amount" record per non-blank line.
// A semicolon or tab separates fields when present; otherwise the first comma
// does, so "REF001,100,50" reads as REF001 / 100.50. Lines without a
// reference are quarantined in every mode.
func ParseFeed(text string, opts domain.ParseOptions) domain.ParseResult {
	res := domain.ParseResult{Items: []domain.NewItem{}, Quarantined: []domain.Rejected{}}
	strict := opts.Mode == domain.ParseStrict

	for i, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		ref, amountText, found := splitRecord(line)
		ref = strings.TrimSpace(ref)
		if ref == "" {
			res.Quarantined = append(res.Quarantined, domain.Rejected{Line: i + 1, Raw: raw, Reason: "missing_reference"})
			continue
		}

		amount, err := parseAmount(amountText)
		if !found || err != nil {
			if strict {
				reason := "invalid_amount"
				if !found {
					reason = "missing_amount"
				}
				res.Quarantined = append(res.Quarantined, domain.Rejected{Line: i + 1, Raw: raw, Reason: reason})
				continue
			}
			amount = decimal.Zero
		}

		res.Items = append(res.Items, domain.NewItem{
			ReferenceID: ref,
			Amount:      amount,
			PartnerID:   opts.PartnerID,
			BankCode:    opts.BankCode,
		})
	}
	return res
}

func splitRecord(line string) (string, string, bool) {
	for _, sep := range []string{";", "\t"} {
		if ref, rest, ok := strings.Cut(line, sep); ok {
			return ref, rest, true
		}
	}
	return strings.Cut(line, ",")
}

// parseAmount accepts "100.50", "100,50" and "1.234,56".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}
