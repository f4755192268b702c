package domain

// ParseMode selects how malformed feed rows are handled.
type ParseMode string

const (
	// ParseTolerant admits rows with an unparsable amount as 0.
	ParseTolerant ParseMode = "tolerant"
	// ParseStrict moves them to Quarantined.
	ParseStrict ParseMode = "strict"
)

type ParseOptions struct {
	Mode      ParseMode `json:"mode"`
	PartnerID string    `json:"partnerId"`
	BankCode  string    `json:"bankCode"`
}

type Rejected struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

type ParseResult struct {
	Items       []NewItem  `json:"items"`
	Quarantined []Rejected `json:"quarantined"`
}

type ImportResult struct {
	Items       []Item     `json:"items"`
	Quarantined []Rejected `json:"quarantined"`
}
