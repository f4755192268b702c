package domain

// Service is static reference data for what partners sell.
type Service struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdvanceServiceID is the catalog entry advance rates are configured under.
const AdvanceServiceID = "antecipacao"
