package store

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	advancedomain "github.com/smallbiznis/nel3/internal/advance/domain"
	affiliatedomain "github.com/smallbiznis/nel3/internal/affiliate/domain"
	agendadomain "github.com/smallbiznis/nel3/internal/agenda/domain"
	catalogdomain "github.com/smallbiznis/nel3/internal/catalog/domain"
	chargedomain "github.com/smallbiznis/nel3/internal/charge/domain"
	invoicedomain "github.com/smallbiznis/nel3/internal/invoice/domain"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	ratedomain "github.com/smallbiznis/nel3/internal/rate/domain"
	reconciliationdomain "github.com/smallbiznis/nel3/internal/reconciliation/domain"
	settlementdomain "github.com/smallbiznis/nel3/internal/settlement/domain"
)

const SchemaVersion = 1

// Snapshot is the whole persisted state, written wholesale after every command.
type Snapshot struct {
	Version        int                                `json:"version"`
	Partners       []partnerdomain.Partner            `json:"partners"`
	Affiliates     []affiliatedomain.Affiliate        `json:"affiliates"`
	Invoices       []invoicedomain.Invoice            `json:"invoices"`
	Charges        []chargedomain.Charge              `json:"charges"`
	Rates          []ratedomain.Rate                  `json:"rates"`
	Settlements    []settlementdomain.Settlement      `json:"settlements"`
	Advances       []advancedomain.Advance            `json:"advances"`
	Reconciliation []reconciliationdomain.Item        `json:"reconciliation"`
	Agenda         []agendadomain.Slot                `json:"agenda"`
	Notifications  []notificationdomain.Notification  `json:"notifications"`
	Services       []catalogdomain.Service            `json:"services"`
	// Ledger maps partner id to bucket key to consumed amount.
	Ledger    map[string]map[string]decimal.Decimal `json:"ledger"`
	Sequences map[string]int64                      `json:"sequences"`
}

func emptySnapshot() *Snapshot {
	s := &Snapshot{Version: SchemaVersion}
	s.normalize()
	return s
}

// normalize replaces nil collections so the JSON never carries null arrays.
func (s *Snapshot) normalize() {
	if s.Partners == nil {
		s.Partners = []partnerdomain.Partner{}
	}
	if s.Affiliates == nil {
		s.Affiliates = []affiliatedomain.Affiliate{}
	}
	if s.Invoices == nil {
		s.Invoices = []invoicedomain.Invoice{}
	}
	if s.Charges == nil {
		s.Charges = []chargedomain.Charge{}
	}
	if s.Rates == nil {
		s.Rates = []ratedomain.Rate{}
	}
	if s.Settlements == nil {
		s.Settlements = []settlementdomain.Settlement{}
	}
	if s.Advances == nil {
		s.Advances = []advancedomain.Advance{}
	}
	if s.Reconciliation == nil {
		s.Reconciliation = []reconciliationdomain.Item{}
	}
	if s.Agenda == nil {
		s.Agenda = []agendadomain.Slot{}
	}
	if s.Notifications == nil {
		s.Notifications = []notificationdomain.Notification{}
	}
	if s.Services == nil {
		s.Services = []catalogdomain.Service{}
	}
	if s.Ledger == nil {
		s.Ledger = map[string]map[string]decimal.Decimal{}
	}
	if s.Sequences == nil {
		s.Sequences = map[string]int64{}
	}
}

// clone deep-copies the snapshot so a command can be discarded on failure.
func (s *Snapshot) clone() (*Snapshot, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	out := &Snapshot{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	out.normalize()
	return out, nil
}
