package store

import (
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	advancedomain "github.com/smallbiznis/nel3/internal/advance/domain"
	affiliatedomain "github.com/smallbiznis/nel3/internal/affiliate/domain"
	agendadomain "github.com/smallbiznis/nel3/internal/agenda/domain"
	catalogdomain "github.com/smallbiznis/nel3/internal/catalog/domain"
	chargedomain "github.com/smallbiznis/nel3/internal/charge/domain"
	"github.com/smallbiznis/nel3/internal/format"
	invoicedomain "github.com/smallbiznis/nel3/internal/invoice/domain"
	"github.com/smallbiznis/nel3/internal/kyc"
	limitdomain "github.com/smallbiznis/nel3/internal/limit/domain"
	notificationdomain "github.com/smallbiznis/nel3/internal/notification/domain"
	partnerdomain "github.com/smallbiznis/nel3/internal/partner/domain"
	ratedomain "github.com/smallbiznis/nel3/internal/rate/domain"
	reconciliationdomain "github.com/smallbiznis/nel3/internal/reconciliation/domain"
	settlementdomain "github.com/smallbiznis/nel3/internal/settlement/domain"
)

const (
	SequenceInvoice      = "invoice"
	SequenceNotification = "notification"
)

// ServiceNames is the static service catalog. Ids are the slugs of the names.
var ServiceNames = []string{
	"Consultas",
	"Exames",
	"Cirurgias",
	"Internações",
	"Antecipação",
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// Seed builds the demo data set. The output depends only on now and loc.
func Seed(now time.Time, loc *time.Location) *Snapshot {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 9, 0, 0, 0, loc).UTC()
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }
	date := func(offset int) string { return day(offset).In(loc).Format(agendadomain.DateLayout) }

	s := emptySnapshot()

	for _, name := range ServiceNames {
		s.Services = append(s.Services, catalogdomain.Service{ID: slug.Make(name), Name: name})
	}

	s.Partners = []partnerdomain.Partner{
		{
			ID: "p1", Name: "Hospital São Lucas", CNPJ: "60.470.198/0001-07", City: "São Paulo",
			Address: "Av. Paulista, 1000", Status: partnerdomain.StatusActive, KYCStatus: kyc.StatusApproved,
			VolumeMonthly: decPtr("450000.00"), Contracts: intPtr(12), AffiliatesCount: intPtr(2),
			Documents: []partnerdomain.Document{
				{Name: "Contrato Social", Type: "pdf", UploadedAt: day(-60)},
				{Name: "Alvará de Funcionamento", Type: "pdf", UploadedAt: day(-58)},
			},
			CreatedAt: day(-90), UpdatedAt: day(-30),
		},
		{
			ID: "p2", Name: "Clínica Vida", CNPJ: "33.592.451/0001-14", City: "Rio de Janeiro",
			Status: partnerdomain.StatusActive, KYCStatus: kyc.StatusPending,
			VolumeMonthly: decPtr("82000.00"), Contracts: intPtr(3), AffiliatesCount: intPtr(1),
			Documents: []partnerdomain.Document{{Name: "Contrato Social", Type: "pdf", UploadedAt: day(-5)}},
			CreatedAt: day(-6), UpdatedAt: day(-5),
		},
		{
			ID: "p3", Name: "Hospital Santa Clara", CNPJ: "07.654.321/0001-59", City: "Belo Horizonte",
			Address: "Rua da Bahia, 250", Status: partnerdomain.StatusActive, KYCStatus: kyc.StatusUnderReview,
			Documents: []partnerdomain.Document{}, CreatedAt: day(-3), UpdatedAt: day(-2),
		},
		{
			ID: "p4", Name: "Centro Médico Esperança", CNPJ: "45.012.398/0001-14", City: "Curitiba",
			Status: partnerdomain.StatusInactive, KYCStatus: kyc.StatusApproved,
			VolumeMonthly: decPtr("120000.00"), Contracts: intPtr(5),
			Documents: []partnerdomain.Document{}, CreatedAt: day(-200), UpdatedAt: day(-20),
		},
	}

	s.Affiliates = []affiliatedomain.Affiliate{
		{
			ID: "a1", Name: "Dra. Ana Souza", TaxID: "123.456.789-09", CRM: "CRM-SP 123456", Specialty: "Cardiologia",
			Email: "ana.souza@example.com", Phone: "(11) 98888-0001", City: "São Paulo",
			Status: affiliatedomain.StatusActive, KYCStatus: kyc.StatusApproved,
			AssociatedPartnerIDs: []string{"p1"}, CreatedAt: day(-80), UpdatedAt: day(-40),
		},
		{
			ID: "a2", Name: "Dr. Carlos Lima", TaxID: "987.654.321-00", CRM: "CRM-RJ 654321", Specialty: "Ortopedia",
			Email: "carlos.lima@example.com", City: "Rio de Janeiro",
			Status: affiliatedomain.StatusActive, KYCStatus: kyc.StatusPending,
			AssociatedPartnerIDs: []string{"p1", "p2"}, CreatedAt: day(-4), UpdatedAt: day(-4),
		},
		{
			ID: "a3", Name: "Dra. Beatriz Rocha", TaxID: "111.444.777-35", Specialty: "Pediatria",
			City: "Belo Horizonte", Status: affiliatedomain.StatusActive, KYCStatus: kyc.StatusUnderReview,
			AssociatedPartnerIDs: []string{"p3"}, CreatedAt: day(-2), UpdatedAt: day(-1),
		},
	}

	advanceService := slug.Make("Antecipação")
	s.Rates = []ratedomain.Rate{
		{ID: "r1", PartnerID: "p1", ServiceID: advanceService, BaseRatePct: dec("2.9"), FixedFee: dec("0"),
			EffectiveDate: day(-90), IsActive: true, UpdatedAt: day(-90), UpdatedBy: "nel3"},
		{ID: "r2", PartnerID: "p1", ServiceID: slug.Make("Consultas"), BaseRatePct: dec("1.5"), FixedFee: dec("2.50"),
			EffectiveDate: day(-60), IsActive: true, UpdatedAt: day(-60), UpdatedBy: "nel3"},
		{ID: "r3", PartnerID: "p2", ServiceID: advanceService, BaseRatePct: dec("3.2"), FixedFee: dec("0"),
			EffectiveDate: day(30), IsActive: true, UpdatedAt: day(-1), UpdatedBy: "nel3"},
		{ID: "r4", PartnerID: "p4", ServiceID: advanceService, BaseRatePct: dec("3.5"), FixedFee: dec("0"),
			EffectiveDate: day(-200), ExpirationDate: timePtr(day(-10)), IsActive: true, UpdatedAt: day(-200), UpdatedBy: "nel3"},
		{ID: "r5", PartnerID: "p3", ServiceID: slug.Make("Exames"), BaseRatePct: dec("2.2"), FixedFee: dec("1.00"),
			EffectiveDate: day(-3), IsActive: false, UpdatedAt: day(-3), UpdatedBy: "nel3"},
	}

	for i, inv := range []struct {
		affiliate string
		amount    string
		status    invoicedomain.Status
		offset    int
	}{
		{"a1", "1500.00", invoicedomain.StatusPending, -2},
		{"a2", "830.40", invoicedomain.StatusApproved, -10},
		{"a1", "420.00", invoicedomain.StatusRejected, -15},
	} {
		seq := s.Sequences[SequenceInvoice] + 1
		s.Sequences[SequenceInvoice] = seq
		number, _ := format.InvoiceNumber(format.DefaultInvoiceNumberTemplate, day(inv.offset), seq)
		s.Invoices = append(s.Invoices, invoicedomain.Invoice{
			ID: "inv" + string(rune('1'+i)), Number: number, AffiliateID: inv.affiliate,
			IssueDate: day(inv.offset), Amount: dec(inv.amount), Status: inv.status,
			CreatedAt: day(inv.offset), UpdatedAt: day(inv.offset),
		})
	}

	s.Charges = []chargedomain.Charge{
		{ID: "c1", PartnerID: "p1", ServiceID: slug.Make("Consultas"), Amount: dec("1250.00"), ReferenceID: "CHG-0001",
			Status: chargedomain.StatusPending, CreatedAt: day(-7), UpdatedAt: day(-7)},
		{ID: "c2", PartnerID: "p2", ServiceID: slug.Make("Exames"), Amount: dec("380.75"), ReferenceID: "CHG-0002",
			Status: chargedomain.StatusPaid, CreatedAt: day(-12), UpdatedAt: day(-8)},
		{ID: "c3", PartnerID: "p1", ServiceID: slug.Make("Cirurgias"), Amount: dec("9800.00"), ReferenceID: "CHG-0003",
			Status: chargedomain.StatusContested, CreatedAt: day(-20), UpdatedAt: day(-18)},
	}

	s.Settlements = []settlementdomain.Settlement{
		{ID: "s1", PartnerID: "p1", Amount: dec("12000.00"), DueDate: day(7), Status: settlementdomain.StatusScheduled,
			CreatedAt: day(-1), UpdatedAt: day(-1)},
		{ID: "s2", PartnerID: "p2", Amount: dec("4300.50"), DueDate: day(-3), Status: settlementdomain.StatusExecuted,
			ExecutedAt: timePtr(day(-3)), CreatedAt: day(-14), UpdatedAt: day(-3)},
	}

	s.Advances = []advancedomain.Advance{
		{ID: "adv1", PartnerID: "p1", Amount: dec("5000.00"), Status: advancedomain.StatusRequested,
			RequestedAt: day(0), UpdatedAt: day(0)},
		{ID: "adv2", PartnerID: "p1", Amount: dec("2000.00"), Status: advancedomain.StatusApproved, AppliedRatePct: decPtr("2.9"),
			RequestedAt: day(0), ApprovedAt: timePtr(day(0)), UpdatedAt: day(0)},
		{ID: "adv3", PartnerID: "p4", Amount: dec("10000.00"), Status: advancedomain.StatusSettled, AppliedRatePct: decPtr("3.5"),
			RequestedAt: day(-30), ApprovedAt: timePtr(day(-29)), SettledAt: timePtr(day(-20)), UpdatedAt: day(-20)},
		{ID: "adv4", PartnerID: "p2", Amount: dec("750.00"), Status: advancedomain.StatusRejected,
			RequestedAt: day(-2), RejectedAt: timePtr(day(-1)), UpdatedAt: day(-1)},
	}
	if bucket, err := limitdomain.BucketKey(limitdomain.PeriodDaily, day(0), loc); err == nil {
		s.Ledger["p1"] = map[string]decimal.Decimal{bucket: dec("2000.00")}
	}

	s.Reconciliation = []reconciliationdomain.Item{
		{ID: "rec1", ReferenceID: "CHG-0002", AmountFile: dec("380.75"), AmountSystem: decPtr("380.75"), Matched: true,
			PartnerID: "p2", TransactionDate: day(-8), BankCode: "341", Status: reconciliationdomain.StatusMatched,
			MatchedKind: reconciliationdomain.MatchCharge, MatchedID: "c2", ImportedAt: day(-7)},
		{ID: "rec2", ReferenceID: "CHG-0001", AmountFile: dec("1260.00"), AmountSystem: decPtr("1250.00"),
			PartnerID: "p1", TransactionDate: day(-1), BankCode: "001", Status: reconciliationdomain.StatusPending,
			ImportedAt: day(-1)},
		{ID: "rec3", ReferenceID: "TED-884512", AmountFile: dec("500.00"), TransactionDate: day(-1),
			BankCode: "237", Status: reconciliationdomain.StatusPending, ImportedAt: day(-1)},
	}

	s.Agenda = []agendadomain.Slot{
		{PartnerID: "p1", Date: date(0), Capacity: 20, Booked: 12, UpdatedAt: day(-1)},
		{PartnerID: "p1", Date: date(1), Capacity: 20, Booked: 5, UpdatedAt: day(-1)},
		{PartnerID: "p2", Date: date(0), Capacity: 10, Booked: 10, UpdatedAt: day(-2)},
	}

	for _, n := range []notificationdomain.Notification{
		{ID: "n1", Type: notificationdomain.TypeKYC, Title: "KYC aprovado",
			Message: "O parceiro Hospital São Lucas foi aprovado.", Priority: notificationdomain.PriorityMedium,
			Read: true, CreatedAt: day(-30), PartnerID: "p1", ActionURL: "/partners/p1"},
		{ID: "n2", Type: notificationdomain.TypeAdvance, Title: "Nova solicitação de antecipação",
			Message: "Hospital São Lucas solicitou R$ 5.000,00.", Priority: notificationdomain.PriorityMedium,
			CreatedAt: day(0), PartnerID: "p1", ActionURL: "/advances/adv1"},
		{ID: "n3", Type: notificationdomain.TypeSecurity, Title: "Tentativa de acesso bloqueada",
			Message: "Três tentativas de login sem sucesso para operador@nel3.com.", Priority: notificationdomain.PriorityCritical,
			CreatedAt: day(0).Add(time.Hour)},
	} {
		n.Seq = s.Sequences[SequenceNotification] + 1
		s.Sequences[SequenceNotification] = n.Seq
		s.Notifications = append(s.Notifications, n)
	}

	return s
}
