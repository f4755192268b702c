package render

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/nel3/internal/format"
	"github.com/smallbiznis/nel3/internal/invoice/domain"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="pt-BR">
<head>
  <meta charset="utf-8" />
  <title>Nota {{.Invoice.Number}}</title>
  <style>
    :root { --primary: {{.PrimaryColor}}; }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
    }
    .card {
      background: #ffffff;
      max-width: 640px;
      margin: 0 auto;
      padding: 48px;
      border-top: 4px solid var(--primary);
      border-radius: 4px;
    }
    .header { display: flex; justify-content: space-between; margin-bottom: 32px; }
    .header h1 { margin: 0; font-size: 22px; }
    .status { font-weight: 600; color: var(--primary); text-transform: uppercase; font-size: 12px; }
    .label { font-size: 11px; text-transform: uppercase; color: #8792a2; margin-bottom: 4px; font-weight: 600; }
    .value { font-size: 14px; margin-bottom: 20px; }
    .amount { font-size: 28px; font-weight: 700; }
    .footer { margin-top: 32px; font-size: 12px; color: #8792a2; }
  </style>
</head>
<body>
  <div class="card">
    <div class="header">
      <h1>{{.Issuer}}</h1>
      <span class="status">{{statusLabel .Invoice.Status}}</span>
    </div>
    <div class="label">Número</div>
    <div class="value">{{.Invoice.Number}}</div>
    <div class="label">Emissão</div>
    <div class="value">{{formatDate .Invoice.IssueDate}}</div>
    <div class="label">Afiliado</div>
    <div class="value">{{.AffiliateName}}</div>
    <div class="label">Valor</div>
    <div class="amount">{{formatMoney .Invoice.Amount}}</div>
    {{if .FooterNotes}}<div class="footer">{{.FooterNotes}}</div>{{end}}
  </div>
</body>
</html>
`

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Renderer produces the printable view of an invoice.
type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

type RenderInput struct {
	Invoice       domain.Invoice
	AffiliateName string
	Issuer        string
	PrimaryColor  string
	FooterNotes   string
}

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatMoney": func(v decimal.Decimal) string { return format.BRL(v) },
		"formatDate":  formatDate,
		"statusLabel": statusLabel,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(input RenderInput) (string, error) {
	input.PrimaryColor = sanitizeColor(input.PrimaryColor)
	if strings.TrimSpace(input.Issuer) == "" {
		input.Issuer = "nel3"
	}
	if input.AffiliateName == "" {
		input.AffiliateName = "-"
	}

	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, input); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return "-"
	}
	return format.Date(value)
}

func statusLabel(s domain.Status) string {
	switch s {
	case domain.StatusApproved:
		return "Aprovada"
	case domain.StatusRejected:
		return "Rejeitada"
	default:
		return "Pendente"
	}
}

func sanitizeColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if hexColorPattern.MatchString(trimmed) {
		return trimmed
	}
	return "#0f766e"
}
