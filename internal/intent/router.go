// Package intent answers common financial questions straight from Facts so
// that they never reach the language model.
package intent

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/castlemilk/wealthportal/backend/internal/facts"
	"github.com/castlemilk/wealthportal/backend/internal/model"
	"github.com/castlemilk/wealthportal/backend/internal/textnorm"
)

// Intent names.
const (
	NetWorth     = "net_worth"
	Debt         = "debt"
	Performance  = "performance"
	Invoices     = "invoices"
	BankPosition = "bank_position"
	LatestReport = "latest_report"
)

// Answer is a deterministic reply produced by an intent.
type Answer struct {
	Intent string
	Text   string
}

// answerFunc builds the reply for a matched question. match holds the
// submatches of the intent pattern against the folded question.
type answerFunc func(f *facts.Facts, match []string) string

type intent struct {
	name    string
	pattern *regexp.Regexp
	answer  answerFunc
}

// Router tries a fixed, ordered list of intents; the first match wins.
type Router struct {
	intents []intent
	logger  *slog.Logger
}

// NewRouter creates a router with the built-in intents.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger: logger,
		intents: []intent{
			{NetWorth, regexp.MustCompile(`\bpatrimonio\b|\bnet ?worth\b|\bcuanto (?:dinero )?tengo\b|\bvalor (?:total )?de (?:mi )?cartera\b`), answerNetWorth},
			{Debt, regexp.MustCompile(`\bdeudas?\b|\bdebt\b|\bapalancamiento\b|\bprestamos?\b`), answerDebt},
			{Performance, regexp.MustCompile(`\brentabilidad\b|\brendimiento\b|\bytd\b|\breturns?\b|\bperformance\b`), answerPerformance},
			{Invoices, regexp.MustCompile(`\bfacturas?\b|\binvoices?\b|\bhonorarios\b`), answerInvoices},
			{BankPosition, regexp.MustCompile(`\b(?:banco|bank|entidad)\s+([a-z0-9][a-z0-9&.\- ]{0,40})`), answerBank},
			{LatestReport, regexp.MustCompile(`\bultimo (?:informe|documento|reporte)\b|\b(?:informe|documento|reporte) mas reciente\b|\blatest report\b|\bmost recent (?:report|document)\b`), answerLatestReport},
		},
	}
}

// Route returns the answer of the first intent whose pattern matches the
// question, or nil when none does.
func (r *Router) Route(question string, f *facts.Facts) *Answer {
	if f == nil {
		return nil
	}
	q := textnorm.Lower(strings.Join(strings.Fields(question), " "))
	if q == "" {
		return nil
	}
	for _, in := range r.intents {
		m := in.pattern.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		r.logger.Debug("[intent] matched", "intent", in.name, "admin", f.IsAdmin())
		return &Answer{Intent: in.name, Text: in.answer(f, m)}
	}
	return nil
}

const noReports = "Todavia no hay informes publicados con los que responder a esa pregunta."

func currencyOf(f *facts.Facts) string {
	if f.Profile != nil && f.Profile.PreferredCurrency != "" {
		return f.Profile.PreferredCurrency
	}
	return facts.DefaultCurrency
}

func money(f *facts.Facts, v float64) string {
	return facts.FormatCurrency(v, currencyOf(f))
}

func reportDate(r *facts.ReportFact) string {
	return r.Date.Format("02/01/2006")
}

func answerNetWorth(f *facts.Facts, _ []string) string {
	if f.IsAdmin() {
		if f.GlobalMetrics == nil {
			return noReports
		}
		m := f.GlobalMetrics
		return fmt.Sprintf("El patrimonio total gestionado es de %s, repartido entre %d clientes activos.",
			money(f, m.TotalAUM), m.ActiveClients)
	}
	if f.LatestReport == nil {
		return noReports
	}
	r := f.LatestReport
	return fmt.Sprintf("Segun tu informe del %s, tu patrimonio neto es de %s.", reportDate(r), money(f, r.TotalPatrimony))
}

func answerDebt(f *facts.Facts, _ []string) string {
	if f.IsAdmin() {
		if f.GlobalMetrics == nil {
			return noReports
		}
		m := f.GlobalMetrics
		return fmt.Sprintf("La deuda total de los clientes es de %s frente a un patrimonio gestionado de %s.",
			money(f, m.TotalDebt), money(f, m.TotalAUM))
	}
	if f.LatestReport == nil {
		return noReports
	}
	r := f.LatestReport
	if r.TotalDebt == 0 {
		return fmt.Sprintf("Segun tu informe del %s, no tienes deuda registrada.", reportDate(r))
	}
	return fmt.Sprintf("Segun tu informe del %s, tu deuda es de %s.", reportDate(r), money(f, r.TotalDebt))
}

func answerPerformance(f *facts.Facts, _ []string) string {
	if f.IsAdmin() {
		if f.GlobalMetrics == nil {
			return noReports
		}
		return fmt.Sprintf("La rentabilidad media en lo que va de ano de los clientes es del %s.", f.GlobalMetrics.AverageYTD)
	}
	if f.LatestReport == nil {
		return noReports
	}
	r := f.LatestReport
	ytd := r.YTDReturn
	if ytd == "" {
		ytd = "no disponible"
	}
	return fmt.Sprintf("Tu rentabilidad en lo que va de ano es %s y la del ultimo mes fue del %s (informe del %s).",
		ytd, facts.FormatPercent(r.MonthlyReturn), reportDate(r))
}

func answerInvoices(f *facts.Facts, _ []string) string {
	if len(f.Invoices) == 0 {
		if f.IsAdmin() {
			return "No hay facturas registradas."
		}
		return "No tienes facturas registradas."
	}
	if f.IsAdmin() {
		pending := 0
		var amount float64
		for _, inv := range f.Invoices {
			if inv.Status == model.InvoiceStatusPending {
				pending++
				amount += inv.Amount
			}
		}
		if pending == 0 {
			return fmt.Sprintf("Hay %d facturas registradas y ninguna pendiente de cobro.", len(f.Invoices))
		}
		return fmt.Sprintf("Hay %d facturas pendientes de cobro por un total de %s.", pending, money(f, amount))
	}
	inv := f.Invoices[0]
	cur := inv.Currency
	if cur == "" {
		cur = currencyOf(f)
	}
	return fmt.Sprintf("Tu ultima factura (%s, emitida el %s) es de %s y esta %s.",
		inv.Number, inv.IssuedAt.Format("02/01/2006"), facts.FormatCurrency(inv.Amount, cur), statusLabel(inv.Status))
}

func answerBank(f *facts.Facts, match []string) string {
	if f.LatestReport == nil {
		return noReports
	}
	r := f.LatestReport
	name := ""
	if len(match) > 1 {
		name = match[1]
	}
	line, ok := findBank(r.Banks, name)
	if !ok {
		return fmt.Sprintf("No encuentro una posicion en el banco %s en el informe del %s.", strings.TrimSpace(name), reportDate(r))
	}
	if f.IsAdmin() {
		return fmt.Sprintf("En el informe del %s de %s, la posicion es %s.", reportDate(r), r.ClientName, line)
	}
	return fmt.Sprintf("Segun tu informe del %s, tu posicion es %s.", reportDate(r), line)
}

// findBank matches the longest leading word run of name against the bank
// lines, case- and accent-insensitively.
func findBank(lines []string, name string) (string, bool) {
	words := strings.Fields(strings.Trim(name, " .-"))
	for n := len(words); n > 0; n-- {
		needle := strings.Join(words[:n], " ")
		for _, line := range lines {
			bank, _, _ := strings.Cut(line, ":")
			if strings.Contains(textnorm.Lower(bank), needle) {
				return line, true
			}
		}
	}
	return "", false
}

func answerLatestReport(f *facts.Facts, _ []string) string {
	if f.LatestReport == nil {
		return noReports
	}
	r := f.LatestReport
	if f.IsAdmin() {
		return fmt.Sprintf("El informe mas reciente es del %s, de %s, con un patrimonio neto de %s.",
			reportDate(r), r.ClientName, money(f, r.TotalPatrimony))
	}
	return fmt.Sprintf("Tu informe mas reciente es del %s, con un patrimonio neto de %s.", reportDate(r), money(f, r.TotalPatrimony))
}

func statusLabel(s model.InvoiceStatus) string {
	switch s {
	case model.InvoiceStatusPaid:
		return "pagada"
	case model.InvoiceStatusPending:
		return "pendiente de pago"
	case model.InvoiceStatusVoid:
		return "anulada"
	}
	return "en borrador"
}
