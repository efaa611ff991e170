package facts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/castlemilk/wealthportal/backend/internal/model"
)

// Section markers of the prompt block.
const (
	SectionProfile  = "### PERFIL DEL USUARIO"
	SectionInvoices = "### FACTURAS RECIENTES"
	SectionHistory  = "### HISTORICO RECIENTE"
	SectionGlobal   = "### RESUMEN GLOBAL DE LA CARTERA"
	SectionClients  = "### INFORMES POR CLIENTE"
	SectionReports  = "### INFORMES RECIENTES"
)

const (
	recentInvoices       = 5
	recentHistory        = 12
	recentClientReports  = 5
	adminReportsPerGroup = 3
)

// ToPromptText renders facts as the plain-text block given to the language
// model. Internal identifiers are never printed; a client's ID is shown only
// when no display name could be resolved.
func ToPromptText(f *Facts) string {
	if f == nil {
		return ""
	}
	currency := DefaultCurrency
	if f.Profile != nil && f.Profile.PreferredCurrency != "" {
		currency = f.Profile.PreferredCurrency
	}

	var b strings.Builder
	writeProfile(&b, f)
	writeInvoices(&b, f, currency)
	writeHistory(&b, f, currency)
	if f.GlobalMetrics != nil {
		writeGlobal(&b, f.GlobalMetrics, currency)
	}
	if f.IsAdmin() {
		writeClientGroups(&b, f.Reports, currency)
	} else {
		writeRecentReports(&b, f.Reports, currency)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeProfile(b *strings.Builder, f *Facts) {
	b.WriteString(SectionProfile + "\n")
	p := f.Profile
	if p == nil {
		p = &model.UserProfile{}
	}
	if p.Name != "" {
		fmt.Fprintf(b, "Nombre: %s\n", p.Name)
	}
	role := "cliente"
	if f.IsAdmin() {
		role = "administrador"
	}
	fmt.Fprintf(b, "Rol: %s\n", role)
	if p.PreferredCurrency != "" {
		fmt.Fprintf(b, "Divisa preferida: %s\n", p.PreferredCurrency)
	}
	if p.RiskProfile != "" {
		fmt.Fprintf(b, "Perfil de riesgo: %s\n", p.RiskProfile)
	}
	if p.ManagementFeePct > 0 {
		fmt.Fprintf(b, "Comision de gestion: %s\n", FormatPercent(p.ManagementFeePct))
	}
	if p.SuccessFeePct > 0 {
		fmt.Fprintf(b, "Comision de exito: %s\n", FormatPercent(p.SuccessFeePct))
	}
	b.WriteString("\n")
}

func writeInvoices(b *strings.Builder, f *Facts, currency string) {
	b.WriteString(SectionInvoices + "\n")
	if len(f.Invoices) == 0 {
		b.WriteString("Sin facturas registradas.\n\n")
		return
	}
	names := f.ClientNames()
	invs := f.Invoices
	if len(invs) > recentInvoices {
		invs = invs[:recentInvoices]
	}
	for _, inv := range invs {
		cur := inv.Currency
		if cur == "" {
			cur = currency
		}
		line := fmt.Sprintf("- Factura %s del %s: %s (%s)",
			inv.Number, inv.IssuedAt.Format("2006-01-02"), FormatCurrency(inv.Amount, cur), invoiceStatusLabel(inv.Status))
		if f.IsAdmin() {
			line += " - " + displayName(names, inv.ClientID)
		}
		if inv.Concept != "" {
			line += " - " + inv.Concept
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func writeHistory(b *strings.Builder, f *Facts, currency string) {
	b.WriteString(SectionHistory + "\n")
	if len(f.History) == 0 {
		b.WriteString("Sin historico disponible.\n\n")
		return
	}
	names := f.ClientNames()
	points := f.History
	if len(points) > recentHistory {
		points = points[len(points)-recentHistory:]
	}
	for _, p := range points {
		line := fmt.Sprintf("- %s: valor neto %s, rentabilidad mensual %s",
			p.Date.Format("2006-01"), FormatCurrency(p.NetValue, currency), FormatPercent(p.MonthlyReturnPct))
		if p.YTDReturnPct != nil {
			line += ", YTD " + FormatPercent(*p.YTDReturnPct)
		}
		if f.IsAdmin() {
			line += " - " + displayName(names, p.ClientID)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func writeGlobal(b *strings.Builder, m *GlobalMetrics, currency string) {
	b.WriteString(SectionGlobal + "\n")
	fmt.Fprintf(b, "Patrimonio total gestionado: %s\n", FormatCurrency(m.TotalAUM, currency))
	fmt.Fprintf(b, "Deuda total: %s\n", FormatCurrency(m.TotalDebt, currency))
	fmt.Fprintf(b, "Clientes activos: %d\n", m.ActiveClients)
	fmt.Fprintf(b, "Rentabilidad YTD media: %s\n", m.AverageYTD)
	if len(m.TopClients) > 0 {
		b.WriteString("Principales clientes por patrimonio:\n")
		for i, c := range m.TopClients {
			fmt.Fprintf(b, "%d. %s: %s\n", i+1, c.Name, FormatCurrency(c.NetWorth, currency))
		}
	}
	if len(m.Allocation) > 0 {
		b.WriteString("Distribucion agregada por categoria:\n")
		for _, c := range m.Allocation {
			fmt.Fprintf(b, "- %s: %s\n", c.Category, FormatCurrency(c.Value, currency))
		}
	}
	b.WriteString("\n")
}

func writeClientGroups(b *strings.Builder, reports []ReportFact, currency string) {
	b.WriteString(SectionClients + "\n")
	if len(reports) == 0 {
		b.WriteString("Sin informes publicados.\n")
		return
	}
	groups := make(map[string][]ReportFact)
	for _, r := range reports {
		groups[r.ClientName] = append(groups[r.ClientName], r)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(b, "Cliente: %s\n", name)
		group := groups[name]
		if len(group) > adminReportsPerGroup {
			group = group[:adminReportsPerGroup]
		}
		for _, r := range group {
			writeReport(b, r, currency, "  ")
		}
	}
}

func writeRecentReports(b *strings.Builder, reports []ReportFact, currency string) {
	b.WriteString(SectionReports + "\n")
	if len(reports) == 0 {
		b.WriteString("Sin informes publicados.\n")
		return
	}
	if len(reports) > recentClientReports {
		reports = reports[:recentClientReports]
	}
	for _, r := range reports {
		writeReport(b, r, currency, "")
	}
}

func writeReport(b *strings.Builder, r ReportFact, currency, indent string) {
	fmt.Fprintf(b, "%s- Informe del %s\n", indent, r.Date.Format("2006-01-02"))
	inner := indent + "  "
	fmt.Fprintf(b, "%sPatrimonio neto: %s\n", inner, FormatCurrency(r.TotalPatrimony, currency))
	fmt.Fprintf(b, "%sDeuda: %s\n", inner, FormatCurrency(r.TotalDebt, currency))
	ytd := r.YTDReturn
	if ytd == "" {
		ytd = "N/D"
	}
	fmt.Fprintf(b, "%sRentabilidad YTD: %s\n", inner, ytd)
	fmt.Fprintf(b, "%sRentabilidad mensual: %s\n", inner, FormatPercent(r.MonthlyReturn))
	if len(r.Banks) > 0 {
		fmt.Fprintf(b, "%sPosicion por banco: %s\n", inner, strings.Join(r.Banks, "; "))
	}
	for _, inv := range r.Invoices {
		fmt.Fprintf(b, "%sFactura asociada: %s (%s)\n", inner, inv.Number, invoiceStatusLabel(inv.Status))
	}
	fmt.Fprintf(b, "%sResumen: %s\n", inner, r.Summary)
}

func displayName(names map[string]string, clientID string) string {
	if n, ok := names[clientID]; ok && n != "" {
		return n
	}
	return clientID
}

func invoiceStatusLabel(s model.InvoiceStatus) string {
	switch s {
	case model.InvoiceStatusPaid:
		return "pagada"
	case model.InvoiceStatusPending:
		return "pendiente"
	case model.InvoiceStatusVoid:
		return "anulada"
	case model.InvoiceStatusDraft:
		return "borrador"
	}
	return string(s)
}
