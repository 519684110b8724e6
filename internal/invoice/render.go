package invoice

import (
	"fmt"

	"github.com/flosch/pongo2/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// The invoice is deliberately a self-contained HTML document: it ends
// up as an email attachment that accounting opens on its own.
var invoiceTemplate = pongo2.Must(pongo2.FromString(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Invoice — Phase {{ phase_number }}</title></head>
<body>
<h1>Invoice</h1>
<p>Office serial: {{ office_serial }}<br>
Tracking number: {{ tt_number }}<br>
Phase: {{ phase_number }}<br>
Generated: {{ generated_at }}</p>
<table border="1" cellspacing="0" cellpadding="4">
<tr><th>Action item</th><th>Type</th><th>Date</th><th>Minutes</th><th>Subtotal</th></tr>
{% for line in lines %}<tr>
<td>{{ line.Name }}</td>
<td>{{ line.TypeDescription }}</td>
<td>{{ line.Date }}</td>
<td>{{ line.MinutesText }}</td>
<td>{{ line.MoneyText }}</td>
</tr>
{% endfor %}</table>
<p><strong>Grand total:</strong> {{ total_minutes }} minutes, {{ total_money }}</p>
</body>
</html>
`))

var money = message.NewPrinter(language.AmericanEnglish)

type renderedLine struct {
	Name            string
	TypeDescription string
	Date            string
	MinutesText     string
	MoneyText       string
}

// RenderHTML serializes the document. The output is deterministic for a
// given document, which is what makes preview and send byte-identical.
func RenderHTML(doc *Document) ([]byte, error) {
	lines := make([]renderedLine, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		lines = append(lines, renderedLine{
			Name:            l.Name,
			TypeDescription: l.TypeDescription,
			Date:            l.Date,
			MinutesText:     money.Sprintf("%.1f", l.Minutes),
			MoneyText:       money.Sprintf("$%.2f", l.Money),
		})
	}
	ttNumber := ""
	if doc.TTNumber != nil {
		ttNumber = fmt.Sprintf("%d", *doc.TTNumber)
	}
	out, err := invoiceTemplate.Execute(pongo2.Context{
		"office_serial": doc.OfficeSerial,
		"tt_number":     ttNumber,
		"phase_number":  doc.PhaseNumber,
		"generated_at":  doc.GeneratedAt.Format("2006-01-02 15:04:05"),
		"lines":         lines,
		"total_minutes": money.Sprintf("%.1f", doc.TotalMinutes),
		"total_money":   money.Sprintf("$%.2f", doc.TotalMoney),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return []byte(out), nil
}
