package receipt

import (
	"bytes"
	"fmt"
	"html/template"

	"posdesk/internal/core/types"
	"posdesk/internal/domain/sales"
)

var htmlTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"amount": types.FormatAmount,
	"positive": func(m types.Money) bool { return m.IsPositive() },
	"credit": func(t sales.SaleType) bool { return t == sales.SaleTypeCredit },
}).Parse(`<!DOCTYPE html>
<html dir="rtl" lang="ar">
<head>
<meta charset="utf-8">
<title>{{.InvoiceNo}}</title>
<style>
body { font-family: sans-serif; width: 72mm; margin: 0 auto; font-size: 12px; }
h1 { font-size: 16px; text-align: center; margin: 4px 0; }
.center { text-align: center; }
table { width: 100%; border-collapse: collapse; }
td, th { padding: 2px 0; }
.num { text-align: left; }
.sep { border-top: 1px dashed #000; }
</style>
</head>
<body>
<h1>{{.Header.StoreName}}</h1>
{{with .Header.Address}}<div class="center">{{.}}</div>{{end}}
{{with .Header.Phone}}<div class="center">{{.}}</div>{{end}}
<div class="sep"></div>
<div>#{{.InvoiceNo}} &middot; {{.Date}}</div>
{{with .Cashier}}<div>{{.}}</div>{{end}}
{{with .Customer}}<div>{{.}}</div>{{end}}
<table>
<tbody>
{{range .Items}}<tr><td>{{.Quantity}} &times; {{.Name}}{{with .Variant}} ({{.}}){{end}}</td><td class="num">{{amount .Total}}</td></tr>
{{if positive .Discount}}<tr><td colspan="2">- {{amount .Discount}}</td></tr>{{end}}
{{end}}</tbody>
</table>
<div class="sep"></div>
<table>
<tr><td>Subtotal</td><td class="num">{{amount .SubTotal}}</td></tr>
{{if positive .Discount}}<tr><td>Discount</td><td class="num">{{amount .Discount}}</td></tr>{{end}}
<tr><th>Total</th><th class="num">{{amount .Total}}</th></tr>
<tr><td>Paid{{with .PaymentMethod}} ({{.}}){{end}}</td><td class="num">{{amount .Paid}}</td></tr>
{{if positive .Remaining}}<tr><td>Remaining</td><td class="num">{{amount .Remaining}}</td></tr>{{end}}
</table>
{{if credit .SaleType}}<div class="center">Credit sale</div>{{end}}
</body>
</html>
`))

// HTML renders the receipt as a standalone printable page.
func HTML(r Receipt) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return buf.String(), nil
}
