package checkout

import (
	"strconv"
	"strings"
	"unicode"

	"posdesk/internal/domain/sales"
)

// CreditMarker is the method code recorded for a credit sale with nothing paid.
const CreditMarker = "credit"

// aliases maps normalized labels cashiers type or legacy drafts carry to a
// canonical code.
var aliases = map[string]string{
	"cash":         "cash",
	"نقدي":         "cash",
	"نقدا":         "cash",
	"نقداً":        "cash",
	"كاش":          "cash",
	"card":         "card",
	"visa":         "card",
	"mastercard":   "card",
	"creditcard":   "card",
	"bankcard":     "card",
	"بطاقة":        "card",
	"فيزا":         "card",
	"wallet":       "wallet",
	"ewallet":      "wallet",
	"mobilewallet": "wallet",
	"vodafonecash": "wallet",
	"محفظة":        "wallet",
	"instapay":     "instapay",
	"انستاباي":     "instapay",
	"transfer":     "transfer",
	"banktransfer": "transfer",
	"تحويل":        "transfer",
	"credit":       CreditMarker,
	"deferred":     CreditMarker,
	"آجل":          CreditMarker,
	"اجل":          CreditMarker,
}

// ResolvedMethod is the payment method submitted with a sale or payment.
type ResolvedMethod struct {
	ID   *int64
	Code string
	Name string
}

// normalizeMethod lowercases and drops spaces, dashes and underscores, then
// applies aliases.
func normalizeMethod(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' {
			continue
		}
		b.WriteRune(r)
	}
	n := b.String()
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// ResolveMethod maps a raw draft value to a known payment method: an id present
// in methods, else a code or name matching after normalization, else the first
// method. With no methods at all the raw value is kept as the code.
func ResolveMethod(raw string, methods []sales.PaymentMethod) ResolvedMethod {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		for _, m := range methods {
			if m.ID == id {
				return fromMethod(m)
			}
		}
	}
	if want := normalizeMethod(raw); want != "" {
		for _, m := range methods {
			if normalizeMethod(m.Code) == want || normalizeMethod(m.Name) == want {
				return fromMethod(m)
			}
		}
	}
	if len(methods) > 0 {
		return fromMethod(methods[0])
	}
	code := normalizeMethod(raw)
	if code == "" {
		code = "cash"
	}
	return ResolvedMethod{Code: code, Name: raw}
}

// creditMethod is the method of a credit sale with nothing paid: the configured
// credit method when one exists, else the bare marker.
func creditMethod(methods []sales.PaymentMethod) ResolvedMethod {
	for _, m := range methods {
		if normalizeMethod(m.Code) == CreditMarker || normalizeMethod(m.Name) == CreditMarker {
			r := fromMethod(m)
			r.Code = CreditMarker
			return r
		}
	}
	return ResolvedMethod{Code: CreditMarker, Name: "Credit"}
}

func fromMethod(m sales.PaymentMethod) ResolvedMethod {
	id := m.ID
	code := m.Code
	if code == "" {
		code = normalizeMethod(m.Name)
	}
	return ResolvedMethod{ID: &id, Code: code, Name: m.Name}
}
