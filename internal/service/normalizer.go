package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// aliases lists, per logical field, the inbound keys that may carry it, in preference order.
var (
	cvvAliases  = []string{domain.FieldCVV, domain.FieldSecurityCode}
	dateAliases = []string{domain.FieldExpirationDate, domain.FieldExpirationShort}
)

// Normalizer reconciles the inbound schema variants into a CanonicalOutboundRequest.
// It holds no mutable state; calling Normalize twice on the same input yields equal results.
type Normalizer struct {
	allowZeroAmount bool
}

// NewNormalizer creates a Normalizer. With allowZeroAmount=false a zero monto is
// reported as missing, matching the behaviour callers already depend on.
func NewNormalizer(allowZeroAmount bool) *Normalizer {
	return &Normalizer{allowZeroAmount: allowZeroAmount}
}

// Normalize builds the canonical request or fails with *domain.ErrInvalidDateFormat
// (malformed MM/YY) or *domain.ErrMissingFields (every absent field, in canonical order).
func (n *Normalizer) Normalize(raw domain.InboundRequest) (*domain.CanonicalOutboundRequest, error) {
	out := &domain.CanonicalOutboundRequest{}
	var missing []string

	out.CodigoUnicoTransaccion = scalarString(raw[domain.FieldTransactionID])
	if out.CodigoUnicoTransaccion == "" {
		missing = append(missing, domain.FieldTransactionID)
	}

	out.NumeroTarjeta = scalarString(raw[domain.FieldCardNumber])
	if out.NumeroTarjeta == "" {
		missing = append(missing, domain.FieldCardNumber)
	}

	out.CVV = resolveCVV(raw)
	if out.CVV == "" {
		missing = append(missing, domain.FieldCVV)
	}

	date, err := resolveExpiration(raw)
	if err != nil {
		return nil, err
	}
	if date != "" && !isISODate(date) {
		field, value := expirationSource(raw)
		return nil, &domain.ErrInvalidDateFormat{Field: field, Raw: value}
	}
	out.FechaCaducidad = date
	if out.FechaCaducidad == "" {
		missing = append(missing, domain.FieldExpirationDate)
	}

	out.Monto = n.resolveAmount(raw[domain.FieldAmount])
	if out.Monto == "" {
		missing = append(missing, domain.FieldAmount)
	}

	if len(missing) > 0 {
		return nil, &domain.ErrMissingFields{Fields: missing}
	}
	return out, nil
}

func resolveCVV(raw domain.InboundRequest) string {
	for _, key := range cvvAliases {
		if v := scalarString(raw[key]); v != "" {
			return v
		}
	}
	return ""
}

// resolveExpiration prefers fechaCaducidad (YYYY-MM-DD, passed through) over
// fechaExpiracion (MM/YY, converted). Absence of both returns "" with no error.
func resolveExpiration(raw domain.InboundRequest) (string, error) {
	if v := scalarString(raw[dateAliases[0]]); v != "" {
		return v, nil
	}

	v, ok := raw[dateAliases[1]]
	if !ok || v == nil {
		return "", nil
	}
	s, isString := v.(string)
	if !isString {
		return "", &domain.ErrInvalidDateFormat{Field: domain.FieldExpirationShort, Raw: fmt.Sprint(v)}
	}
	if s == "" {
		return "", nil
	}
	return ConvertExpiration(s)
}

// ConvertExpiration turns MM/YY into YYYY-MM-01: the month is zero-padded to two
// digits and the year is prefixed with "20".
func ConvertExpiration(mmyy string) (string, error) {
	parts := strings.Split(mmyy, "/")
	if len(parts) < 2 {
		return "", &domain.ErrInvalidDateFormat{Field: domain.FieldExpirationShort, Raw: mmyy}
	}
	month, year := parts[0], parts[1]
	if len(month) < 2 {
		month = strings.Repeat("0", 2-len(month)) + month
	}
	return fmt.Sprintf("20%s-%s-01", year, month), nil
}

// isISODate reports whether s has the YYYY-MM-DD shape.
func isISODate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// expirationSource returns the inbound key and value the canonical date was built from.
func expirationSource(raw domain.InboundRequest) (string, string) {
	for _, key := range dateAliases {
		if v := scalarString(raw[key]); v != "" {
			return key, v
		}
	}
	return "", ""
}

// resolveAmount returns monto as a JSON number, or "" when absent, non-numeric,
// or zero (unless zero amounts are allowed).
func (n *Normalizer) resolveAmount(v any) json.Number {
	var text string
	fromString := false
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case float64:
		text = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		text = strconv.Itoa(t)
	case int64:
		text = strconv.FormatInt(t, 10)
	case string:
		text = strings.TrimSpace(t)
		fromString = true
	default:
		return ""
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return ""
	}
	if amount.IsZero() && !n.allowZeroAmount {
		return ""
	}
	if fromString {
		// re-render so forms like ".5" become a valid JSON number
		return json.Number(amount.String())
	}
	return json.Number(text)
}

// scalarString coerces a JSON string or number to its string form. Absent, null,
// boolean and composite values yield "".
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}
