// Package redact masks card data before it reaches any log sink.
package redact

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

const (
	panMask = "****"
	cvvMask = "***"
)

// PAN keeps only the last four digits of a card number.
func PAN(pan string) string {
	pan = strings.TrimSpace(pan)
	if len(pan) <= 4 {
		return panMask
	}
	return panMask + pan[len(pan)-4:]
}

// CVV hides the security code entirely.
func CVV(string) string {
	return cvvMask
}

// Scrub replaces every occurrence of pan and cvv in text with their masked forms.
// Used on downstream bodies, which may echo the request back.
func Scrub(text, pan, cvv string) string {
	if pan = strings.TrimSpace(pan); pan != "" {
		text = strings.ReplaceAll(text, pan, PAN(pan))
	}
	if cvv = strings.TrimSpace(cvv); cvv != "" {
		text = strings.ReplaceAll(text, cvv, cvvMask)
	}
	return text
}

// Inbound returns a copy of the raw payload that is safe to log.
func Inbound(raw domain.InboundRequest) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		switch k {
		case domain.FieldCardNumber:
			out[k] = PAN(fmt.Sprint(v))
		case domain.FieldCVV, domain.FieldSecurityCode:
			out[k] = cvvMask
		default:
			out[k] = v
		}
	}
	return out
}

// Fingerprinter derives a stable, keyed card reference for log correlation.
// A zero-value Fingerprinter (no key) emits nothing.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter creates a Fingerprinter keyed with pepper. BLAKE2b accepts keys up to 64 bytes;
// longer peppers are hashed down first.
func NewFingerprinter(pepper string) *Fingerprinter {
	if pepper == "" {
		return &Fingerprinter{}
	}
	key := []byte(pepper)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	return &Fingerprinter{key: key}
}

// Fingerprint returns the first 16 hex chars of BLAKE2b-256(key, pan), or "" when unkeyed.
func (f *Fingerprinter) Fingerprint(pan string) string {
	if f == nil || len(f.key) == 0 || pan == "" {
		return ""
	}
	h, err := blake2b.New256(f.key)
	if err != nil {
		return ""
	}
	h.Write([]byte(pan))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// OutboundFields returns zap fields describing a canonical request with card data masked.
func OutboundFields(req *domain.CanonicalOutboundRequest, fp *Fingerprinter) []zap.Field {
	fields := []zap.Field{
		zap.String("codigo_unico_transaccion", req.CodigoUnicoTransaccion),
		zap.String("numero_tarjeta", PAN(req.NumeroTarjeta)),
		zap.String("cvv", CVV(req.CVV)),
		zap.String("fecha_caducidad", req.FechaCaducidad),
		zap.String("monto", req.Monto.String()),
	}
	if id := fp.Fingerprint(req.NumeroTarjeta); id != "" {
		fields = append(fields, zap.String("card_fp", id))
	}
	return fields
}
