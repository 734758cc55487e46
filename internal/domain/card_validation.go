package domain

import "encoding/json"

// ============================================================
// Card validation (MARCA) models
// ============================================================

// Inbound field names, as sent by the calling application across schema versions.
const (
	FieldTransactionID   = "codigoUnicoTransaccion"
	FieldCardNumber      = "numeroTarjeta"
	FieldCVV             = "cvv"
	FieldSecurityCode    = "codigoSeguridad"
	FieldExpirationDate  = "fechaCaducidad"  // YYYY-MM-DD
	FieldExpirationShort = "fechaExpiracion" // MM/YY
	FieldAmount          = "monto"
)

// InboundRequest is the untrusted payload received from the caller.
// Numbers are decoded as json.Number so their literal text survives.
type InboundRequest map[string]any

// CanonicalOutboundRequest is the body POSTed to the card network.
type CanonicalOutboundRequest struct {
	CodigoUnicoTransaccion string      `json:"codigoUnicoTransaccion"`
	NumeroTarjeta          string      `json:"numeroTarjeta"`
	CVV                    string      `json:"cvv"`
	FechaCaducidad         string      `json:"fechaCaducidad"`
	Monto                  json.Number `json:"monto"`
}

// Downstream response keys.
const (
	ResultValid      = "esValida"
	ResultValidAlias = "tarjetaValida"
	ResultMessage    = "mensaje"
	ResultSwift      = "swiftBanco"
)

// ValidationResult is the loosely typed body returned by the card network.
// Coercion and defaulting happen in the response mapper, not here.
type ValidationResult map[string]any

// DefaultResultMessage is used when the network omits "mensaje".
const DefaultResultMessage = "Validación completada"

// ClientResponseBody is the JSON returned to the caller.
// SwiftBanco is only present on the success path; Error only on failures past normalization.
type ClientResponseBody struct {
	TarjetaValida bool    `json:"tarjetaValida"`
	Mensaje       string  `json:"mensaje"`
	SwiftBanco    *string `json:"swiftBanco,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// ClientResponse pairs the HTTP status with the body, independent of transport
// (chi handler or API Gateway proxy).
type ClientResponse struct {
	StatusCode int
	Body       ClientResponseBody
}

// ResponseHeaders are carried by every client response.
func ResponseHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                     "application/json",
		"Access-Control-Allow-Origin":      "*",
		"Access-Control-Allow-Credentials": "true",
	}
}
