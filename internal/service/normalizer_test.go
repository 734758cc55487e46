package service_test

import (
	"encoding/json"
	"testing"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
	"github.com/boddenberg/card-validation-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func currentSchemaRequest() domain.InboundRequest {
	return domain.InboundRequest{
		"codigoUnicoTransaccion": "TX-1",
		"numeroTarjeta":          "4111111111111111",
		"cvv":                    "123",
		"fechaCaducidad":         "2026-09-01",
		"monto":                  json.Number("150.75"),
	}
}

func legacySchemaRequest() domain.InboundRequest {
	return domain.InboundRequest{
		"codigoUnicoTransaccion": "TX-1",
		"numeroTarjeta":          "4111111111111111",
		"codigoSeguridad":        json.Number("123"),
		"fechaExpiracion":        "09/26",
		"monto":                  json.Number("150.75"),
	}
}

func TestNormalize_CurrentSchemaPassesThrough(t *testing.T) {
	out, err := service.NewNormalizer(false).Normalize(currentSchemaRequest())
	require.NoError(t, err)

	assert.Equal(t, &domain.CanonicalOutboundRequest{
		CodigoUnicoTransaccion: "TX-1",
		NumeroTarjeta:          "4111111111111111",
		CVV:                    "123",
		FechaCaducidad:         "2026-09-01",
		Monto:                  json.Number("150.75"),
	}, out)
}

func TestNormalize_LegacySchemaMatchesCurrent(t *testing.T) {
	n := service.NewNormalizer(false)

	current, err := n.Normalize(currentSchemaRequest())
	require.NoError(t, err)
	legacy, err := n.Normalize(legacySchemaRequest())
	require.NoError(t, err)

	assert.Equal(t, current, legacy)
}

func TestNormalize_NumericSecurityCodeBecomesString(t *testing.T) {
	out, err := service.NewNormalizer(false).Normalize(legacySchemaRequest())
	require.NoError(t, err)
	assert.Equal(t, "123", out.CVV)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"cvv":"123"`)
	assert.Contains(t, string(body), `"monto":150.75`)
	assert.NotContains(t, string(body), "codigoSeguridad")
	assert.NotContains(t, string(body), "fechaExpiracion")
}

func TestNormalize_CVVWinsOverSecurityCode(t *testing.T) {
	raw := currentSchemaRequest()
	raw["codigoSeguridad"] = "999"

	out, err := service.NewNormalizer(false).Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "123", out.CVV)
}

func TestNormalize_FechaCaducidadWinsOverFechaExpiracion(t *testing.T) {
	raw := currentSchemaRequest()
	raw["fechaExpiracion"] = "01/30"

	out, err := service.NewNormalizer(false).Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", out.FechaCaducidad)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := service.NewNormalizer(false)
	raw := legacySchemaRequest()

	first, err := n.Normalize(raw)
	require.NoError(t, err)
	second, err := n.Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "09/26", raw["fechaExpiracion"], "input must not be mutated")
}

func TestNormalize_MissingCVV(t *testing.T) {
	raw := currentSchemaRequest()
	delete(raw, "cvv")

	_, err := service.NewNormalizer(false).Normalize(raw)

	var missing *domain.ErrMissingFields
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"cvv"}, missing.Fields)
}

func TestNormalize_AllFieldsMissing(t *testing.T) {
	_, err := service.NewNormalizer(false).Normalize(domain.InboundRequest{})

	var missing *domain.ErrMissingFields
	require.ErrorAs(t, err, &missing)
	assert.Equal(t,
		[]string{"codigoUnicoTransaccion", "numeroTarjeta", "cvv", "fechaCaducidad", "monto"},
		missing.Fields,
	)
	assert.Equal(t,
		"Datos insuficientes para la validación: faltan codigoUnicoTransaccion, numeroTarjeta, cvv, fechaCaducidad, monto",
		err.Error(),
	)
}

func TestNormalize_EmptyAndNullCountAsMissing(t *testing.T) {
	raw := currentSchemaRequest()
	raw["numeroTarjeta"] = ""
	raw["cvv"] = nil

	_, err := service.NewNormalizer(false).Normalize(raw)

	var missing *domain.ErrMissingFields
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"numeroTarjeta", "cvv"}, missing.Fields)
}

func TestNormalize_BooleanCVVIsMissing(t *testing.T) {
	raw := currentSchemaRequest()
	raw["cvv"] = true

	_, err := service.NewNormalizer(false).Normalize(raw)

	var missing *domain.ErrMissingFields
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"cvv"}, missing.Fields)
}

func TestNormalize_ZeroAmount(t *testing.T) {
	raw := currentSchemaRequest()
	raw["monto"] = json.Number("0")

	_, err := service.NewNormalizer(false).Normalize(raw)
	var missing *domain.ErrMissingFields
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"monto"}, missing.Fields)

	out, err := service.NewNormalizer(true).Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, json.Number("0"), out.Monto)
}

func TestNormalize_AmountForms(t *testing.T) {
	tests := []struct {
		name  string
		monto any
		want  json.Number
	}{
		{"json number", json.Number("10"), "10"},
		{"float", 12.5, "12.5"},
		{"int", 7, "7"},
		{"numeric string", "99.90", "99.9"},
		{"leading dot string", ".5", "0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := currentSchemaRequest()
			raw["monto"] = tt.monto

			out, err := service.NewNormalizer(false).Normalize(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Monto)
		})
	}
}

func TestNormalize_NonNumericAmountIsMissing(t *testing.T) {
	raw := currentSchemaRequest()
	raw["monto"] = "cien"

	_, err := service.NewNormalizer(false).Normalize(raw)

	var missing *domain.ErrMissingFields
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"monto"}, missing.Fields)
}

func TestNormalize_InvalidExpirationFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"no slash", "fechaExpiracion", "0926"},
		{"not a string", "fechaExpiracion", json.Number("926")},
		{"garbled month", "fechaExpiracion", "ab/26"},
		{"iso with slashes", "fechaCaducidad", "2026/09/01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := currentSchemaRequest()
			delete(raw, "fechaCaducidad")
			raw[tt.key] = tt.val

			_, err := service.NewNormalizer(false).Normalize(raw)

			var badDate *domain.ErrInvalidDateFormat
			require.ErrorAs(t, err, &badDate)
		})
	}
}

func TestNormalize_InvalidDateNamesExpectedFormat(t *testing.T) {
	n := service.NewNormalizer(false)

	raw := currentSchemaRequest()
	raw["fechaCaducidad"] = "01/09/2026"
	_, err := n.Normalize(raw)

	var badDate *domain.ErrInvalidDateFormat
	require.ErrorAs(t, err, &badDate)
	assert.Equal(t, "fechaCaducidad", badDate.Field)
	assert.Equal(t, `Formato de fecha inválido: "01/09/2026" (se esperaba YYYY-MM-DD)`, err.Error())

	raw = legacySchemaRequest()
	raw["fechaExpiracion"] = "0926"
	_, err = n.Normalize(raw)

	require.ErrorAs(t, err, &badDate)
	assert.Equal(t, "fechaExpiracion", badDate.Field)
	assert.Equal(t, `Formato de fecha inválido: "0926" (se esperaba MM/YY)`, err.Error())
}

func TestConvertExpiration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"09/26", "2026-09-01"},
		{"9/26", "2026-09-01"},
		{"12/30", "2030-12-01"},
	}
	for _, tt := range tests {
		got, err := service.ConvertExpiration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := service.ConvertExpiration("0926")
	var badDate *domain.ErrInvalidDateFormat
	require.ErrorAs(t, err, &badDate)
	assert.Equal(t, "0926", badDate.Raw)
}
