package remotestore

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/security/validation"
)

// The store keeps spreadsheet cells, so numeric fields come back either as
// JSON numbers or as the strings they were submitted as. flexFloat, flexInt
// and flexString absorb both shapes.

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var v flexFloat
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	*f = flexString(strings.Trim(s, `"`))
	return nil
}

// referenceListsResponse is the GET payload: the two catalogs, or an error.
type referenceListsResponse struct {
	Entities     []string `json:"entidades"`
	ProductTypes []string `json:"tiposProducto"`
	Error        string   `json:"error"`
}

// historyRow mirrors one history sheet row, keyed by the sheet's column
// headers.
type historyRow struct {
	Folio           flexString `json:"Folio"`
	Date            flexString `json:"Fecha"`
	DebtorName      flexString `json:"Nombre Deudor"`
	LineCount       flexInt    `json:"Número Deudas"`
	TotalOriginal   flexFloat  `json:"Deuda Original"`
	TotalDiscounted flexFloat  `json:"Deuda Descontada"`
	Savings         flexFloat  `json:"Ahorro"`
	TotalToPay      flexFloat  `json:"Total a Pagar"`
	Installments    flexInt    `json:"Número Cuotas"`
}

func (r historyRow) toRecord() models.HistoryRecord {
	return models.HistoryRecord{
		Folio:            string(r.Folio),
		Date:             string(r.Date),
		DebtorName:       string(r.DebtorName),
		LineCount:        int(r.LineCount),
		TotalOriginal:    float64(r.TotalOriginal),
		TotalDiscounted:  float64(r.TotalDiscounted),
		Savings:          float64(r.Savings),
		TotalToPay:       float64(r.TotalToPay),
		InstallmentCount: int(r.Installments),
	}
}

type historyResponse struct {
	History []historyRow `json:"historial"`
	Error   string       `json:"error"`
}

// contractRow mirrors a contracts sheet row.
type contractRow struct {
	historyRow
	InstallmentAmount flexFloat `json:"Cuota Mensual"`
}

// detailRow mirrors a details sheet row (one debt line).
type detailRow struct {
	ContractNumber   flexString `json:"Número Contrato"`
	ProductType      flexString `json:"Tipo Producto"`
	Entity           flexString `json:"Entidad"`
	OriginalAmount   flexFloat  `json:"Deuda Original"`
	DiscountPercent  flexFloat  `json:"Porcentaje Descuento"`
	DiscountedAmount flexFloat  `json:"Deuda Con Descuento"`
}

type detailResponse struct {
	Contract *contractRow `json:"contrato"`
	Details  []detailRow  `json:"detalles"`
	Error    string       `json:"error"`
}

func (r *detailResponse) toPlan() *models.Plan {
	plan := &models.Plan{
		Folio:             string(r.Contract.Folio),
		Date:              string(r.Contract.Date),
		DebtorName:        string(r.Contract.DebtorName),
		LineCount:         int(r.Contract.LineCount),
		TotalOriginal:     float64(r.Contract.TotalOriginal),
		TotalDiscounted:   float64(r.Contract.TotalDiscounted),
		Savings:           float64(r.Contract.Savings),
		TotalToPay:        float64(r.Contract.TotalToPay),
		InstallmentCount:  int(r.Contract.Installments),
		InstallmentAmount: float64(r.Contract.InstallmentAmount),
	}
	for _, d := range r.Details {
		plan.Lines = append(plan.Lines, models.DebtLine{
			ContractNumber:   string(d.ContractNumber),
			ProductType:      string(d.ProductType),
			Entity:           string(d.Entity),
			OriginalAmount:   float64(d.OriginalAmount),
			DiscountPercent:  float64(d.DiscountPercent),
			DiscountedAmount: float64(d.DiscountedAmount),
		})
	}
	return plan
}

// detailPayload is the outgoing JSON encoding of a debt line, nested inside
// the "detalles" form field.
type detailPayload struct {
	ContractNumber   string  `json:"numeroContrato"`
	ProductType      string  `json:"tipoProducto"`
	Entity           string  `json:"entidad"`
	OriginalAmount   float64 `json:"importeDeuda"`
	DiscountPercent  float64 `json:"porcentajeDescuento"`
	DiscountedAmount float64 `json:"importeConDescuento"`
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// planForm encodes a full plan, lines included, as the form fields the store
// expects for guardarContrato / actualizarContrato.
func planForm(plan *models.Plan) (url.Values, error) {
	details := make([]detailPayload, 0, len(plan.Lines))
	for _, line := range plan.Lines {
		details = append(details, detailPayload{
			ContractNumber:   validation.CleanCell(line.ContractNumber),
			ProductType:      validation.CleanCell(line.ProductType),
			Entity:           validation.CleanCell(line.Entity),
			OriginalAmount:   line.OriginalAmount,
			DiscountPercent:  line.DiscountPercent,
			DiscountedAmount: line.DiscountedAmount,
		})
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encoding plan details: %w", err)
	}

	form := url.Values{}
	form.Set("folio", plan.Folio)
	form.Set("fecha", plan.Date)
	form.Set("nombreDeudor", validation.CleanCell(plan.DebtorName))
	form.Set("numeroDeudas", strconv.Itoa(plan.LineCount))
	form.Set("deudaOriginal", money(plan.TotalOriginal))
	form.Set("deudaDescontada", money(plan.TotalDiscounted))
	form.Set("ahorro", money(plan.Savings))
	form.Set("totalAPagar", money(plan.TotalToPay))
	form.Set("cuotaMensual", money(plan.InstallmentAmount))
	form.Set("numCuotas", strconv.Itoa(plan.InstallmentCount))
	form.Set("detalles", string(encoded))
	return form, nil
}

// historyForm encodes a summary record for guardarHistorial. History rows
// never carry line detail.
func historyForm(record models.HistoryRecord) url.Values {
	form := url.Values{}
	form.Set("folio", record.Folio)
	form.Set("fecha", record.Date)
	form.Set("nombreDeudor", validation.CleanCell(record.DebtorName))
	form.Set("numeroDeudas", strconv.Itoa(record.LineCount))
	form.Set("deudaOriginal", money(record.TotalOriginal))
	form.Set("deudaDescontada", money(record.TotalDiscounted))
	form.Set("ahorro", money(record.Savings))
	form.Set("totalAPagar", money(record.TotalToPay))
	form.Set("numCuotas", strconv.Itoa(record.InstallmentCount))
	return form
}

// normalizeAck maps a write acknowledgment body into the error taxonomy.
// Depending on the action the store answers either a plain-text sentinel
// ("OK: ..." / "ERROR: ...") or a JSON object with an error field; both are
// accepted.
func normalizeAck(op string, body []byte) error {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "OK:") || trimmed == "OK" {
		return nil
	}
	if strings.HasPrefix(trimmed, "ERROR:") {
		return serverError(op, strings.TrimSpace(strings.TrimPrefix(trimmed, "ERROR:")))
	}

	var probe struct {
		Error   string `json:"error"`
		Success *bool  `json:"success"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return &models.NetworkError{Op: op, Err: fmt.Errorf("unrecognized response %q", truncate(trimmed, 120))}
	}
	if probe.Error != "" {
		return serverError(op, probe.Error)
	}
	if probe.Success != nil && !*probe.Success {
		return serverError(op, "server reported failure")
	}
	return nil
}

// serverError classifies a server-reported error message. The store reports
// unknown folios as "... no encontrado", which maps onto ErrNotFound so
// callers can distinguish the create and update paths.
func serverError(op, msg string) error {
	if strings.Contains(strings.ToLower(msg), "no encontrado") {
		return models.ErrNotFound
	}
	return models.NewValidationError(op, msg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
