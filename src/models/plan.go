package models

// Plan is the aggregated debt-restructuring quote, identified by its folio.
// Totals are always derived from the line set by the aggregation engine.
type Plan struct {
	Folio             string     `json:"folio"`
	Date              string     `json:"date"` // dd/mm/yyyy, the format the store persists
	DebtorName        string     `json:"debtorName"`
	LineCount         int        `json:"lineCount"`
	TotalOriginal     float64    `json:"totalOriginal"`
	TotalDiscounted   float64    `json:"totalDiscounted"`
	Savings           float64    `json:"savings"`
	TotalToPay        float64    `json:"totalToPay"`
	InstallmentCount  int        `json:"installmentCount"`
	InstallmentAmount float64    `json:"installmentAmount"`
	Lines             []DebtLine `json:"lines"`
}

// Summary projects the plan into the denormalized shape appended to the
// history log. History rows carry no line detail; detail is always re-fetched
// by folio.
func (p *Plan) Summary() HistoryRecord {
	return HistoryRecord{
		Folio:            p.Folio,
		Date:             p.Date,
		DebtorName:       p.DebtorName,
		LineCount:        p.LineCount,
		TotalOriginal:    p.TotalOriginal,
		TotalDiscounted:  p.TotalDiscounted,
		Savings:          p.Savings,
		TotalToPay:       p.TotalToPay,
		InstallmentCount: p.InstallmentCount,
	}
}

// HistoryRecord is one row of the append-only history log: a summary of a plan
// as it looked when it was created or saved.
type HistoryRecord struct {
	Folio            string  `json:"folio"`
	Date             string  `json:"date"`
	DebtorName       string  `json:"debtorName"`
	LineCount        int     `json:"lineCount"`
	TotalOriginal    float64 `json:"totalOriginal"`
	TotalDiscounted  float64 `json:"totalDiscounted"`
	Savings          float64 `json:"savings"`
	TotalToPay       float64 `json:"totalToPay"`
	InstallmentCount int     `json:"installmentCount"`
}
