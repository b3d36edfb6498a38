package models

import (
	"strings"

	"github.com/username/debtfolio/src/utils"
)

// DebtLine represents a single original debt with its negotiated discount.
// DiscountedAmount is always derived from OriginalAmount and DiscountPercent;
// it is never set independently.
type DebtLine struct {
	ContractNumber   string  `json:"contractNumber"`
	ProductType      string  `json:"productType"`
	Entity           string  `json:"entity"`
	OriginalAmount   float64 `json:"originalAmount"`
	DiscountPercent  float64 `json:"discountPercent"`
	DiscountedAmount float64 `json:"discountedAmount"`
}

// ValidationWarning signals a recoverable input problem that was corrected
// automatically (e.g. an out-of-range percentage that got clamped).
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Recompute clamps DiscountPercent into [0,100] and rederives DiscountedAmount.
// It must be called after every mutation of OriginalAmount or DiscountPercent;
// nothing else may touch DiscountedAmount.
func (d *DebtLine) Recompute() []ValidationWarning {
	var warnings []ValidationWarning
	clamped, changed := utils.ClampPercent(d.DiscountPercent)
	if changed {
		warnings = append(warnings, ValidationWarning{
			Field:   "discountPercent",
			Message: "discount percentage out of range [0,100], clamped",
		})
		d.DiscountPercent = clamped
	}
	d.DiscountedAmount = utils.DiscountedAmount(d.OriginalAmount, d.DiscountPercent)
	return warnings
}

// Complete reports whether the line carries enough valid data to be included
// in an aggregation: a contract number, a known entity and product type, and a
// positive original amount. Incomplete lines stay in the working set but are
// skipped when calculating.
func (d *DebtLine) Complete(refs *ReferenceLists) bool {
	if strings.TrimSpace(d.ContractNumber) == "" {
		return false
	}
	if refs == nil || !refs.HasEntity(d.Entity) || !refs.HasProductType(d.ProductType) {
		return false
	}
	return d.OriginalAmount > 0
}

// ReferenceLists is the catalog of valid entities and product types, sourced
// from the remote store and cached for the lifetime of a session.
type ReferenceLists struct {
	Entities     []string `json:"entities"`
	ProductTypes []string `json:"productTypes"`
}

func (r *ReferenceLists) HasEntity(name string) bool {
	return containsTrimmed(r.Entities, name)
}

func (r *ReferenceLists) HasProductType(name string) bool {
	return containsTrimmed(r.ProductTypes, name)
}

func containsTrimmed(list []string, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, v := range list {
		if strings.TrimSpace(v) == name {
			return true
		}
	}
	return false
}
