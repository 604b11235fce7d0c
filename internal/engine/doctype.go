package engine

import "strings"

// DocumentType is the classification category assigned to a document.
type DocumentType string

const (
	TypeInvoice  DocumentType = "invoice"
	TypeReceipt  DocumentType = "receipt"
	TypeContract DocumentType = "contract"
	TypeResume   DocumentType = "resume"
	TypeReport   DocumentType = "report"
	TypeLetter   DocumentType = "letter"
	TypeForm     DocumentType = "form"
	TypeEmail    DocumentType = "email"
	TypeMemo     DocumentType = "memo"
	TypeUnknown  DocumentType = "unknown"
)

// KnownTypes lists every classification category except unknown.
var KnownTypes = []DocumentType{
	TypeInvoice,
	TypeReceipt,
	TypeContract,
	TypeResume,
	TypeReport,
	TypeLetter,
	TypeForm,
	TypeEmail,
	TypeMemo,
}

var labelToType = func() map[string]DocumentType {
	m := make(map[string]DocumentType, len(KnownTypes)+4)
	for _, t := range KnownTypes {
		m[string(t)] = t
	}
	// Common label variants returned by model output.
	m["cv"] = TypeResume
	m["curriculum vitae"] = TypeResume
	m["bill"] = TypeInvoice
	m["agreement"] = TypeContract
	return m
}()

// NormalizeDocumentType maps a free-form label to a known category. Any
// label outside the table, including empty input, maps to unknown.
func NormalizeDocumentType(label string) DocumentType {
	key := strings.ToLower(strings.TrimSpace(label))
	if t, ok := labelToType[key]; ok {
		return t
	}
	return TypeUnknown
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
