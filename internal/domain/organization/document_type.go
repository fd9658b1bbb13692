package organization

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/facturacion/backend/internal/domain/shared"
)

// DocumentType identifies an electronic fiscal document kind. Each type is
// numbered independently per register.
type DocumentType string

const (
	DocumentElectronicInvoice DocumentType = "01"
	DocumentDebitNote         DocumentType = "02"
	DocumentCreditNote        DocumentType = "03"
	DocumentTicket            DocumentType = "04"
	DocumentAcceptance        DocumentType = "05"
	DocumentPartialAcceptance DocumentType = "06"
	DocumentRejection         DocumentType = "07"
	DocumentPurchaseInvoice   DocumentType = "08"
	DocumentExportInvoice     DocumentType = "09"
	DocumentPaymentReceipt    DocumentType = "10"
)

// MaxSequenceValue is the largest counter the sequence store can hold (BIGINT)
const MaxSequenceValue uint64 = math.MaxInt64

var documentTypeNames = map[DocumentType]string{
	DocumentElectronicInvoice: "electronic invoice",
	DocumentDebitNote:         "electronic debit note",
	DocumentCreditNote:        "electronic credit note",
	DocumentTicket:            "electronic ticket",
	DocumentAcceptance:        "acceptance confirmation",
	DocumentPartialAcceptance: "partial acceptance confirmation",
	DocumentRejection:         "rejection confirmation",
	DocumentPurchaseInvoice:   "electronic purchase invoice",
	DocumentExportInvoice:     "electronic export invoice",
	DocumentPaymentReceipt:    "electronic payment receipt",
}

// AllDocumentTypes returns every document type in code order
func AllDocumentTypes() []DocumentType {
	types := make([]DocumentType, 0, len(documentTypeNames))
	for t := range documentTypeNames {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ParseDocumentType validates a document type code
func ParseDocumentType(code string) (DocumentType, error) {
	t := DocumentType(strings.TrimSpace(code))
	if _, ok := documentTypeNames[t]; !ok {
		return "", shared.ErrUnknownDocumentType.Withf("unknown document type %q", code)
	}
	return t, nil
}

// IsValid returns true if the document type is one of the known codes
func (t DocumentType) IsValid() bool {
	_, ok := documentTypeNames[t]
	return ok
}

// Name returns the human readable name of the document type
func (t DocumentType) Name() string {
	return documentTypeNames[t]
}

// NumberingTable holds the last allocated number per document type.
// Zero means no number has been issued yet.
type NumberingTable map[DocumentType]uint64

// NewNumberingTable returns a table with every document type at zero
func NewNumberingTable() NumberingTable {
	table := make(NumberingTable, len(documentTypeNames))
	for t := range documentTypeNames {
		table[t] = 0
	}
	return table
}

// Merge returns a copy of the table with the given values applied
func (n NumberingTable) Merge(values map[DocumentType]uint64) NumberingTable {
	merged := make(NumberingTable, len(n))
	for t, v := range n {
		merged[t] = v
	}
	for t, v := range values {
		merged[t] = v
	}
	return merged
}

// Strings renders the counters as decimal strings keyed by type code
func (n NumberingTable) Strings() map[string]string {
	out := make(map[string]string, len(n))
	for t, v := range n {
		out[string(t)] = FormatSequence(v)
	}
	return out
}

// FormatSequence renders a counter as a decimal string
func FormatSequence(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ParseCounterValues converts a caller-supplied partial numbering table.
// Unknown document types are rejected. Values that are not plain decimal
// numbers are dropped without error; existing clients rely on that.
// Numbers above MaxSequenceValue are rejected.
func ParseCounterValues(partial map[string]string) (map[DocumentType]uint64, error) {
	values := make(map[DocumentType]uint64, len(partial))
	for key, raw := range partial {
		t, err := ParseDocumentType(key)
		if err != nil {
			return nil, err
		}
		v, ok, err := parseCounter(raw)
		if err != nil {
			return nil, shared.ErrCounterOutOfRange.Withf("counter for document type %s exceeds %d", t, MaxSequenceValue)
		}
		if !ok {
			continue
		}
		values[t] = v
	}
	return values, nil
}

func parseCounter(raw string) (uint64, bool, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false, nil
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v > MaxSequenceValue {
		return 0, true, shared.ErrCounterOutOfRange
	}
	return v, true, nil
}
