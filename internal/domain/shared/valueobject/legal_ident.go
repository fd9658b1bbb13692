package valueobject

import (
	"fmt"
	"strings"

	"github.com/facturacion/backend/internal/domain/shared"
)

// LegalIdentType is the kind of taxpayer identification
type LegalIdentType string

const (
	LegalIdentPhysical  LegalIdentType = "01"
	LegalIdentJuridical LegalIdentType = "02"
	LegalIdentDIMEX     LegalIdentType = "03"
	LegalIdentNITE      LegalIdentType = "04"
)

var legalIdentLengths = map[LegalIdentType][]int{
	LegalIdentPhysical:  {9},
	LegalIdentJuridical: {10},
	LegalIdentDIMEX:     {11, 12},
	LegalIdentNITE:      {10},
}

// IsValid returns true if the type is a known identification type
func (t LegalIdentType) IsValid() bool {
	_, ok := legalIdentLengths[t]
	return ok
}

// LegalIdent is the taxpayer identification of a channel. It never changes
// once the channel exists.
type LegalIdent struct {
	identType LegalIdentType
	number    string
}

// NewLegalIdent validates the number length and digits for the given type
func NewLegalIdent(identType, number string) (LegalIdent, error) {
	t := LegalIdentType(strings.TrimSpace(identType))
	n := strings.TrimSpace(number)
	lengths, ok := legalIdentLengths[t]
	if !ok {
		return LegalIdent{}, shared.NewDomainError("INVALID_LEGAL_IDENT", fmt.Sprintf("unknown identification type %q", identType))
	}
	if !IsDigits(n) {
		return LegalIdent{}, shared.NewDomainError("INVALID_LEGAL_IDENT", "identification number must contain only digits")
	}
	for _, l := range lengths {
		if len(n) == l {
			return LegalIdent{identType: t, number: n}, nil
		}
	}
	return LegalIdent{}, shared.NewDomainError("INVALID_LEGAL_IDENT",
		fmt.Sprintf("identification type %s requires %v digits, got %d", t, lengths, len(n)))
}

// Type returns the identification type
func (l LegalIdent) Type() LegalIdentType { return l.identType }

// Number returns the identification number
func (l LegalIdent) Number() string { return l.number }

// String returns "type-number"
func (l LegalIdent) String() string {
	return string(l.identType) + "-" + l.number
}
