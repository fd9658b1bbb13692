package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/facturacion/backend/internal/domain/shared"
)

// Address is an immutable postal location of a branch.
// Province, canton and district follow the territorial division codes used
// on fiscal documents (1, 2 and 2 digits); Detail is free text ("otras señas").
type Address struct {
	province string
	canton   string
	district string
	detail   string
}

// NewAddress creates a validated Address. All parts are optional but the
// territorial codes must be numeric and of the right width when present,
// and a district requires a canton which requires a province.
func NewAddress(province, canton, district, detail string) (Address, error) {
	addr := Address{
		province: strings.TrimSpace(province),
		canton:   strings.TrimSpace(canton),
		district: strings.TrimSpace(district),
		detail:   strings.TrimSpace(detail),
	}
	if err := addr.validate(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// EmptyAddress returns an address with no parts set
func EmptyAddress() Address {
	return Address{}
}

func (a Address) validate() error {
	if err := checkDigits("province", a.province, 1); err != nil {
		return err
	}
	if err := checkDigits("canton", a.canton, 2); err != nil {
		return err
	}
	if err := checkDigits("district", a.district, 2); err != nil {
		return err
	}
	if a.canton != "" && a.province == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "canton requires a province")
	}
	if a.district != "" && a.canton == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "district requires a canton")
	}
	if utf8.RuneCountInString(a.detail) > 250 {
		return shared.NewDomainError("INVALID_ADDRESS", "address detail cannot exceed 250 characters")
	}
	return nil
}

func checkDigits(part, value string, width int) error {
	if value == "" {
		return nil
	}
	if len(value) != width || !IsDigits(value) {
		return shared.NewDomainError("INVALID_ADDRESS", fmt.Sprintf("%s must be %d digits", part, width))
	}
	return nil
}

// Province returns the province code
func (a Address) Province() string { return a.province }

// Canton returns the canton code
func (a Address) Canton() string { return a.canton }

// District returns the district code
func (a Address) District() string { return a.district }

// Detail returns the free-text part
func (a Address) Detail() string { return a.detail }

// IsEmpty returns true if no part is set
func (a Address) IsEmpty() bool {
	return a.province == "" && a.canton == "" && a.district == "" && a.detail == ""
}

// Equals compares two addresses by value
func (a Address) Equals(other Address) bool {
	return a == other
}

// String returns "province-canton-district detail" with missing parts omitted
func (a Address) String() string {
	var codes []string
	for _, p := range []string{a.province, a.canton, a.district} {
		if p != "" {
			codes = append(codes, p)
		}
	}
	region := strings.Join(codes, "-")
	switch {
	case region == "":
		return a.detail
	case a.detail == "":
		return region
	default:
		return region + " " + a.detail
	}
}

type addressJSON struct {
	Province string `json:"province,omitempty"`
	Canton   string `json:"canton,omitempty"`
	District string `json:"district,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Province: a.province,
		Canton:   a.canton,
		District: a.district,
		Detail:   a.detail,
	})
}

// UnmarshalJSON implements json.Unmarshaler and validates the decoded parts
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewAddress(v.Province, v.Canton, v.District, v.Detail)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	return a.UnmarshalJSON(data)
}

// IsDigits reports whether s is a non-empty string of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
