package catalog

import (
	"github.com/facturacion/backend/internal/domain/shared"
)

// Field names a classification attribute that can be enumerated as options
type Field string

const (
	FieldKind                       Field = "kind"
	FieldCategory                   Field = "category"
	FieldOfficialDescription        Field = "officialDescription"
	FieldDiscountedGoodsDescription Field = "discountedGoodsDescription"
)

var fieldColumns = map[Field]string{
	FieldKind:                       "kind",
	FieldCategory:                   "category",
	FieldOfficialDescription:        "official_description",
	FieldDiscountedGoodsDescription: "discounted_goods_description",
}

// SupportedFields returns the fields accepted by option listing
func SupportedFields() []Field {
	return []Field{FieldKind, FieldCategory, FieldOfficialDescription, FieldDiscountedGoodsDescription}
}

// ParseField validates a field name
func ParseField(name string) (Field, error) {
	f := Field(name)
	if _, ok := fieldColumns[f]; !ok {
		return "", shared.ErrUnsupportedField.Withf("field %q cannot be listed", name)
	}
	return f, nil
}

// Column returns the storage column backing the field
func (f Field) Column() string {
	return fieldColumns[f]
}
