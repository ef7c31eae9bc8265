package sqlpruntime

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Truthy maps a scanned condition value to a branch decision:
//
//	nil                      false
//	bool                     itself
//	integers, floats         false iff zero
//	decimal.Decimal          false iff zero
//	anything else            true
//
// Values are those produced by database/sql scanning into *interface{}.
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0
	case float64:
		return x != 0
	case decimal.Decimal:
		return !x.IsZero()
	case *decimal.Decimal:
		return x != nil && !x.IsZero()
	case decimal.NullDecimal:
		return x.Valid && !x.Decimal.IsZero()
	}
	return true
}

// TruthyColumn is Truthy for a value read from a column of the given
// database type name (sql.ColumnType.DatabaseTypeName). Drivers such as
// go-sql-driver/mysql and lib/pq return numeric columns as text; those
// values are decoded as decimals before the numeric rule is applied.
func TruthyColumn(v interface{}, typeName string) bool {
	var text string
	switch x := v.(type) {
	case []byte:
		if isBitType(typeName) {
			for _, b := range x {
				if b != 0 {
					return true
				}
			}
			return false
		}
		text = string(x)
	case string:
		text = x
	default:
		return Truthy(v)
	}

	if !isNumericType(typeName) {
		return true
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return true
	}
	return !d.IsZero()
}

func isNumericType(typeName string) bool {
	t := strings.ToUpper(typeName)
	for _, frag := range []string{"INT", "DEC", "NUMERIC", "FLOAT", "DOUBLE", "REAL", "MONEY"} {
		if strings.Contains(t, frag) {
			return true
		}
	}
	return false
}

func isBitType(typeName string) bool {
	return strings.EqualFold(typeName, "BIT")
}
