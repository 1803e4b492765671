package greenhouse

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Decimal is a fixed-precision decimal kept as its exact string form.
// Sensor readings round-trip through storage without being normalized:
// "150.00" stays "150.00", never "150". Arithmetic is out of scope; the
// system stores and returns telemetry, it does not compute on it.
type Decimal string

// ParseDecimal validates a decimal string: optional sign, at most maxWhole
// integer digits and at most maxScale fractional digits.
func ParseDecimal(s string, maxWhole, maxScale int) (Decimal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", ErrInvalidDecimal
	}

	body := v
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" || body == "." {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidDecimal)
	}

	whole, frac := body, ""
	if i := strings.IndexByte(body, '.'); i >= 0 {
		whole, frac = body[:i], body[i+1:]
		if strings.IndexByte(frac, '.') >= 0 {
			return "", fmt.Errorf("%q: %w", s, ErrInvalidDecimal)
		}
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return "", fmt.Errorf("%q: %w", s, ErrInvalidDecimal)
			}
		}
	}
	if whole == "" && frac == "" {
		return "", fmt.Errorf("%q: %w", s, ErrInvalidDecimal)
	}
	if len(strings.TrimLeft(whole, "0")) > maxWhole {
		return "", fmt.Errorf("%q exceeds %d integer digits: %w", s, maxWhole, ErrInvalidDecimal)
	}
	if len(frac) > maxScale {
		return "", fmt.Errorf("%q exceeds scale %d: %w", s, maxScale, ErrInvalidDecimal)
	}

	return Decimal(v), nil
}

// String returns the exact stored form
func (d Decimal) String() string { return string(d) }

// Value implements driver.Valuer: decimals travel to the database as strings
// so NUMERIC columns receive the exact literal
func (d Decimal) Value() (driver.Value, error) {
	return string(d), nil
}

// Scan implements sql.Scanner. Postgres returns NUMERIC as text; the cases
// beyond string/[]byte only fire on drivers that coerce to numbers.
func (d *Decimal) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = ""
		return nil
	case string:
		*d = Decimal(v)
		return nil
	case []byte:
		*d = Decimal(string(v))
		return nil
	case float64:
		*d = Decimal(strconv.FormatFloat(v, 'f', -1, 64))
		return nil
	case int64:
		*d = Decimal(strconv.FormatInt(v, 10))
		return nil
	}
	return fmt.Errorf("cannot scan %T into Decimal", src)
}
