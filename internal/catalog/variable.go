package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/formula"
)

// VariableType enumerates the value types a catalog variable can hold
type VariableType string

const (
	TypeText    VariableType = "text"
	TypeNumber  VariableType = "number"
	TypeSelect  VariableType = "select"
	TypeDate    VariableType = "date"
	TypeBoolean VariableType = "boolean"
)

// Variable is a typed, named value usable inside rule formulas.
// Code is globally unique and immutable once any formula references it:
// rules store references by code, so renaming would silently break
// every dependent formula.
type Variable struct {
	Code      string       `json:"code"`
	Label     string       `json:"label"`
	Type      VariableType `json:"type"`
	Options   []string     `json:"options,omitempty"`
	Category  string       `json:"category"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// VariablePatch carries the mutable fields of a variable. Code is
// deliberately absent.
type VariablePatch struct {
	Label    *string  `json:"label,omitempty"`
	Options  []string `json:"options,omitempty"`
	Category *string  `json:"category,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

// NormalizeCode lowercases a code and collapses whitespace to underscores.
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	return strings.Join(strings.Fields(code), "_")
}

// Validate checks a variable definition for structural problems.
func (v Variable) Validate() error {
	if v.Code == "" {
		return domain.NewInvalidInputError("variable code is required", "")
	}
	switch v.Type {
	case TypeText, TypeNumber, TypeDate, TypeBoolean:
		if len(v.Options) > 0 {
			return domain.NewInvalidInputError("options are only allowed for select variables", "code: "+v.Code)
		}
	case TypeSelect:
		if len(v.Options) == 0 {
			return domain.NewInvalidInputError("select variable requires at least one option", "code: "+v.Code)
		}
	default:
		return domain.NewInvalidInputError("unknown variable type", string(v.Type))
	}
	return nil
}

// BindValue converts a raw string value into a typed formula binding
// according to the variable's declared type. Select values stay textual,
// so using one arithmetically in a formula yields a type mismatch
// instead of a silently coerced number.
func (v Variable) BindValue(raw string) (formula.Value, error) {
	switch v.Type {
	case TypeNumber:
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return formula.Value{}, domain.NewInvalidInputError("value is not numeric", "variable: "+v.Code)
		}
		return formula.Number(d), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return formula.Value{}, domain.NewInvalidInputError("value is not boolean", "variable: "+v.Code)
		}
		return formula.Bool(b), nil
	case TypeDate:
		t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
		if err != nil {
			return formula.Value{}, domain.NewInvalidInputError("value is not a date (YYYY-MM-DD)", "variable: "+v.Code)
		}
		return formula.Date(t), nil
	case TypeSelect:
		raw = strings.TrimSpace(raw)
		for _, opt := range v.Options {
			if opt == raw {
				return formula.Text(raw), nil
			}
		}
		return formula.Value{}, domain.NewInvalidInputError("value is not one of the declared options", "variable: "+v.Code)
	default:
		return formula.Text(raw), nil
	}
}
