package vars

import "fugue/types"

// IntRange accepts integers (or numeric strings) in [min, max]
func IntRange(min, max int64) Validator {
	return func(_, v types.Value) (types.Value, error) {
		n, code := types.ToInt(v)
		if code != types.E_NONE {
			return nil, types.NewError(code, "%q is not a number", v.String())
		}
		if n < min || n > max {
			return nil, types.NewError(types.E_RANGE, "value %d out of range [%d, %d]", n, min, max)
		}
		return types.NewInt(n), nil
	}
}

// Enum accepts a symbol or ordinal of the table
func Enum(table *types.EnumTable) Validator {
	return func(_, v types.Value) (types.Value, error) {
		if e, ok := v.(types.EnumValue); ok && e.Table == table {
			return e, nil
		}
		e, ok := table.Parse(v.String())
		if !ok {
			return nil, types.NewError(types.E_RANGE, "invalid value %q", v.String())
		}
		return e, nil
	}
}

// Text accepts any value and stores its string form
func Text() Validator {
	return func(_, v types.Value) (types.Value, error) {
		return types.NewStr(v.String()), nil
	}
}
