package builtins

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fugue/types"
)

var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

// fnStrlen returns the length of a string in characters
// strlen(s) -> int
func fnStrlen(env Env, args []types.Value) types.Result {
	return types.Ok(types.NewInt(int64(utf8.RuneCountInString(args[0].String()))))
}

// fnSubstr extracts part of a string. A negative length stops that many
// characters before the end.
// substr(s, start [, length]) -> str
func fnSubstr(env Env, args []types.Value) types.Result {
	s := []rune(args[0].String())
	n := int64(len(s))
	start, code := types.ToInt(args[1])
	if code != types.E_NONE {
		return types.Err(code)
	}
	start = clamp(start, 0, n)
	end := n
	if len(args) == 3 {
		length, code := types.ToInt(args[2])
		if code != types.E_NONE {
			return types.Err(code)
		}
		if length < 0 {
			end = n + length
		} else if length < n-start {
			end = start + length
		}
	}
	if end <= start {
		return types.Ok(types.EmptyStr)
	}
	return types.Ok(types.NewStr(string(s[start:end])))
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// fnStrcat concatenates its arguments
// strcat(...) -> str
func fnStrcat(env Env, args []types.Value) types.Result {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(a.String())
	}
	return types.Ok(types.NewStr(b.String()))
}

// fnStrstr returns the character index of sub in s, or -1
// strstr(s, sub [, start]) -> int
func fnStrstr(env Env, args []types.Value) types.Result {
	s := args[0].String()
	runes := []rune(s)
	start := int64(0)
	if len(args) == 3 {
		var code types.ErrorCode
		if start, code = types.ToInt(args[2]); code != types.E_NONE {
			return types.Err(code)
		}
		start = clamp(start, 0, int64(len(runes)))
	}
	tail := string(runes[start:])
	i := strings.Index(tail, args[1].String())
	if i < 0 {
		return types.Ok(types.NewInt(-1))
	}
	return types.Ok(types.NewInt(start + int64(utf8.RuneCountInString(tail[:i]))))
}

// fnStrrep repeats s n times
// strrep(s, n) -> str
func fnStrrep(env Env, args []types.Value) types.Result {
	n, code := types.ToInt(args[1])
	if code != types.E_NONE {
		return types.Err(code)
	}
	if n < 0 {
		return types.Errf(types.E_RANGE, "strrep: negative count")
	}
	return types.Ok(types.NewStr(strings.Repeat(args[0].String(), int(n))))
}

// fnStrcmp compares two strings case-sensitively
// strcmp(a, b) -> int (-1, 0, 1)
func fnStrcmp(env Env, args []types.Value) types.Result {
	return types.Ok(types.NewInt(int64(strings.Compare(args[0].String(), args[1].String()))))
}

// fnStrncmp compares at most n leading characters
// strncmp(a, b, n) -> int
func fnStrncmp(env Env, args []types.Value) types.Result {
	n, code := types.ToInt(args[2])
	if code != types.E_NONE {
		return types.Err(code)
	}
	if n < 0 {
		return types.Errf(types.E_RANGE, "strncmp: negative length")
	}
	a, b := []rune(args[0].String()), []rune(args[1].String())
	if int64(len(a)) > n {
		a = a[:n]
	}
	if int64(len(b)) > n {
		b = b[:n]
	}
	return types.Ok(types.NewInt(int64(strings.Compare(string(a), string(b)))))
}

// fnTolower lowercases a string
func fnTolower(env Env, args []types.Value) types.Result {
	return types.Ok(types.NewStr(lowerCaser.String(args[0].String())))
}

// fnToupper uppercases a string
func fnToupper(env Env, args []types.Value) types.Result {
	return types.Ok(types.NewStr(upperCaser.String(args[0].String())))
}

// fnAscii returns the code of the first character, 0 for ""
func fnAscii(env Env, args []types.Value) types.Result {
	r, _ := utf8.DecodeRuneInString(args[0].String())
	if r == utf8.RuneError {
		return types.Ok(types.NewInt(0))
	}
	return types.Ok(types.NewInt(int64(r)))
}

// fnChar returns the character with the given code
func fnChar(env Env, args []types.Value) types.Result {
	n, code := types.ToInt(args[0])
	if code != types.E_NONE {
		return types.Err(code)
	}
	if n < 0 || n > utf8.MaxRune {
		return types.Errf(types.E_RANGE, "char: code %d out of range", n)
	}
	return types.Ok(types.NewStr(string(rune(n))))
}

// fnReplace replaces every occurrence of old with new in s
// replace(old, new, s) -> str
func fnReplace(env Env, args []types.Value) types.Result {
	old, repl, s := args[0].String(), args[1].String(), args[2].String()
	if old == "" {
		return types.Ok(types.NewStr(s))
	}
	return types.Ok(types.NewStr(strings.ReplaceAll(s, old, repl)))
}

// fnRegmatch matches a regexp and records the subexpressions for %P0..%P9
// regmatch(re, s) -> int
func fnRegmatch(env Env, args []types.Value) types.Result {
	ok, err := env.Regmatch(args[0].String(), args[1].String())
	if err != nil {
		return types.Errf(types.E_ARGS, "regmatch: %v", err)
	}
	return types.Ok(types.NewRegmatch(ok))
}
