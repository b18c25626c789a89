package builtins

import (
	"errors"
	"fmt"
	"strings"

	"fugue/types"
)

// getopts parses leading "-x" options of line starting at offset. spec lists
// the accepted letters; a letter followed by ':' takes the rest of its word as
// a value ("-ahB", "-s2"). Parsing stops at "--" or the first non-option word.
// It returns the options and the offset of the remaining arguments.
func getopts(line string, offset int, spec string) (map[byte]string, int, error) {
	opts := make(map[byte]string)
	i := skipBlanks(line, offset)
	for i < len(line) && line[i] == '-' {
		if i+1 >= len(line) || line[i+1] == ' ' || line[i+1] == '\t' {
			break
		}
		if line[i+1] == '-' {
			return opts, skipBlanks(line, i+2), nil
		}
		j := i + 1
		for j < len(line) && line[j] != ' ' && line[j] != '\t' {
			letter := line[j]
			k := strings.IndexByte(spec, letter)
			if k < 0 {
				return nil, 0, fmt.Errorf("invalid option -%c", letter)
			}
			if k+1 < len(spec) && spec[k+1] == ':' {
				end := j + 1
				for end < len(line) && line[end] != ' ' && line[end] != '\t' {
					end++
				}
				opts[letter] = line[j+1 : end]
				j = end
				break
			}
			opts[letter] = ""
			j++
		}
		i = skipBlanks(line, j)
	}
	return opts, i, nil
}

func skipBlanks(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

// splitWord returns the first blank-delimited word of s and the rest with
// leading blanks removed
func splitWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return s, ""
	}
	return s[:end], strings.TrimLeft(s[end:], " \t")
}

// isName reports whether s is a valid variable or macro name
func isName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9' && i > 0) {
			return false
		}
	}
	return true
}

// splitAssign splits "name=value" or "name value". hasValue is false when
// only a name was given.
func splitAssign(s string) (name, value string, hasValue bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	for end < len(s) && s[end] != '=' && s[end] != ' ' && s[end] != '\t' {
		end++
	}
	name = s[:end]
	if end == len(s) {
		return name, "", false
	}
	if s[end] == '=' {
		return name, s[end+1:], true
	}
	rest := strings.TrimLeft(s[end:], " \t")
	if strings.HasPrefix(rest, "=") {
		return name, strings.TrimLeft(rest[1:], " \t"), true
	}
	return name, rest, rest != ""
}

// errResult converts a Go error into a runtime error result
func errResult(err error) types.Result {
	var me *types.MacroError
	if errors.As(err, &me) {
		return types.Errf(me.Code, "%s", me.Msg)
	}
	return types.Errf(types.E_IO, "%s", err.Error())
}

// parseCount parses an optional positive count argument
func parseCount(s string, def int64) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, true
	}
	v, ok := types.ParseNumber(s)
	if !ok {
		return 0, false
	}
	n, code := types.ToInt(v)
	return n, code == types.E_NONE
}
