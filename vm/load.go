package vm

import (
	"bufio"
	"io"
	"os"
	"strings"

	"fugue/types"
)

// Load executes a file of command lines
func (it *Interp) Load(path string) types.Result {
	f, err := os.Open(path)
	if err != nil {
		return types.Errf(types.E_IO, "load: %v", err)
	}
	defer f.Close()

	it.logger.Infof("loading %s", path)
	return it.LoadReader(f, path)
}

// LoadReader executes command lines read from r. A line ending in '\'
// continues on the next line, whose leading blanks are dropped. Lines
// starting with ';' or '#' are comments. The result is the number of
// lines executed.
func (it *Interp) LoadReader(r io.Reader, name string) types.Result {
	if limit := it.maxRecur(); it.depth >= limit {
		return types.Errf(types.E_MAXREC, "load %s: too many recursion levels", name)
	}
	it.calls = append(it.calls, newInvocation(name, "", false))
	it.depth++
	defer func() {
		it.depth--
		it.calls = it.calls[:len(it.calls)-1]
	}()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var pending strings.Builder
	n := int64(0)
	exec := func() bool {
		line := pending.String()
		pending.Reset()
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || trimmed[0] == ';' || trimmed[0] == '#' {
			return true
		}
		n++
		return it.ExecLine(line).Flow != types.FlowExit
	}

	more := true
	for more && scanner.Scan() {
		text := scanner.Text()
		if pending.Len() > 0 {
			text = strings.TrimLeft(text, " \t")
		}
		if strings.HasSuffix(text, "\\") && !strings.HasSuffix(text, "\\\\") {
			pending.WriteString(text[:len(text)-1])
			continue
		}
		pending.WriteString(text)
		more = exec()
	}
	if err := scanner.Err(); err != nil {
		return types.Errf(types.E_IO, "load %s: %v", name, err)
	}
	if more && pending.Len() > 0 {
		exec()
	}
	return types.Ok(types.NewInt(n))
}
