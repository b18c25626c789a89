package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Setup       []string   `yaml:"setup,omitempty"` // lines run before every test
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single test within a suite. Exactly one of Lines,
// Script and Expr supplies the code.
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Sub         string      `yaml:"sub,omitempty"`  // off|on|full, the value of the sub variable
	Setup       []string    `yaml:"setup,omitempty"`
	Lines       []string    `yaml:"lines,omitempty"`  // command lines, run one by one
	Script      string      `yaml:"script,omitempty"` // file contents, run as by /load
	Expr        string      `yaml:"expr,omitempty"`   // a single expression
	SendFails   bool        `yaml:"send_fails,omitempty"`
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what a test must produce. Unset fields are not
// checked; an empty list checks that nothing was produced.
type Expectation struct {
	Output *[]string `yaml:"output,omitempty"` // lines written to the output sink
	Errors *[]string `yaml:"errors,omitempty"` // lines written to the diagnostics sink
	Sent   *[]string `yaml:"sent,omitempty"`   // lines sent to the server
	Value  *string   `yaml:"value,omitempty"`  // string form of the final result
	Error  string    `yaml:"error,omitempty"`  // E_DIV, E_SYNTAX, etc.
	Type   string    `yaml:"type,omitempty"`   // integer, string, float, ...
	Match  string    `yaml:"match,omitempty"`  // regex over the final value
}

// IsEmpty reports whether the expectation checks nothing
func (e *Expectation) IsEmpty() bool {
	return e.Output == nil && e.Errors == nil && e.Sent == nil &&
		e.Value == nil && e.Error == "" && e.Type == "" && e.Match == ""
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}

	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
