package conformance

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConformance(t *testing.T) {
	tests, err := LoadAllTests(TestPath)
	if err != nil {
		t.Fatalf("Failed to load tests: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("No tests loaded")
	}

	runner := NewRunner()
	results := runner.RunAll(tests)
	stats := ComputeStats(results)

	// Group results by file for organized output
	fileGroups := make(map[string][]TestResult)
	var files []string
	for _, result := range results {
		if _, ok := fileGroups[result.Test.File]; !ok {
			files = append(files, result.Test.File)
		}
		fileGroups[result.Test.File] = append(fileGroups[result.Test.File], result)
	}

	for _, file := range files {
		t.Run(file, func(t *testing.T) {
			for _, result := range fileGroups[file] {
				t.Run(result.Test.Test.Name, func(t *testing.T) {
					if result.Skipped {
						t.Skipf("Skipped: %s", result.SkipReason)
					} else if !result.Passed {
						t.Errorf("Test failed: %v", result.Error)
					}
				})
			}
		})
	}

	t.Logf("\n=== Summary ===\n%s", FormatStats(stats))
}

func TestYAMLParsing(t *testing.T) {
	tests, err := LoadAllTests(TestPath)
	if err != nil {
		t.Fatalf("YAML parsing failed: %v", err)
	}

	names := make(map[string]bool)
	for i, test := range tests {
		tc := test.Test
		if tc.Name == "" {
			t.Errorf("Test %d in %s has no name", i, test.File)
			continue
		}
		key := test.File + "/" + tc.Name
		if names[key] {
			t.Errorf("Duplicate test %s", key)
		}
		names[key] = true

		if tc.Expect.IsEmpty() {
			t.Errorf("Test %s has no expectation", key)
		}

		sources := 0
		for _, set := range []bool{len(tc.Lines) > 0, tc.Script != "", tc.Expr != ""} {
			if set {
				sources++
			}
		}
		if sources != 1 {
			t.Errorf("Test %s needs exactly one of lines, script or expr", key)
		}
	}

	t.Logf("All %d tests parsed successfully", len(tests))
}

func TestUnknownKeysRejected(t *testing.T) {
	dir := t.TempDir()
	bad := "name: bad\ntests:\n  - name: typo\n    lines: [\"/echo a\"]\n    expect:\n      outptu: [a]\n"
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAllTests(dir); err == nil {
		t.Error("misspelled expectation key was accepted")
	}
}

func TestCheckExpectation(t *testing.T) {
	two := "2"
	none := []string{}
	got := outcome{output: []string{"x"}}
	got.result.Val = nil

	if err := checkExpectation(Expectation{Value: &two}, got); err == nil {
		t.Error("missing value passed a value check")
	}
	if err := checkExpectation(Expectation{Output: &none}, got); err == nil {
		t.Error("output passed an empty-output check")
	}
	if err := checkExpectation(Expectation{Errors: &none}, got); err != nil {
		t.Errorf("no errors failed an empty-errors check: %v", err)
	}
}

// BenchmarkLoadAllTests measures test loading performance
func BenchmarkLoadAllTests(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := LoadAllTests(TestPath); err != nil {
			b.Fatal(err)
		}
	}
}
