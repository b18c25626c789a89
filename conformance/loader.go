package conformance

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TestPath is the directory holding the YAML suites, relative to this package
const TestPath = "testdata"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Suite TestSuite
	Test  TestCase
}

// LoadAllTests walks dir and loads every test case of every .yaml file
func LoadAllTests(dir string) ([]LoadedTest, error) {
	var loaded []LoadedTest

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}

		tests, err := loadTestFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		// Get relative path for cleaner test names
		relPath, _ := filepath.Rel(dir, path)
		for _, test := range tests {
			test.File = filepath.ToSlash(relPath)
			loaded = append(loaded, test)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

// loadTestFile parses a single YAML file and returns all test cases.
// Unknown keys are rejected so that a misspelled expectation cannot pass
// silently.
func loadTestFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil {
		return nil, err
	}

	tests := make([]LoadedTest, 0, len(suite.Tests))
	for _, test := range suite.Tests {
		tests = append(tests, LoadedTest{
			Suite: suite,
			Test:  test,
		})
	}
	return tests, nil
}
