package core_test

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// packageImports returns the imports of every non-test file in dir, keyed by file name.
func packageImports(t *testing.T, dir string) map[string][]string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}

	fset := token.NewFileSet()
	out := make(map[string][]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".go") || strings.HasSuffix(entry.Name(), "_test.go") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			t.Errorf("Failed to parse %s: %v", path, err)
			continue
		}
		for _, imp := range f.Imports {
			out[entry.Name()] = append(out[entry.Name()], strings.Trim(imp.Path.Value, `"`))
		}
	}
	return out
}

// TestCoreImportsOnlyStdlib verifies pkg/core has no module dependencies.
func TestCoreImportsOnlyStdlib(t *testing.T) {
	for file, imports := range packageImports(t, ".") {
		for _, imp := range imports {
			// Stdlib paths have no dot in their first element.
			if strings.Contains(imp, ".") {
				t.Errorf("%s imports forbidden package: %s", file, imp)
			}
		}
	}
}

// TestDAXImportsOnlyCore verifies pkg/dax depends on nothing but core and stdlib.
func TestDAXImportsOnlyCore(t *testing.T) {
	allowed := map[string]bool{
		"github.com/leapstack-labs/leapmodel/pkg/core": true,
	}

	for file, imports := range packageImports(t, filepath.Join("..", "dax")) {
		for _, imp := range imports {
			if strings.Contains(imp, "/internal/") {
				t.Errorf("%s imports internal package: %s (pkg must not import internal packages)", file, imp)
				continue
			}
			if strings.Contains(imp, ".") && !allowed[imp] {
				t.Errorf("%s imports forbidden package: %s", file, imp)
			}
		}
	}
}
