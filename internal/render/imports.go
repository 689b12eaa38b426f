package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/siteforge/internal/frontmatter"
)

var (
	importLine = regexp.MustCompile(`^import\s+([A-Z][A-Za-z0-9_]*)\s+from\s+["']([^"']+)["'];?\s*$`)
	fenceLine  = regexp.MustCompile("^\\s*(```|~~~)")
)

// expandImports removes import statements and replaces `<Name />` usages with
// the body of the imported document. Only relative imports ("./", "../") are
// resolved; other import lines are dropped and their usages left untouched.
// chain holds the absolute paths currently being expanded.
func expandImports(body, baseDir string, chain []string) (string, error) {
	var imports []mdxImport
	lines := strings.Split(body, "\n")
	kept := lines[:0:0]
	inFence := false

	for _, line := range lines {
		if fenceLine.MatchString(line) {
			inFence = !inFence
		}
		if !inFence {
			if m := importLine.FindStringSubmatch(strings.TrimRight(line, "\r")); m != nil {
				if isRelative(m[2]) {
					imports = addImport(imports, m[1], filepath.Join(baseDir, filepath.FromSlash(m[2])))
				}
				continue
			}
		}
		kept = append(kept, line)
	}

	out := strings.Join(kept, "\n")
	if len(imports) == 0 {
		return strings.TrimLeft(out, "\n"), nil
	}

	// Expanded in declaration order; an inlined body may use a later import.
	for _, imp := range imports {
		usage := regexp.MustCompile(`<` + regexp.QuoteMeta(imp.name) + `\s*/>`)
		if !usage.MatchString(out) {
			continue
		}
		inlined, err := loadImport(imp.path, chain)
		if err != nil {
			return "", err
		}
		out = usage.ReplaceAllLiteralString(out, inlined)
	}
	return strings.TrimLeft(out, "\n"), nil
}

type mdxImport struct {
	name string
	path string
}

// addImport appends an import; redeclaring a name keeps its first position
// and takes the later path.
func addImport(imports []mdxImport, name, path string) []mdxImport {
	for i := range imports {
		if imports[i].name == name {
			imports[i].path = path
			return imports
		}
	}
	return append(imports, mdxImport{name: name, path: path})
}

func loadImport(path string, chain []string) (string, error) {
	for _, p := range chain {
		if p == path {
			return "", fmt.Errorf("import cycle: %s", strings.Join(append(chain, path), " -> "))
		}
	}

	// #nosec G304 -- import paths are resolved relative to the site input tree
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read import %s: %w", path, err)
	}
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("import %s: frontmatter: %w", path, err)
	}
	expanded, err := expandImports(string(doc.Body), filepath.Dir(path), append(chain, path))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(expanded, "\n"), nil
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}
