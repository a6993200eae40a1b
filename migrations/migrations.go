// Package migrations holds the schema for MySQL records and the ClickHouse report archive.
package migrations

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed *.sql clickhouse/*.sql
var files embed.FS

// MySQL returns the MySQL migration scripts in name order.
func MySQL() ([]string, error) { return load(".") }

// ClickHouse returns the ClickHouse statements in order, one per entry.
// The native protocol runs a single statement per Exec.
func ClickHouse() ([]string, error) {
	scripts, err := load("clickhouse")
	if err != nil {
		return nil, err
	}

	var stmts []string
	for _, s := range scripts {
		stmts = append(stmts, Split(s)...)
	}
	return stmts, nil
}

// Split breaks a script on ';' and drops empty statements.
func Split(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func load(dir string) ([]string, error) {
	names, err := fs.Glob(files, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, n := range names {
		b, err := fs.ReadFile(files, n)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}
