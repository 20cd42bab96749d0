package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	gooseUp   = "-- +goose Up"
	gooseDown = "-- +goose Down"
)

// ValidateDir checks one dialect directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	_, err := ValidateFS(os.DirFS(dir), ".")
	return err
}

// ValidateEmbedded checks every dialect compiled into the binary.
func ValidateEmbedded() error {
	for _, dialect := range []string{"postgres", "sqlite"} {
		if _, err := ValidateFS(migrationsFS, path.Join("migrations", dialect)); err != nil {
			return fmt.Errorf("%s: %w", dialect, err)
		}
	}
	return nil
}

// ValidateFS checks filenames, unique versions and goose annotations under dir, and
// returns the versions in ascending order. The Up block must precede the Down block.
func ValidateFS(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version := m[1]
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %s in %q and %q", version, prev, name)
		}
		seen[version] = name

		b, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", name, err)
		}
		if err := checkAnnotations(string(b)); err != nil {
			return nil, fmt.Errorf("migration %q: %w", name, err)
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("no migrations found in %q", dir)
	}

	versions := make([]string, 0, len(seen))
	for v := range seen {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions, nil
}

func checkAnnotations(body string) error {
	up := strings.Index(body, gooseUp)
	down := strings.Index(body, gooseDown)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", gooseUp)
	case down < 0:
		return fmt.Errorf("missing %q", gooseDown)
	case down < up:
		return fmt.Errorf("%q appears before %q", gooseDown, gooseUp)
	}
	return nil
}
