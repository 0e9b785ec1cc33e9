package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

func sourceFS(dir string) fs.FS {
	if dir == "" {
		return Embedded()
	}
	return os.DirFS(dir)
}

// ValidateDir validates the migrations in dir, or the embedded set when dir
// is empty.
func ValidateDir(dir string) error {
	return ValidateFS(sourceFS(dir))
}

// ValidateFS checks migration filenames, unique versions, goose Up/Down
// sections and balanced statement blocks.
func ValidateFS(fsys fs.FS) error {
	_, err := scan(fsys, true)
	return err
}

// Versions lists the migration versions present in fsys.
func Versions(fsys fs.FS) (map[int64]bool, error) {
	return scan(fsys, false)
}

func scan(fsys fs.FS, checkBodies bool) (map[int64]bool, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	seen := map[int64]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", name)
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		if prev, ok := seen[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %d in %q and %q", version, prev, name)
		}
		seen[version] = name

		if checkBodies {
			b, err := fs.ReadFile(fsys, name)
			if err != nil {
				return nil, fmt.Errorf("read migration %q: %w", name, err)
			}
			if err := checkBody(name, string(b)); err != nil {
				return nil, err
			}
		}
	}

	versions := make(map[int64]bool, len(seen))
	for v := range seen {
		versions[v] = true
	}
	return versions, nil
}

func checkBody(name, txt string) error {
	if !strings.Contains(txt, "-- +goose Up") {
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", name)
	}
	if !strings.Contains(txt, "-- +goose Down") {
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", name)
	}
	begins := strings.Count(txt, "-- +goose StatementBegin")
	ends := strings.Count(txt, "-- +goose StatementEnd")
	if begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin but %d StatementEnd", name, begins, ends)
	}
	return nil
}
