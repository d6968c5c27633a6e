package migration

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scanner reads migration files from a directory of an fs.FS.
type Scanner struct {
	fsys fs.FS
	dir  string
}

// NewScanner returns a Scanner for dir within fsys.
func NewScanner(fsys fs.FS, dir string) *Scanner {
	return &Scanner{fsys: fsys, dir: dir}
}

// Scan returns the migrations sorted by numeric version.
func (s *Scanner) Scan() ([]Migration, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, &FileSystemError{Path: s.dir, Operation: "read directory", Err: err}
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := s.parse(entry.Name())
		if err != nil {
			return nil, err
		}

		version, _ := strconv.Atoi(m.Version)
		if existing, ok := seen[version]; ok {
			return nil, NewMigrationError(m.Version, entry.Name(), "check duplicates",
				fmt.Errorf("%w: version %s found in both %s and %s", ErrDuplicateVersion, m.Version, existing, entry.Name()))
		}
		seen[version] = entry.Name()
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		vi, _ := strconv.Atoi(migrations[i].Version)
		vj, _ := strconv.Atoi(migrations[j].Version)
		return vi < vj
	})
	return migrations, nil
}

func (s *Scanner) parse(name string) (Migration, error) {
	filePath := path.Join(s.dir, name)
	matches := fileNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return Migration{}, NewMigrationError("", filePath, "validate filename",
			fmt.Errorf("%w: filename '%s' does not match pattern '{version}_{description}.sql'", ErrInvalidMigrationFile, name))
	}
	version := matches[1]

	raw, err := fs.ReadFile(s.fsys, filePath)
	if err != nil {
		return Migration{}, &FileSystemError{Path: filePath, Operation: "read file", Err: err}
	}
	content := string(raw)
	if len(splitStatements(content)) == 0 {
		return Migration{}, NewMigrationError(version, filePath, "validate content",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	description := descriptionFromContent(content)
	if description == "" {
		description = strings.ReplaceAll(matches[2], "_", " ")
	}

	return Migration{
		Version:     version,
		Description: description,
		SQL:         content,
		FilePath:    filePath,
		Checksum:    fmt.Sprintf("%x", sha256.Sum256(raw)),
	}, nil
}

// descriptionFromContent reads a leading "-- Description: ..." comment.
func descriptionFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if rest, ok := strings.CutPrefix(line, "-- Description:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// splitStatements splits on semicolons and drops comment-only fragments.
// Migration files must not contain semicolons inside literals or triggers.
func splitStatements(sql string) []string {
	var statements []string
	for _, stmt := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
