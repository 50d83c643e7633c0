package spec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrInvalidName  = errors.New("invalid spec name")
	ErrSpecNotFound = errors.New("spec not found")
)

// nameRe accepts lowercase letters, digits and single hyphens between them.
var nameRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Source is a named spec with the text of each document that exists on disk.
// A missing document has no key in Docs.
type Source struct {
	Name string
	Dir  string
	Docs map[DocType]string
}

// Has reports whether the spec contains the document.
func (s Source) Has(doc DocType) bool {
	_, ok := s.Docs[doc]
	return ok
}

// ValidateName checks that name is filesystem-safe.
func ValidateName(name string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("%w: %q (use lowercase letters, digits and hyphens)", ErrInvalidName, name)
	}
	return nil
}

// List returns the sorted names of every spec directory under specsDir.
// A missing specs directory yields an empty list.
func List(specsDir string) ([]string, error) {
	entries, err := os.ReadDir(specsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read specs dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the documents of one spec directory.
func Load(specsDir, name string) (Source, error) {
	dir := filepath.Join(specsDir, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Source{}, fmt.Errorf("%w: %s", ErrSpecNotFound, name)
	}

	src := Source{Name: name, Dir: dir, Docs: make(map[DocType]string, len(DocTypes))}
	for _, doc := range DocTypes {
		data, err := os.ReadFile(filepath.Join(dir, doc.FileName()))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Source{}, fmt.Errorf("read %s/%s: %w", name, doc.FileName(), err)
		}
		src.Docs[doc] = string(data)
	}
	return src, nil
}

// LoadAll loads every spec under specsDir in name order.
func LoadAll(specsDir string) ([]Source, error) {
	names, err := List(specsDir)
	if err != nil {
		return nil, err
	}
	sources := make([]Source, 0, len(names))
	for _, name := range names {
		src, err := Load(specsDir, name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
