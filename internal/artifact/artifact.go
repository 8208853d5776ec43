// Package artifact is the selection boundary for uploaded documents. Only PDF
// and DOCX files are accepted here; nothing downstream re-validates them.
package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupported = errors.New("unsupported artifact type, expected PDF or DOCX")
	// ErrDuplicateName is returned when two selected files share a filename.
	// The remote keys resumes by filename, so they cannot be told apart.
	ErrDuplicateName = errors.New("duplicate filename in selection")
)

type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

// Artifact is a selected document, backed either by a file on disk or by memory.
type Artifact struct {
	name string
	path string
	data []byte
	kind Kind
}

// FromPath selects a file from disk.
func FromPath(path string) (*Artifact, error) {
	kind, err := kindOf(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &Artifact{name: filepath.Base(path), path: path, kind: kind}, nil
}

// FromPaths selects several files, failing on the first unacceptable one or
// on a filename that was already selected from another directory.
func FromPaths(paths []string) ([]*Artifact, error) {
	selected := make([]*Artifact, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		a, err := FromPath(path)
		if err != nil {
			return nil, err
		}
		if first, ok := seen[a.Name()]; ok {
			return nil, fmt.Errorf("%s and %s: %w", first, path, ErrDuplicateName)
		}
		seen[a.Name()] = path
		selected = append(selected, a)
	}
	return selected, nil
}

// FromBytes selects an in-memory document under the given filename.
func FromBytes(name string, data []byte) (*Artifact, error) {
	kind, err := kindOf(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Artifact{name: filepath.Base(name), data: data, kind: kind}, nil
}

func (a *Artifact) Name() string { return a.name }

func (a *Artifact) Kind() Kind { return a.kind }

func (a *Artifact) Open() (io.ReadCloser, error) {
	if a.path != "" {
		return os.Open(a.path)
	}
	return io.NopCloser(bytes.NewReader(a.data)), nil
}

func (a *Artifact) bytes() ([]byte, error) {
	if a.path == "" {
		return a.data, nil
	}
	return os.ReadFile(a.path)
}

func kindOf(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, nil
	case ".docx":
		return KindDOCX, nil
	default:
		return "", ErrUnsupported
	}
}

// Names returns the artifact names in order.
func Names(artifacts []*Artifact) []string {
	names := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		names = append(names, a.Name())
	}
	return names
}
