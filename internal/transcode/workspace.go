package transcode

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Workspace is the per-job scratch directory holding the downloaded source
// and the encoder's outputs. It is owned by exactly one in-flight job and
// must be removed on every exit path.
type Workspace struct {
	Root      string
	InputPath string
}

func NewWorkspace(baseDir, mediaID string) (*Workspace, error) {
	root, err := os.MkdirTemp(baseDir, "transcode_"+mediaID+"_")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{
		Root:      root,
		InputPath: filepath.Join(root, "input"),
	}, nil
}

// WriteInput stores the source stream as the workspace input file.
func (w *Workspace) WriteInput(r io.Reader) (int64, error) {
	f, err := os.Create(w.InputPath)
	if err != nil {
		return 0, fmt.Errorf("create input file: %w", err)
	}

	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write input file: %w", err)
	}
	return n, nil
}

// Artifacts lists every regular file in the workspace except the input,
// in stable name order.
func (w *Workspace) Artifacts() ([]string, error) {
	var artifacts []string

	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path == w.InputPath {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		artifacts = append(artifacts, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate artifacts: %w", err)
	}

	sort.Strings(artifacts)
	return artifacts, nil
}

// Remove deletes the workspace tree with an iterative walk, aggregating
// every deletion error so a single failure does not mask the rest.
func (w *Workspace) Remove() error {
	var files, dirs []string

	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("walk workspace: %w", err)
	}

	var errs []error
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			errs = append(errs, err)
		}
	}

	// Deepest directories first.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		if err := os.Remove(d); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
