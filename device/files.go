package device

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// resolvePath joins name onto the files root and rejects anything that
// escapes it, including relative-path tricks like "../../etc". All file
// operations go through here.
func (c *Controller) resolvePath(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathRejected)
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrPathRejected, name)
	}
	root, err := filepath.Abs(c.filesRoot)
	if err != nil {
		return "", fmt.Errorf("resolving files root: %w", err)
	}
	full := filepath.Clean(filepath.Join(root, name))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathRejected, name)
	}
	return full, nil
}

// CreateFile creates an empty file under the files root.
func (c *Controller) CreateFile(name string) (string, error) {
	path, err := c.resolvePath(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating parent directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing file: %w", err)
	}
	c.logger.Info("created file", zapPath(path))
	return fmt.Sprintf("Created file %s", name), nil
}

// DeleteFile removes a file under the files root. When dangerous commands
// are disabled and the caller has not confirmed, it refuses with
// ErrConfirmationRequired and leaves the file untouched.
func (c *Controller) DeleteFile(name string, confirmed bool) (string, error) {
	path, err := c.resolvePath(name)
	if err != nil {
		return "", err
	}
	if !c.dangerous && !confirmed {
		return "", fmt.Errorf("%w: say 'confirm delete file %s' to proceed", ErrConfirmationRequired, name)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: file %s not found", ErrAutomationTarget, name)
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("deleting file: %w", err)
	}
	c.logger.Info("deleted file", zapPath(path))
	return fmt.Sprintf("Deleted file %s", name), nil
}

// ListFiles lists regular files in a directory under the files root.
// An empty directory argument means the root itself.
func (c *Controller) ListFiles(directory string) (string, []string, error) {
	dir := strings.TrimSpace(directory)
	var path string
	var err error
	if dir == "" || strings.EqualFold(dir, "documents") {
		path, err = filepath.Abs(c.filesRoot)
	} else {
		path, err = c.resolvePath(dir)
	}
	if err != nil {
		return "", nil, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: directory %s", ErrAutomationTarget, directory)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	const maxListed = 20
	listed := names
	if len(listed) > maxListed {
		listed = listed[:maxListed]
	}
	return fmt.Sprintf("Found %d file(s)", len(names)), listed, nil
}

// SearchFiles walks the files root looking for names containing the query.
func (c *Controller) SearchFiles(query, directory string) (string, []string, error) {
	dir := strings.TrimSpace(directory)
	var root string
	var err error
	if dir == "" || strings.EqualFold(dir, "documents") {
		root, err = filepath.Abs(c.filesRoot)
	} else {
		root, err = c.resolvePath(dir)
	}
	if err != nil {
		return "", nil, err
	}

	needle := strings.ToLower(query)
	var matches []string
	const maxMatches = 10
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.Type().IsRegular() && strings.Contains(strings.ToLower(d.Name()), needle) {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = d.Name()
			}
			matches = append(matches, rel)
			if len(matches) >= maxMatches {
				return filepath.SkipAll
			}
		}
		return nil
	})
	if walkErr != nil {
		return "", nil, fmt.Errorf("searching files: %w", walkErr)
	}
	return fmt.Sprintf("Found %d file(s) matching %q", len(matches), query), matches, nil
}
