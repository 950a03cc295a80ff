package runner

import (
	"os"
	"path/filepath"
	"strings"
)

// walkAndProcessFiles walks a path (file or directory) and invokes onFile for each file.
// It skips common VCS/vendor directories and hidden directories below root.
func walkAndProcessFiles(root string, onFile func(p string, info os.FileInfo)) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		onFile(root, info)
		return nil
	}

	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			onFile(p, info)
			return nil
		}

		if p == root {
			return nil
		}

		name := info.Name()
		if name == "vendor" || name == "node_modules" || strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}

		return nil
	})
}
