package mergetrain

import (
	"os"
	"path/filepath"
)

// resolveInstall decides which dependency-install commands to run, per
// spec.md §4.4 step 5: explicit setup commands win; otherwise, if a
// well-known lockfile is present and its dependency directory is missing
// (or a dangling symlink, which is removed first), run the table's install
// command.
func resolveInstall(repoDir string, explicitCommands []string) (commands []string, err error) {
	if len(explicitCommands) > 0 {
		return explicitCommands, nil
	}

	for _, lockfile := range lockfileCheckOrder {
		installCmd := lockfileInstallCommand[lockfile]
		if _, err := os.Stat(filepath.Join(repoDir, lockfile)); err != nil {
			continue
		}
		depDir := dependencyDirFor[lockfile]
		if depDir == "" {
			return []string{installCmd}, nil
		}
		depPath := filepath.Join(repoDir, depDir)
		info, statErr := os.Lstat(depPath)
		switch {
		case os.IsNotExist(statErr):
			return []string{installCmd}, nil
		case statErr == nil && info.Mode()&os.ModeSymlink != 0:
			if _, targetErr := os.Stat(depPath); os.IsNotExist(targetErr) {
				if err := os.Remove(depPath); err != nil {
					return nil, err
				}
				return []string{installCmd}, nil
			}
		}
		// Dependency directory already present and healthy: nothing to do.
		return nil, nil
	}
	return nil, nil
}
