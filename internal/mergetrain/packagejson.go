package mergetrain

import (
	"encoding/json"
	"os"
	"path/filepath"
)

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
}

// readPackageJSONTestScript returns scripts.test from repoDir/package.json,
// if present (spec.md §4.4 step 4).
func readPackageJSONTestScript(repoDir string) (string, bool) {
	raw, err := os.ReadFile(filepath.Join(repoDir, "package.json"))
	if err != nil {
		return "", false
	}
	var pkg packageJSON
	if err := json.Unmarshal(raw, &pkg); err != nil {
		return "", false
	}
	test, ok := pkg.Scripts["test"]
	if !ok || test == "" {
		return "", false
	}
	return test, true
}
