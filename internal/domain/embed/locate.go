package embed

import (
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveExecutable turns a configured executable into a runnable path.
// Environment variables are expanded first. A pattern containing glob
// metacharacters is matched with doublestar (e.g.
// "$LOCALAPPDATA/Programs/*/Code.exe") and the lexically first regular file
// wins; anything else is looked up like a shell would.
func ResolveExecutable(pattern string) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("no executable configured")
	}
	expanded := os.ExpandEnv(pattern)

	if !hasGlobMeta(expanded) {
		path, err := exec.LookPath(expanded)
		if err != nil {
			return "", fmt.Errorf("resolve executable %q: %w", expanded, err)
		}
		return path, nil
	}

	matches, err := doublestar.FilepathGlob(expanded)
	if err != nil {
		return "", fmt.Errorf("glob executable %q: %w", expanded, err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if fi, err := os.Stat(m); err == nil && fi.Mode().IsRegular() {
			return m, nil
		}
	}
	return "", fmt.Errorf("no executable matches %q", expanded)
}

func hasGlobMeta(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
