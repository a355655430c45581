package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} references. Unset or
// empty variables without a default expand to "".
func ExpandEnvVars(input string) string {
	return expandEnv(input, os.Getenv)
}

func expandEnv(input string, getenv func(string) string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val := getenv(submatch[1]); val != "" {
			return val
		}
		return submatch[2]
	})
}

// ResolvePath resolves target against base unless it is absolute. A
// leading ~/ is the user's home directory.
func ResolvePath(base, target string) string {
	if filepath.IsAbs(target) {
		return target
	}
	if strings.HasPrefix(target, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, target[2:])
		}
	}
	return filepath.Join(base, target)
}
