package util

import (
	"os"
	"strings"
)

// GetEnvironmentVariables returns the environment variables whose names
// start with prefix. An empty prefix returns all of them.
func GetEnvironmentVariables(prefix string) map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		name, value, found := strings.Cut(variable, "=")
		if !found || !strings.HasPrefix(name, prefix) {
			continue
		}

		environmentVariables[name] = value
	}

	return environmentVariables
}
