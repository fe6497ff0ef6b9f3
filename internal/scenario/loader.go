package scenario

import (
	_ "embed"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/fundsim/internal/domain"
)

//go:embed default.yaml
var defaultScenario []byte

// Load reads and resolves a scenario file.
func Load(path string) (Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, &domain.OpError{
			Op:   "scenario.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}
	return Parse(path, b)
}

// Parse decodes YAML bytes; path is only used in error messages.
func Parse(path string, b []byte) (Scenario, error) {
	var dto YAMLScenario
	if err := yaml.Unmarshal(b, &dto); err != nil {
		return Scenario{}, &domain.OpError{
			Op:   "scenario.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}
	return MapScenario(path, dto)
}

// Default returns the built-in scenario: the Turkish investment fund market
// with domestic and foreign investors.
func Default() (Scenario, error) {
	return Parse("<default>", defaultScenario)
}

// LoadOrDefault loads path, or the built-in scenario when path is empty.
func LoadOrDefault(path string) (Scenario, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}
