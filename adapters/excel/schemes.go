package excel

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"sidecar/domain/dataset"
)

// LabelScheme maps source column headers to table labels
// (date, close, change). Unmapped source columns are dropped.
type LabelScheme map[string]string

// Built-in scheme names
const (
	SchemeYahooFinance = "yahoo_finance"
	SchemeIdentity     = "identity"
)

// BuiltinSchemes returns a fresh copy of the schemes shipped with the tool
func BuiltinSchemes() map[string]LabelScheme {
	return map[string]LabelScheme{
		SchemeYahooFinance: {
			"Date":  dataset.LabelDate,
			"Close": dataset.LabelClose,
		},
		SchemeIdentity: {
			dataset.LabelDate:   dataset.LabelDate,
			dataset.LabelClose:  dataset.LabelClose,
			dataset.LabelChange: dataset.LabelChange,
		},
	}
}

// schemeFile is the YAML layout of a scheme file:
//
//	schemes:
//	  stooq:
//	    Data: date
//	    Zamkniecie: close
type schemeFile struct {
	Schemes map[string]LabelScheme `yaml:"schemes"`
}

// LoadSchemes returns the built-in schemes merged with those in path.
// An empty path yields the built-ins only.
func LoadSchemes(path string) (map[string]LabelScheme, error) {
	schemes := BuiltinSchemes()
	if path == "" {
		return schemes, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scheme file: %w", err)
	}
	var file schemeFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse scheme file %s: %w", path, err)
	}
	for name, scheme := range file.Schemes {
		if err := scheme.Validate(); err != nil {
			return nil, fmt.Errorf("scheme %s: %w", name, err)
		}
		schemes[name] = scheme
	}
	return schemes, nil
}

// LookupScheme finds name among schemes
func LookupScheme(schemes map[string]LabelScheme, name string) (LabelScheme, error) {
	scheme, ok := schemes[name]
	if !ok {
		return nil, fmt.Errorf("unknown label scheme %q (available: %v)", name, SchemeNames(schemes))
	}
	return scheme, nil
}

// SchemeNames lists scheme names sorted
func SchemeNames(schemes map[string]LabelScheme) []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate requires date and close targets and rejects unknown targets
func (s LabelScheme) Validate() error {
	seen := map[string]bool{}
	for source, target := range s {
		switch target {
		case dataset.LabelDate, dataset.LabelClose, dataset.LabelChange:
		default:
			return fmt.Errorf("column %s maps to unknown label %q", source, target)
		}
		if seen[target] {
			return fmt.Errorf("label %q is mapped twice", target)
		}
		seen[target] = true
	}
	if !seen[dataset.LabelDate] || !seen[dataset.LabelClose] {
		return fmt.Errorf("scheme must map both %s and %s", dataset.LabelDate, dataset.LabelClose)
	}
	return nil
}

// sourceFor returns the source header mapped to label
func (s LabelScheme) sourceFor(label string) (string, bool) {
	for source, target := range s {
		if target == label {
			return source, true
		}
	}
	return "", false
}
