package voice

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/audiobound/audiobound/pkg/types"
)

// catalogFile is the on-disk shape of a voice catalog: a flat list of Meta
// records under a single top-level key, so the file can grow additional
// top-level sections later without breaking existing readers.
type catalogFile struct {
	Voices []Meta `yaml:"voices"`
}

// LoadCatalog reads a voice catalog from a YAML file: the metadata
// (locale, base name, multilingual flag, gender) needed to turn an
// enabled-voice id list into pool-ready Meta records. Providers don't
// expose this consistently across vendors, so it ships as config rather
// than being queried at runtime.
func LoadCatalog(path string) ([]Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("voice: read catalog: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("voice: parse catalog: %w", err)
	}
	return f.Voices, nil
}

// DefaultCatalog returns the built-in catalog used when no catalog file is
// configured: the stock OpenAI text-to-speech voices, each offered as a
// native en-US entry and a multilingual variant sharing the same base
// name, so Dedup has real same-BaseName groups to collapse.
func DefaultCatalog() []Meta {
	type stock struct {
		name   string
		gender types.Gender
	}
	voices := []stock{
		{"alloy", types.GenderUnknown},
		{"echo", types.GenderMale},
		{"fable", types.GenderMale},
		{"onyx", types.GenderMale},
		{"nova", types.GenderFemale},
		{"shimmer", types.GenderFemale},
		{"ash", types.GenderMale},
		{"ballad", types.GenderMale},
		{"coral", types.GenderFemale},
		{"sage", types.GenderFemale},
		{"verse", types.GenderMale},
	}

	catalog := make([]Meta, 0, len(voices)*2)
	for _, v := range voices {
		catalog = append(catalog,
			Meta{ID: "en-US, " + v.name, Locale: "en-US", BaseName: v.name, Multilingual: false, Gender: v.gender},
			Meta{ID: "multi, " + v.name, Locale: "multi", BaseName: v.name, Multilingual: true, Gender: v.gender},
		)
	}
	return catalog
}

// ResolveEnabled filters catalog down to the voices named by enabledIDs, in
// the order catalog lists them (not the order of enabledIDs — BuildPool
// imposes its own ordering downstream).
func ResolveEnabled(catalog []Meta, enabledIDs []string) []Meta {
	wanted := make(map[string]bool, len(enabledIDs))
	for _, id := range enabledIDs {
		wanted[id] = true
	}
	out := make([]Meta, 0, len(enabledIDs))
	for _, m := range catalog {
		if wanted[m.ID] {
			out = append(out, m)
		}
	}
	return out
}
