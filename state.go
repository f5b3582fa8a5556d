package sixop

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// StateVersion is the version written to serialized patches. Readers accept
// any version: unknown identifiers are ignored and missing ones keep their
// defaults.
const StateVersion = 1

type (
	// stateFile is the document written by Serialize.
	stateFile struct {
		Version int                `yaml:"version"`
		Name    string             `yaml:"name,omitempty"`
		Params  map[uint32]float32 `yaml:"params"`
	}

	// stateFileIn is used for reading, so that the params can be parsed entry
	// by entry.
	stateFileIn struct {
		Version int       `yaml:"version"`
		Name    string    `yaml:"name"`
		Params  yaml.Node `yaml:"params"`
	}

	// StateError is returned by Deserialize when the document could be read
	// but some of its entries were not understood. The entries that could be
	// parsed have been applied; the rest of the parameters are at their
	// defaults.
	StateError struct {
		Skipped []string // descriptions of the skipped entries
	}
)

// ErrCorruptState is wrapped by the errors returned when the state document
// cannot be read at all.
var ErrCorruptState = errors.New("corrupt patch state")

func (e *StateError) Error() string {
	return fmt.Sprintf("%d patch state entries skipped: %s", len(e.Skipped), strings.Join(e.Skipped, "; "))
}

// Serialize returns a snapshot of every parameter value, keyed by identifier.
func (p *Patch) Serialize() ([]byte, error) {
	return p.SerializeNamed("")
}

// SerializeNamed is like Serialize, but also stores a patch name.
func (p *Patch) SerializeNamed(name string) ([]byte, error) {
	f := stateFile{Version: StateVersion, Name: name, Params: make(map[uint32]float32, len(p.params))}
	for i := range p.params {
		f.Params[p.params[i].Meta.ID] = p.params[i].Value
	}
	b, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("could not marshal patch state: %w", err)
	}
	return b, nil
}

// Deserialize resets the patch to defaults and then applies every value found
// in data. Both the YAML documents written by Serialize and equivalent JSON
// documents are accepted. Unknown identifiers are ignored. Unparseable
// entries are skipped and reported in a *StateError; a damaged or truncated
// document is read line by line so the intact entries survive. If no entry can
// be read at all, the patch is left untouched and an error wrapping
// ErrCorruptState is returned.
func (p *Patch) Deserialize(data []byte) error {
	_, err := p.DeserializeNamed(data)
	return err
}

// DeserializeNamed is like Deserialize, but also returns the stored patch name.
func (p *Patch) DeserializeNamed(data []byte) (name string, err error) {
	var f stateFileIn
	if err := yaml.Unmarshal(data, &f); err != nil {
		return p.deserializeLines(data, err)
	}
	params := &f.Params
	if params.Kind == yaml.DocumentNode && len(params.Content) > 0 {
		params = params.Content[0]
	}
	if params.Kind != yaml.MappingNode && params.Kind != 0 {
		return "", fmt.Errorf("%w: params is not a mapping (line %d)", ErrCorruptState, params.Line)
	}
	p.Reset()
	var skipped []string
	for i := 0; i+1 < len(params.Content); i += 2 {
		k, v := params.Content[i], params.Content[i+1]
		id, err := strconv.ParseUint(k.Value, 10, 32)
		if err != nil || k.Kind != yaml.ScalarNode {
			skipped = append(skipped, fmt.Sprintf("line %d: bad id %q", k.Line, k.Value))
			continue
		}
		val, err := strconv.ParseFloat(v.Value, 32)
		if err != nil || v.Kind != yaml.ScalarNode {
			skipped = append(skipped, fmt.Sprintf("line %d: bad value for %d", v.Line, id))
			continue
		}
		p.Set(uint32(id), float32(val)) // unknown ids are ignored
	}
	if len(skipped) > 0 {
		return f.Name, &StateError{Skipped: skipped}
	}
	return f.Name, nil
}

// deserializeLines salvages a document that is not valid YAML, e.g. a
// truncated file or one with a damaged byte. Serialize writes one "id: value"
// pair per line, so every line that still parses is applied and the others
// are reported as skipped. If no entry can be read, the patch is left
// untouched and ErrCorruptState is returned.
func (p *Patch) deserializeLines(data []byte, yamlErr error) (name string, err error) {
	type entry struct {
		id  uint32
		val float32
	}
	var entries []entry
	skipped := []string{fmt.Sprintf("document: %v", yamlErr)}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "{},")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		key = strings.Trim(strings.TrimSpace(key), `"`)
		value = strings.TrimSpace(value)
		switch key {
		case "version", "params":
			continue
		case "name":
			var n string
			if yaml.Unmarshal([]byte(value), &n) == nil {
				name = n
			}
			continue
		}
		id, err := strconv.ParseUint(key, 10, 32)
		if !found || err != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: bad entry %q", i+1, line))
			continue
		}
		val, err := strconv.ParseFloat(value, 32)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("line %d: bad value for %d", i+1, id))
			continue
		}
		entries = append(entries, entry{uint32(id), float32(val)})
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("%w: %v", ErrCorruptState, yamlErr)
	}
	p.Reset()
	for _, e := range entries {
		p.Set(e.id, e.val) // unknown ids are ignored
	}
	return name, &StateError{Skipped: skipped}
}
