package control

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sixop/sixop"
	"gopkg.in/yaml.v2"
)

//go:embed presets/*
var factoryPresetFS embed.FS

type (
	// Preset is a named set of parameter values. Parameters not listed keep
	// their defaults when the preset is applied.
	Preset struct {
		Name     string             `yaml:"-"`
		Category string             `yaml:"-"` // the directory of the preset
		User     bool               `yaml:"-"`
		Comment  string             `yaml:"comment,omitempty"`
		Params   map[uint32]float32 `yaml:"params"`
	}

	// Presets is the list of factory and user presets, sorted by category
	// and name.
	Presets struct {
		Presets    []Preset
		Categories []string
	}
)

// UserPresetDir returns the directory where user presets are stored.
func UserPresetDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user config directory: %w", err)
	}
	return filepath.Join(configDir, "sixop"), nil
}

// NewPreset captures the values of patch that differ from their defaults.
func NewPreset(name, category string, patch *sixop.Patch) Preset {
	p := Preset{Name: name, Category: category, User: true, Params: map[uint32]float32{}}
	for _, prm := range patch.Params() {
		if prm.Value != prm.Meta.Default {
			p.Params[prm.Meta.ID] = prm.Value
		}
	}
	return p
}

// ApplyTo resets patch and sets the values of the preset. Unknown ids are
// ignored, as they may come from a newer version.
func (p *Preset) ApplyTo(patch *sixop.Patch) {
	patch.Reset()
	for id, v := range p.Params {
		patch.Set(id, v)
	}
}

// Load reads the factory presets and, if userDir is not empty, the user
// presets under userDir/presets.
func (m *Presets) Load(userDir string) {
	*m = Presets{}
	seen := make(map[string]bool)
	m.loadFS(factoryPresetFS, false, seen)
	if userDir != "" {
		m.loadFS(os.DirFS(userDir), true, seen)
	}
	sort.Sort(m)
	for k := range seen {
		m.Categories = append(m.Categories, k)
	}
	sort.Strings(m.Categories)
}

func (m *Presets) loadFS(fsys fs.FS, user bool, seen map[string]bool) {
	fs.WalkDir(fsys, "presets", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil
		}
		var preset Preset
		if yaml.UnmarshalStrict(data, &preset) != nil {
			return nil
		}
		parts := strings.Split(strings.TrimSuffix(p, ".yml"), "/")[1:] // drop "presets"
		preset.Name = filenameToPresetName(parts[len(parts)-1])
		preset.Category = strings.Join(parts[:len(parts)-1], "/")
		preset.User = user
		if preset.Category != "" {
			seen[preset.Category] = true
		}
		m.Presets = append(m.Presets, preset)
		return nil
	})
}

// Find returns the preset with the given name, case insensitively. User
// presets shadow factory presets.
func (m *Presets) Find(name string) (*Preset, bool) {
	var ret *Preset
	for i := range m.Presets {
		p := &m.Presets[i]
		if strings.EqualFold(p.Name, name) && (ret == nil || p.User) {
			ret = p
		}
	}
	return ret, ret != nil
}

// SaveUserPreset writes p under userDir/presets/<category>/ and returns the
// path of the file.
func SaveUserPreset(userDir string, p *Preset) (string, error) {
	dir := filepath.Join(userDir, "presets", filepath.FromSlash(p.Category))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create preset directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("could not marshal preset: %w", err)
	}
	fileName := filepath.Join(dir, presetNameToFilename(p.Name)+".yml")
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return "", fmt.Errorf("could not write preset: %w", err)
	}
	return fileName, nil
}

func (m *Presets) Len() int { return len(m.Presets) }
func (m *Presets) Less(i, j int) bool {
	if m.Presets[i].Category != m.Presets[j].Category {
		return m.Presets[i].Category < m.Presets[j].Category
	}
	if m.Presets[i].Name != m.Presets[j].Name {
		return m.Presets[i].Name < m.Presets[j].Name
	}
	return !m.Presets[i].User && m.Presets[j].User
}
func (m *Presets) Swap(i, j int) { m.Presets[i], m.Presets[j] = m.Presets[j], m.Presets[i] }

func filenameToPresetName(filename string) string {
	return strings.ReplaceAll(filename, "_", " ")
}

var nonFilenameChars = regexp.MustCompile("[^a-zA-Z0-9 _]+")

func presetNameToFilename(name string) string {
	name = nonFilenameChars.ReplaceAllString(name, "")
	return strings.ReplaceAll(name, " ", "_")
}
