// Package report renders human readable summaries of patches.
package report

import (
	"embed"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/sixop/sixop"
	"github.com/sixop/sixop/version"
)

type (
	data struct {
		Name    string
		Version string
		Changed int
		Total   int
		Groups  []group
		Routes  []route
	}

	group struct {
		Name string
		Rows []row
	}

	row struct {
		Name    string
		Value   string
		Default string
		Range   string
	}

	route struct {
		Source, Target string
		Mode           string
		Depth          string
	}
)

//go:embed templates/*
var templateFS embed.FS

var tmpl = template.Must(template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.txt"))

// Patch writes a report of patch to w: every parameter that differs from its
// default, grouped like in the parameter list, and the active modulation
// routes.
func Patch(w io.Writer, patch *sixop.Patch, name string) error {
	d := data{Name: name, Version: version.VersionOrHash, Total: patch.Len()}
	groupIndex := map[string]int{}
	for _, p := range patch.Params() {
		if p.Value == p.Meta.Default {
			continue
		}
		d.Changed++
		i, ok := groupIndex[p.Meta.Group]
		if !ok {
			i = len(d.Groups)
			groupIndex[p.Meta.Group] = i
			d.Groups = append(d.Groups, group{Name: p.Meta.Group})
		}
		g := &d.Groups[i]
		g.Rows = append(g.Rows, row{
			Name:    p.Meta.Name,
			Value:   p.Meta.Format(p.Value),
			Default: p.Meta.Format(p.Meta.Default),
			Range:   valueRange(p.Meta),
		})
	}
	d.Routes = routes(patch)
	if err := tmpl.ExecuteTemplate(w, "patch", d); err != nil {
		return fmt.Errorf("could not execute report template: %w", err)
	}
	return nil
}

// valueRange describes the values a parameter can take.
func valueRange(m *sixop.ParamMeta) string {
	switch {
	case m.Kind == sixop.BoolParam:
		return "on/off"
	case m.Steps() > 0:
		return fmt.Sprintf("%d steps", m.Steps())
	case m.Bipolar() && m.Display == nil:
		return "±" + m.Format(m.Max)
	}
	return m.Format(m.Min) + " to " + m.Format(m.Max)
}

// routes lists the matrix edges that modulate their target.
func routes(patch *sixop.Patch) []route {
	var ret []route
	for e := 0; e < sixop.MatrixSize; e++ {
		depthID := sixop.MatrixID(e, sixop.MatrixDepth)
		if !patch.Bool(sixop.MatrixID(e, sixop.MatrixActive)) || patch.Value(depthID) == 0 {
			continue
		}
		depth, _ := patch.Lookup(depthID)
		mode, _ := patch.Lookup(sixop.MatrixID(e, sixop.MatrixMode))
		ret = append(ret, route{
			Source: fmt.Sprintf("Op %d", sixop.MatrixSourceAt(e)+1),
			Target: fmt.Sprintf("Op %d", sixop.MatrixTargetAt(e)+1),
			Mode:   mode.Meta.Format(mode.Value),
			Depth:  depth.Meta.Format(depth.Value),
		})
	}
	return ret
}
