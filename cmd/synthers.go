package cmd

import (
	"fmt"
	"strings"

	"github.com/sixop/sixop"
	"github.com/sixop/sixop/synth"
)

// Synthers lists the synth implementations compiled in. The first one is the
// default.
var Synthers = []sixop.Synther{synth.GoSynther{}}

var MainSynther = Synthers[0]

// SyntherByName finds a synther by its name, ignoring case. An empty name
// returns MainSynther.
func SyntherByName(name string) (sixop.Synther, error) {
	if name == "" {
		return MainSynther, nil
	}
	names := make([]string, 0, len(Synthers))
	for _, s := range Synthers {
		if strings.EqualFold(s.Name(), name) {
			return s, nil
		}
		names = append(names, s.Name())
	}
	return nil, fmt.Errorf("unknown synth %q, available: %s", name, strings.Join(names, ", "))
}
