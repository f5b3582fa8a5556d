package version

import "runtime/debug"

// You can set the version at build time using something like:
// go build -ldflags "-X github.com/sixop/sixop/version.Version=$(git describe --dirty)"

var Version string

var Hash = func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var revision string
	modified := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified && revision != "" {
		return revision + "-dirty"
	}
	return revision
}()

// VersionOrHash is the version if set at build time, otherwise the short
// commit hash, otherwise "dev".
var VersionOrHash = func() string {
	switch {
	case Version != "":
		return Version
	case Hash != "":
		return Hash
	}
	return "dev"
}()
