package version

import (
	"strings"
)

// Version information set by build flags
// Version is the current version of hostkit.
// Set using -ldflags "-X go.minekube.com/hostkit/pkg/version.version=v1.2.3"
var version string = "unknown"

func String() string {
	return version
}

// UserAgent identifies hostkit towards host platforms.
func UserAgent() string {
	s := strings.Builder{}
	s.WriteString("Minekube-Hostkit/")
	if v := String(); v != "" {
		s.WriteString(v)
	} else {
		s.WriteString("Dirty")
	}
	return s.String()
}
