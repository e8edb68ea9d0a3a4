// Package platform replaces a global service locator with an explicit,
// typed registry of host capabilities.
//
// A Builder collects service registrations during startup. Build selects the
// registrations for one host Platform, resolves every service once and returns
// an immutable Services registry that is passed to whatever needs it.
package platform

import (
	"fmt"
	"strings"
)

// Platform identifies a host runtime plugins can run on.
type Platform string

// Known host platforms.
const (
	Standalone Platform = "standalone"
	Gate       Platform = "gate"
	Bukkit     Platform = "bukkit"
	BungeeCord Platform = "bungee"
	Velocity   Platform = "velocity"
	Sponge     Platform = "sponge"
	Nukkit     Platform = "nukkit"
)

// All lists every known Platform.
var All = []Platform{Standalone, Gate, Bukkit, BungeeCord, Velocity, Sponge, Nukkit}

// Parse returns the Platform named s (case-insensitive).
func Parse(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range All {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownPlatform, s)
}

func (p Platform) String() string { return string(p) }

// Side restricts a registration to a set of platforms.
// An empty Side matches every platform.
type Side []Platform

// AnySide matches every platform.
var AnySide Side

// On returns a Side matching only the given platforms.
func On(platforms ...Platform) Side { return platforms }

// Matches reports whether p is part of the side.
func (s Side) Matches(p Platform) bool {
	if len(s) == 0 {
		return true
	}
	for _, o := range s {
		if o == p {
			return true
		}
	}
	return false
}

// specific reports whether the side names platforms explicitly.
// Platform specific registrations take precedence over AnySide ones.
func (s Side) specific() bool { return len(s) != 0 }
