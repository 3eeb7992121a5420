// Package config loads the optional minifier pass profile
// (SPEC_FULL.md §A.3): a project can check in a .whitvm-minify.toml
// instead of retyping flags on every invocation. CLI flags always
// override values loaded from a profile.
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/FireShade3DS/whitvm/pkg/minifier"
)

// MinifyProfile is the on-disk shape of a .whitvm-minify.toml file.
type MinifyProfile struct {
	NameShrink          bool `toml:"name_shrink"`
	ConstantFold        bool `toml:"constant_fold"`
	StringPool          bool `toml:"string_pool"`
	DeadStore           bool `toml:"dead_store"`
	Unreachable         bool `toml:"unreachable"`
	StringPoolThreshold int  `toml:"string_pool_threshold"`
}

// LoadMinifyProfile reads a TOML profile from path.
func LoadMinifyProfile(path string) (MinifyProfile, error) {
	var p MinifyProfile
	_, err := toml.DecodeFile(path, &p)
	return p, err
}

// Options converts a loaded profile into minifier.Options.
func (p MinifyProfile) Options() minifier.Options {
	return minifier.Options{
		NameShrink:          p.NameShrink,
		ConstantFold:        p.ConstantFold,
		StringPool:          p.StringPool,
		DeadStore:           p.DeadStore,
		Unreachable:         p.Unreachable,
		StringPoolThreshold: p.StringPoolThreshold,
	}
}
