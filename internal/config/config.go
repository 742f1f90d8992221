// Package config loads the INI sibling configuration file: a
// "[Defaults]" section, next to the executable, whose keys override the
// tool's built-in defaults before command-line flags are applied. Flags
// always win over the config file; the config file always wins over the
// zero-value defaults below.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// Defaults mirrors every flag in spec.md §6 that the config file can
// override, using the same field names the original tool's ConfigParams
// struct uses.
type Defaults struct {
	Hash            string
	Quiet           bool
	NoWait          bool
	ShowProgress    bool
	HashNames       bool
	StripNames      bool
	Clip            bool
	Lowercase       bool
	SkipError       bool
	NoLogo          bool
	NoFollow        bool
	Sum             bool
	Threads         bool
	SumRelativePath bool
	IncludeLastDir  bool
}

// BuiltIn returns the tool's zero-value defaults, used when no config
// file is present or a key is absent from it.
func BuiltIn() Defaults {
	return Defaults{Hash: "Blake3"}
}

// Load reads "<dir>/DirHash.ini" sibling to the given executable path, if
// it exists, applying its "[Defaults]" keys on top of BuiltIn(). A missing
// file is not an error — it simply leaves the defaults unchanged. Unknown
// keys are ignored; booleans compare "True"/"False" case-insensitively,
// same as every other value in the file.
func Load(executablePath string) (Defaults, error) {
	d := BuiltIn()

	iniPath := filepath.Join(filepath.Dir(executablePath), "DirHash.ini")
	if _, err := os.Stat(iniPath); err != nil {
		return d, nil
	}

	cfg, err := ini.Load(iniPath)
	if err != nil {
		return d, err
	}
	section := cfg.Section("Defaults")

	if v := section.Key("Hash").String(); v != "" {
		d.Hash = v
	}
	d.Quiet = boolKey(section, "Quiet", d.Quiet)
	d.NoWait = boolKey(section, "NoWait", d.NoWait)
	d.ShowProgress = boolKey(section, "ShowProgress", d.ShowProgress)
	d.HashNames = boolKey(section, "hashnames", d.HashNames)
	d.StripNames = boolKey(section, "stripnames", d.StripNames)
	d.Clip = boolKey(section, "clip", d.Clip)
	d.Lowercase = boolKey(section, "lowercase", d.Lowercase)
	d.SkipError = boolKey(section, "SkipError", d.SkipError)
	d.NoLogo = boolKey(section, "NoLogo", d.NoLogo)
	d.NoFollow = boolKey(section, "NoFollow", d.NoFollow)
	d.Sum = boolKey(section, "Sum", d.Sum)
	d.Threads = boolKey(section, "Threads", d.Threads)
	d.SumRelativePath = boolKey(section, "SumRelativePath", d.SumRelativePath)
	d.IncludeLastDir = boolKey(section, "IncludeLastDir", d.IncludeLastDir)

	return d, nil
}

func boolKey(section *ini.Section, name string, fallback bool) bool {
	if !section.HasKey(name) {
		return fallback
	}
	return strings.EqualFold(section.Key(name).String(), "True")
}
