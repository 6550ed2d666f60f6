package engine

// Profile is a named, immutable-after-construction toolchain configuration
// (spec §3). All list fields are ordered sequences of compiler/linker
// arguments exactly as they will be passed to exec.Command.
type Profile struct {
	Name                string
	Compiler            string
	StandardFlag        string
	Defines             []string
	CompileOptions      []string
	LinkOptions         []string
	LinkDirectories     []string
	IncludeDirectories  []string
}

// ProfileOverride is the parsed shape of a `[profiles.<name>]` TOML table
// (see internal/config). List fields accept a bare string or an array of
// strings there; by the time it reaches this package it is always a slice.
type ProfileOverride struct {
	Compiler           string
	Standard           string
	Defines            []string
	Options            []string
	LinkingOptions     []string
	LinkingDirectories []string
	IncludeDirectories []string
}

// emptyProfile is the baseline a custom (non-preset) profile starts from,
// grounded on original_source/src/abs/profile.rs Profile::empty.
func emptyProfile(name string) *Profile {
	return &Profile{
		Name:         name,
		Compiler:     "gcc",
		StandardFlag: "-std=c++17",
	}
}

// defaultWarningFlags is the curated warning set every preset profile
// carries, reproduced verbatim from
// original_source/src/abs/profiles_manager.rs.
var defaultWarningFlags = []string{
	"-pedantic",
	"-Wall",
	"-Wextra",
	"-Wcast-align",
	"-Wcast-qual",
	"-Wconversion",
	"-Wdisabled-optimization",
	"-Wmissing-include-dirs",
	"-Wmissing-noreturn",
	"-Wshadow",
	"-Wstack-protector",
	"-Wunreachable-code",
	"-Wfloat-equal",
	"-Wunused",
	"-Wswitch",
	"-Wswitch-enum",
	"-Winit-self",
	"-Wuninitialized",
	"-Wformat=2",
	"-Wformat-nonliteral",
	"-Wformat-security",
	"-Wformat-y2k",
	"-Winline",
	"-Wredundant-decls",
}

func withWarnings(flags ...string) []string {
	out := make([]string, 0, len(flags)+len(defaultWarningFlags))
	out = append(out, flags...)
	out = append(out, defaultWarningFlags...)
	return out
}

// DefaultProfiles returns the six built-in presets (spec §4.F), each
// reproduced from original_source/src/abs/profiles_manager.rs.
func DefaultProfiles() map[string]*Profile {
	release := emptyProfile("release")
	release.Compiler = "g++"
	release.CompileOptions = withWarnings("-O2", "-g0", "-Werror")

	debug := emptyProfile("debug")
	debug.Compiler = "g++"
	debug.CompileOptions = withWarnings("-O0", "-g3", "-Werror")

	releaseUnsafe := emptyProfile("release-unsafe")
	releaseUnsafe.Compiler = "g++"
	releaseUnsafe.CompileOptions = withWarnings("-O3", "-g0")

	debugUnsafe := emptyProfile("debug-unsafe")
	debugUnsafe.Compiler = "g++"
	debugUnsafe.CompileOptions = withWarnings("-O0", "-g3")

	debugAsan := emptyProfile("debug-asan")
	debugAsan.Compiler = "g++"
	debugAsan.LinkOptions = []string{"-fsanitize=address", "-fsanitize=undefined", "-fsanitize=leak"}
	debugAsan.CompileOptions = withWarnings("-O0", "-g3", "-Werror", "-fsanitize=address", "-fsanitize=undefined", "-fsanitize=leak")

	debugTsan := emptyProfile("debug-tsan")
	debugTsan.Compiler = "g++"
	debugTsan.LinkOptions = []string{"-fsanitize=thread"}
	debugTsan.CompileOptions = withWarnings("-O0", "-g3", "-Werror", "-fsanitize=thread")

	return map[string]*Profile{
		release.Name:       release,
		debug.Name:         debug,
		releaseUnsafe.Name: releaseUnsafe,
		debugUnsafe.Name:   debugUnsafe,
		debugAsan.Name:     debugAsan,
		debugTsan.Name:     debugTsan,
	}
}

// ApplyOverride augments p with a config override: scalar fields (compiler,
// standard) replace the default, list fields (defines, options, ...) are
// appended to it. This matches
// original_source/src/abs/profile.rs Profile::fill_from_config, and is the
// concrete reading of spec §4.F's "override or augment these defaults
// field-by-field".
func (p *Profile) ApplyOverride(o *ProfileOverride) {
	if o == nil {
		return
	}
	if o.Compiler != "" {
		p.Compiler = o.Compiler
	}
	if o.Standard != "" {
		p.StandardFlag = o.Standard
	}
	p.Defines = append(p.Defines, o.Defines...)
	p.CompileOptions = append(p.CompileOptions, o.Options...)
	p.LinkOptions = append(p.LinkOptions, o.LinkingOptions...)
	p.LinkDirectories = append(p.LinkDirectories, o.LinkingDirectories...)
	p.IncludeDirectories = append(p.IncludeDirectories, o.IncludeDirectories...)
}

// BuildProfile produces the effective Profile for name: a preset merged
// with its override if name matches one of the six built-ins, or an empty
// baseline merged with the override otherwise (custom profile).
func BuildProfile(name string, presets map[string]*Profile, override *ProfileOverride) *Profile {
	var p *Profile
	if preset, ok := presets[name]; ok {
		clone := *preset
		clone.Defines = append([]string(nil), preset.Defines...)
		clone.CompileOptions = append([]string(nil), preset.CompileOptions...)
		clone.LinkOptions = append([]string(nil), preset.LinkOptions...)
		clone.LinkDirectories = append([]string(nil), preset.LinkDirectories...)
		clone.IncludeDirectories = append([]string(nil), preset.IncludeDirectories...)
		p = &clone
	} else {
		p = emptyProfile(name)
	}
	p.ApplyOverride(override)
	return p
}
