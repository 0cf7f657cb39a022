package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/YZTangent/lsmcp/pkg/errors"
	"github.com/YZTangent/lsmcp/pkg/logger"
	"github.com/YZTangent/lsmcp/pkg/schema"
)

// envConfigPath is checked before the user-global config file.
const envConfigPath = "LSMCP_CONFIG"

// Loader resolves an LspPackage for a file extension, language name, or
// server name, preferring a user override file over the built-in
// defaults. Candidate config file locations are searched in priority
// order: ./.lsmcp.toml, $LSMCP_CONFIG, then the user config directory.
type Loader struct {
	defaults map[string]*schema.LspPackage
	user     *schema.UserConfig
}

// New builds a Loader, locating and parsing an optional user config file
// via the candidate search path. A missing file at every candidate is not
// an error; a present-but-malformed file is.
func New() (*Loader, error) {
	l := &Loader{defaults: Defaults()}

	path, err := findUserConfig()
	if err != nil {
		return nil, err
	}
	if path == "" {
		logger.Debug("no user config file found")
		return l, nil
	}

	cfg, err := loadUserConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded user configuration", "path", path)
	l.user = cfg
	return l, nil
}

func findUserConfig() (string, error) {
	candidates := []string{}

	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".lsmcp.toml"))
	}
	if p := os.Getenv(envConfigPath); p != "" {
		candidates = append(candidates, p)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "lsmcp", "config.toml"))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// loadUserConfig parses the TOML file at path. viper first reads the file,
// so a file it cannot read is reported as a config error; the returned
// schema.UserConfig is then decoded from the file with BurntSushi/toml.
// Values viper holds, including LSMCP_-prefixed environment variables, are
// not applied to the returned config.
func loadUserConfig(path string) (*schema.UserConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LSMCP")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigError("failed to read config: " + err.Error())
	}

	var cfg schema.UserConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config: " + err.Error())
	}
	return &cfg, nil
}

// ResolveByExtension returns the package serving files with the given
// extension (without a leading dot), preferring a user override and
// falling back to the built-in defaults.
func (l *Loader) ResolveByExtension(ext string) (*schema.LspPackage, error) {
	if l.user != nil {
		for _, pkg := range l.user.LSP {
			if pkg.HasExtension(ext) {
				return pkg, nil
			}
		}
	}
	for _, pkg := range l.defaults {
		if pkg.HasExtension(ext) {
			return pkg, nil
		}
	}
	return nil, errors.NewUnsupportedLanguage("." + ext)
}

// ResolveByLanguage returns the package serving the given LSP language
// identifier (e.g. "go", "python"), preferring a user override.
func (l *Loader) ResolveByLanguage(language string) (*schema.LspPackage, error) {
	if l.user != nil {
		if pkg, ok := l.user.LSP[language]; ok {
			return pkg, nil
		}
		for _, pkg := range l.user.LSP {
			if pkg.HasLanguage(language) {
				return pkg, nil
			}
		}
	}
	if pkg, ok := l.defaults[language]; ok {
		return pkg, nil
	}
	return nil, errors.NewUnsupportedLanguage(language)
}

// ResolveByName returns the package whose Name field matches exactly.
func (l *Loader) ResolveByName(name string) (*schema.LspPackage, error) {
	if l.user != nil {
		for _, pkg := range l.user.LSP {
			if pkg.Name == name {
				return pkg, nil
			}
		}
	}
	for _, pkg := range l.defaults {
		if pkg.Name == name {
			return pkg, nil
		}
	}
	return nil, errors.NewConfigError("LSP server not found: " + name)
}

// List returns every known package, user overrides first, deduplicated by
// Name, sorted for stable output.
func (l *Loader) List() []*schema.LspPackage {
	seen := make(map[string]bool)
	var out []*schema.LspPackage

	add := func(pkgs map[string]*schema.LspPackage) {
		names := make([]string, 0, len(pkgs))
		for k := range pkgs {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			pkg := pkgs[k]
			if seen[pkg.Name] {
				continue
			}
			seen[pkg.Name] = true
			out = append(out, pkg)
		}
	}

	if l.user != nil {
		add(l.user.LSP)
	}
	add(l.defaults)
	return out
}
