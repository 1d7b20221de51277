package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Profile describes a foreign editor: how to start it and how its windows
// are titled. Profiles are YAML or TOML, picked by file extension.
//
//	executable: "$LOCALAPPDATA/Programs/Microsoft VS Code/Code.exe"
//	args: ["--new-window", "--disable-workspace-trust"]
//	title_fragment: "Visual Studio Code"
type Profile struct {
	Executable    string   `yaml:"executable" toml:"executable"`
	Args          []string `yaml:"args" toml:"args"`
	Env           []string `yaml:"env" toml:"env"`
	TitleFragment string   `yaml:"title_fragment" toml:"title_fragment"`
	WorkspaceRoot string   `yaml:"workspace_root" toml:"workspace_root"`
}

// LoadProfile reads a profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data, filepath.Ext(path))
}

// ParseProfile decodes data according to ext (".yaml", ".yml" or ".toml").
func ParseProfile(data []byte, ext string) (*Profile, error) {
	var p Profile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse yaml profile: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse toml profile: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q", ext)
	}
	return &p, nil
}

// Apply overrides the editor fields of cfg that the profile sets.
func (p *Profile) Apply(cfg *EmbedConfig) {
	if p.Executable != "" {
		cfg.Executable = p.Executable
	}
	if len(p.Args) > 0 {
		cfg.Args = p.Args
	}
	if len(p.Env) > 0 {
		cfg.Env = p.Env
	}
	if p.TitleFragment != "" {
		cfg.TitleFragment = p.TitleFragment
	}
	if p.WorkspaceRoot != "" {
		cfg.WorkspaceRoot = p.WorkspaceRoot
	}
}
