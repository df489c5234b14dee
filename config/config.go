// Package config loads wlgl's settings from defaults, an optional TOML
// file and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file that is loaded, if it exists, when
// no other file is given.
const DefaultPath = "~/.config/wlgl/config.toml"

// MaxSize is the largest accepted window width or height.
const MaxSize = 16384

// Config holds the settings of a run.
type Config struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	AppID  string `toml:"app_id"`

	// VertexShader and FragmentShader are paths to WGSL files that
	// replace the built-in shaders.
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`

	GL        Version   `toml:"gl"`
	Profile   string    `toml:"profile"`
	Fallbacks []Version `toml:"fallbacks"`

	Verbose bool `toml:"verbose"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Width:   800,
		Height:  600,
		Title:   "wlgl",
		AppID:   "dev.deedles.wlgl",
		GL:      Version{Major: 4, Minor: 0},
		Profile: "core",
	}
}

// Load decodes the TOML file at path over c. A leading ~ in path is
// expanded to the user's home directory. Unknown keys are an error.
func (c *Config) Load(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("expand %q: %w", path, err)
	}
	path = expanded

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	dec := toml.NewDecoder(file)
	dec.DisallowUnknownFields()
	err = dec.Decode(c)
	if err != nil {
		return fmt.Errorf("decode %v: %w", path, err)
	}
	return nil
}

// RegisterFlags defines a flag for every setting in fs. The current
// values of c are the flags' defaults.
func (c *Config) RegisterFlags(flags *flag.FlagSet) {
	flags.IntVar(&c.Width, "width", c.Width, "window width")
	flags.IntVar(&c.Height, "height", c.Height, "window height")
	flags.StringVar(&c.Title, "title", c.Title, "window title")
	flags.StringVar(&c.AppID, "appid", c.AppID, "application ID")
	flags.StringVar(&c.VertexShader, "vert", c.VertexShader, "WGSL vertex shader `file`")
	flags.StringVar(&c.FragmentShader, "frag", c.FragmentShader, "WGSL fragment shader `file`")
	flags.Var(&c.GL, "gl", "OpenGL `version` to request")
	flags.StringVar(&c.Profile, "profile", c.Profile, "OpenGL profile, core or compat")
	flags.Var((*versionList)(&c.Fallbacks), "fallback", "comma-separated OpenGL `versions` to try if -gl is rejected")
	flags.BoolVar(&c.Verbose, "v", c.Verbose, "verbose logging")
}

// Parse builds a Config from the defaults, the file named by the
// -config flag and the remaining flags in args.
func Parse(name string, args []string) (Config, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	path := flags.String("config", DefaultPath, "config `file`")
	cli := Default()
	cli.RegisterFlags(flags)
	err := flags.Parse(args)
	if err != nil {
		return Config{}, err
	}
	if flags.NArg() != 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %q", flags.Args())
	}

	var explicit bool
	flags.Visit(func(f *flag.Flag) { explicit = explicit || (f.Name == "config") })

	cfg := Default()
	err = cfg.Load(*path)
	if err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	overlay := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.RegisterFlags(overlay)
	var errs []error
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			return
		}
		errs = append(errs, overlay.Set(f.Name, f.Value.String()))
	})
	err = errors.Join(errs...)
	if err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case (c.Width <= 0) || (c.Height <= 0) || (c.Width > MaxSize) || (c.Height > MaxSize):
		return fmt.Errorf("invalid window size %vx%v", c.Width, c.Height)
	case c.Title == "":
		return errors.New("empty title")
	case c.AppID == "":
		return errors.New("empty app ID")
	case c.GL.Major <= 0:
		return fmt.Errorf("invalid OpenGL version %v", c.GL)
	case (c.Profile != "core") && (c.Profile != "compat"):
		return fmt.Errorf("unknown OpenGL profile %q", c.Profile)
	}
	for _, v := range c.Fallbacks {
		if v.Major <= 0 {
			return fmt.Errorf("invalid fallback OpenGL version %v", v)
		}
	}
	return nil
}

// Shaders reads the shader override files. A shader that is not
// overridden is returned as an empty string.
func (c Config) Shaders() (vertex, fragment string, err error) {
	vertex, err = readFile(c.VertexShader)
	if err != nil {
		return "", "", fmt.Errorf("read vertex shader: %w", err)
	}
	fragment, err = readFile(c.FragmentShader)
	if err != nil {
		return "", "", fmt.Errorf("read fragment shader: %w", err)
	}
	return vertex, fragment, nil
}

func readFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	path, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

// Version is an OpenGL version. Its text form is "major.minor".
type Version struct {
	Major int
	Minor int
}

// ParseVersion parses a version of the form "major.minor" or
// "major".
func ParseVersion(str string) (Version, error) {
	major, minor, _ := strings.Cut(strings.TrimSpace(str), ".")
	if minor == "" {
		minor = "0"
	}

	maj, err := strconv.ParseUint(major, 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", str, err)
	}
	mnr, err := strconv.ParseUint(minor, 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("parse version %q: %w", str, err)
	}
	return Version{Major: int(maj), Minor: int(mnr)}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%v.%v", v.Major, v.Minor)
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	p, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// Set implements flag.Value.
func (v *Version) Set(str string) error {
	return v.UnmarshalText([]byte(str))
}

// versionList is a flag.Value holding comma-separated versions.
type versionList []Version

func (list *versionList) String() string {
	if list == nil {
		return ""
	}
	strs := make([]string, 0, len(*list))
	for _, v := range *list {
		strs = append(strs, v.String())
	}
	return strings.Join(strs, ",")
}

func (list *versionList) Set(str string) error {
	var vs []Version
	for _, part := range strings.Split(str, ",") {
		v, err := ParseVersion(part)
		if err != nil {
			return err
		}
		vs = append(vs, v)
	}
	*list = vs
	return nil
}
