// Package config holds the daisy run configuration: defaults, an optional YAML file,
// environment overrides and validation. Command line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dave/daisy/geo"
	"github.com/dave/daisy/globals"
	"github.com/dave/daisy/tss"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Input  string `yaml:"input" validate:"required"`
	Output string `yaml:"output" validate:"required,txtfile,outputdirexists"`
	Anchor string `yaml:"anchor" validate:"omitempty,anchor"`

	Tool    string        `yaml:"tool" validate:"required"`
	Method  string        `yaml:"method" validate:"required,method"`
	Image   bool          `yaml:"image"`
	Timeout time.Duration `yaml:"timeout" validate:"min=0"`

	WorkDir  string `yaml:"work_dir" validate:"omitempty,dir"`
	KeepTemp bool   `yaml:"keep_temp"`

	Export ExportConfig `yaml:"export"`

	Verbose bool `yaml:"verbose"`
}

// ExportConfig selects the optional artefacts written from the chained legs.
type ExportConfig struct {
	GPX       string `yaml:"gpx"`
	GeoJSON   string `yaml:"geojson"`
	KML       string `yaml:"kml"`
	Preview   string `yaml:"preview" validate:"omitempty,endswith=.png"`
	Width     int    `yaml:"width" validate:"min=64,max=8192"`
	Height    int    `yaml:"height" validate:"min=64,max=8192"`
	Elevation bool   `yaml:"elevation"`
}

// Any reports whether at least one export is requested.
func (e ExportConfig) Any() bool {
	return e.GPX != "" || e.GeoJSON != "" || e.KML != "" || e.Preview != ""
}

func Default() *Config {
	return &Config{
		Input:  globals.DEFAULT_INPUT,
		Output: globals.DEFAULT_OUTPUT,
		Tool:   globals.DefaultTool(),
		Method: globals.DEFAULT_METHOD,
		Image:  true,
		Export: ExportConfig{
			Width:  800,
			Height: 600,
		},
	}
}

// Load reads a YAML config over the defaults. A missing file yields the defaults.
func Load(fpath string) (*Config, error) {
	return load(fpath, false)
}

// LoadFile is Load for a config file that must exist.
func LoadFile(fpath string) (*Config, error) {
	return load(fpath, true)
}

func load(fpath string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(fpath)
	if err != nil {
		if os.IsNotExist(err) && !required {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %q: %w", fpath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", fpath, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Save(fpath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(fpath, data, 0666); err != nil {
		return fmt.Errorf("writing config %q: %w", fpath, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if tool := os.Getenv("DAISY_TOOL"); tool != "" {
		c.Tool = tool
	}
	if dir := os.Getenv("DAISY_WORK_DIR"); dir != "" {
		c.WorkDir = dir
	}
}

// ParsedAnchor returns the validated starting anchor.
func (c *Config) ParsedAnchor() (geo.Anchor, error) {
	return geo.ParseAnchor(c.Anchor)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("method", func(fl validator.FieldLevel) bool {
		return tss.ValidMethod(fl.Field().String())
	})
	v.RegisterValidation("anchor", func(fl validator.FieldLevel) bool {
		_, err := geo.ParseAnchor(fl.Field().String())
		return err == nil
	})
	// with -t the tool derives the image name from the part before ".txt"
	v.RegisterValidation("txtfile", func(fl validator.FieldLevel) bool {
		if image := fl.Parent().FieldByName("Image"); image.IsValid() && !image.Bool() {
			return true
		}
		return strings.Contains(filepath.Base(fl.Field().String()), ".txt")
	})
	v.RegisterValidation("outputdirexists", func(fl validator.FieldLevel) bool {
		info, err := os.Stat(filepath.Dir(fl.Field().String()))
		return err == nil && info.IsDir()
	})
	// exports are written concurrently, so no two outputs may share a file
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(Config)
		seen := map[string]bool{}
		for _, t := range []struct{ field, path string }{
			{"Output", c.Output},
			{"GPX", c.Export.GPX},
			{"GeoJSON", c.Export.GeoJSON},
			{"KML", c.Export.KML},
			{"Preview", c.Export.Preview},
		} {
			if t.path == "" {
				continue
			}
			p := samePath(t.path)
			if seen[p] {
				sl.ReportError(t.path, t.field, t.field, "distinctpath", "")
				continue
			}
			seen[p] = true
		}
	}, Config{})
	return v
}

func samePath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Validate checks the configuration and reports the first problem in flag terms.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, e := range verrs {
		if e.Tag() == "distinctpath" {
			return fmt.Errorf("%s file %q is already used by another output", strings.ToLower(e.Field()), e.Value())
		}
		switch e.Field() {
		case "Input":
			return fmt.Errorf("input file is required: use -i <file>")
		case "Output":
			switch e.Tag() {
			case "required":
				return fmt.Errorf("output file is required: use -o <file>")
			case "txtfile":
				return fmt.Errorf("output file %q must have a .txt extension when an image is requested", c.Output)
			case "outputdirexists":
				return fmt.Errorf("output directory does not exist: %s", filepath.Dir(c.Output))
			}
		case "Anchor":
			_, aerr := geo.ParseAnchor(c.Anchor)
			return fmt.Errorf("could not parse anchor: %w", aerr)
		case "Tool":
			return fmt.Errorf("routing tool is required: use --tool <path>")
		case "Method":
			return fmt.Errorf("%q is not a valid method (valid methods: %s)", c.Method, strings.Join(tss.MethodNames(), ", "))
		case "WorkDir":
			return fmt.Errorf("work directory does not exist: %s", c.WorkDir)
		case "Preview":
			return fmt.Errorf("preview %q must be a .png file", c.Export.Preview)
		}
		return fmt.Errorf("invalid value for %s: %v", e.Namespace(), e.Value())
	}
	return err
}
