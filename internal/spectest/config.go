package spectest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/sunjito/wasmbin/internal/wasm"
	"github.com/sunjito/wasmbin/internal/wat"
)

// Format is the format of the scripts of a corpus.
type Format string

const (
	// FormatWast are .wast scripts.
	FormatWast Format = "wast"
	// FormatWast2JSON are the .json manifests wast2json writes, next to the .wasm files they reference.
	FormatWast2JSON Format = "wast2json"
)

// fileExtension is the file name extension of scripts in this format.
func (f Format) fileExtension() string {
	if f == FormatWast2JSON {
		return ".json"
	}
	return ".wast"
}

// Extensions are the names of the extension suites a corpus may include, each also the name of the feature it
// enables in the codec.
var Extensions = []string{
	"bulk-memory-operations",
	"reference-types",
	"simd",
	"tail-call",
	"threads",
}

// BaseFeatures are the features the base suite needs, beyond WebAssembly 1.0.
var BaseFeatures = []string{
	"mutable-global",
	"sign-extension-ops",
	"nontrapping-float-to-int-conversion",
	"multi-value",
}

// Config is the configuration of a run.
type Config struct {
	// Root is the directory containing the base suite.
	Root   string `json:"root" yaml:"root"`
	Format Format `json:"format" yaml:"format"`
	// ExtensionsDir is the directory under Root that contains a directory per extension suite.
	ExtensionsDir string `json:"extensions_dir" yaml:"extensions_dir"`
	// Extensions are the enabled extension suites, which are loaded and enable their feature.
	Extensions []string `json:"extensions" yaml:"extensions"`
	// Features are the codec features enabled in addition to those of Extensions.
	Features []string `json:"features" yaml:"features"`
	// Jobs is the count of test cases run concurrently.
	Jobs int `json:"jobs" yaml:"jobs"`
	// WatEncoder is the name of the wat.Encoder of text modules.
	WatEncoder string `json:"wat_encoder" yaml:"wat_encoder"`
	// RunIgnored runs ignored cases too, without their failures affecting the result.
	RunIgnored bool `json:"run_ignored" yaml:"run_ignored"`
	// Filter only runs cases whose name contains it, or equals it when Exact.
	Filter string `json:"filter" yaml:"filter"`
	Exact  bool   `json:"exact" yaml:"exact"`
	// StrictRoundtrip is ValidateOptions.Strict.
	StrictRoundtrip bool `json:"strict_roundtrip" yaml:"strict_roundtrip"`
	// Report is the path of a JSON report to write, if not empty.
	Report string `json:"report" yaml:"report"`
}

// DefaultConfig returns the configuration used for anything not configured.
func DefaultConfig() Config {
	return Config{
		Root:          filepath.Join("testdata", "testsuite"),
		Format:        FormatWast,
		ExtensionsDir: "extensions",
		Features:      append([]string(nil), BaseFeatures...),
		Jobs:          runtime.NumCPU(),
		WatEncoder:    wat.DefaultEncoder,
	}
}

// LoadConfig reads a configuration file over DefaultConfig. Files ending in .yaml or .yml are YAML, and others are
// JSON which may have comments and trailing commas.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w %s: invalid YAML: %v", ErrConfig, path, err)
		}
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return Config{}, fmt.Errorf("%w %s: invalid JSONC: %v", ErrConfig, path, err)
		}
		if err = json.Unmarshal(standardized, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w %s: invalid JSON: %v", ErrConfig, path, err)
		}
	}
	return cfg, nil
}

// Validate returns an error wrapping ErrConfig if the configuration can't be run.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("%w: root is empty", ErrConfig)
	}
	if c.Format != FormatWast && c.Format != FormatWast2JSON {
		return fmt.Errorf("%w: unknown format %q, expected %q or %q", ErrConfig, c.Format, FormatWast, FormatWast2JSON)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, but was %d", ErrConfig, c.Jobs)
	}
	// A repeated extension would load its suite twice, so names of cases would no longer be unique.
	for i, e := range c.Extensions {
		if !contains(Extensions, e) {
			return fmt.Errorf("%w: unknown extension %q, expected one of %v", ErrConfig, e, Extensions)
		}
		if contains(c.Extensions[:i], e) {
			return fmt.Errorf("%w: extension %q is repeated", ErrConfig, e)
		}
	}
	for i, f := range c.Features {
		if _, ok := wasm.FeatureByName(f); !ok {
			return fmt.Errorf("%w: unknown feature %q, expected one of %v", ErrConfig, f, wasm.FeatureNames())
		}
		if contains(c.Features[:i], f) {
			return fmt.Errorf("%w: feature %q is repeated", ErrConfig, f)
		}
	}
	if c.Exact && c.Filter == "" {
		return fmt.Errorf("%w: exact requires a filter", ErrConfig)
	}
	return nil
}

// CodecFeatures returns the features of Features and Extensions. Unknown names are skipped, see Validate.
func (c *Config) CodecFeatures() (features wasm.Features) {
	for _, names := range [][]string{c.Features, c.Extensions} {
		for _, name := range names {
			if f, ok := wasm.FeatureByName(name); ok {
				features = features.Set(f, true)
			}
		}
	}
	return
}

// ValidateOptions returns the options of Validate.
func (c *Config) ValidateOptions() ValidateOptions {
	return ValidateOptions{Strict: c.StrictRoundtrip}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
