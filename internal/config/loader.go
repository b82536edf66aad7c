package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"fluxpipe/internal/output"
)

// Config holds runtime parameters for a simulation run.
// Zero values mean "unspecified" and are replaced by ApplyDefaults.
type Config struct {
	ModelsDir           string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	SamplePrefix        string `json:"sample_prefix" yaml:"sample_prefix" toml:"sample_prefix"`
	DietFile            string `json:"diet_file" yaml:"diet_file" toml:"diet_file"`
	PersonalizedDietDir string `json:"personalized_diet_dir" yaml:"personalized_diet_dir" toml:"personalized_diet_dir"`
	ResultsDir          string `json:"results_dir" yaml:"results_dir" toml:"results_dir"`

	CheckpointDriver string `json:"checkpoint_driver" yaml:"checkpoint_driver" toml:"checkpoint_driver"`
	CheckpointPath   string `json:"checkpoint_path" yaml:"checkpoint_path" toml:"checkpoint_path"`

	Workers     int     `json:"workers" yaml:"workers" toml:"workers"`
	FVAFraction float64 `json:"fva_fraction" yaml:"fva_fraction" toml:"fva_fraction"`

	// CommunityBiomassLower is a pointer so that an explicit 0 survives
	// ApplyDefaults.
	CommunityBiomassLower *float64 `json:"community_biomass_lower" yaml:"community_biomass_lower" toml:"community_biomass_lower"`
	CommunityBiomassUpper float64  `json:"community_biomass_upper" yaml:"community_biomass_upper" toml:"community_biomass_upper"`
	RichUptake            float64  `json:"rich_uptake" yaml:"rich_uptake" toml:"rich_uptake"`

	SolverTolerance      float64 `json:"solver_tolerance" yaml:"solver_tolerance" toml:"solver_tolerance"`
	FeasibilityTolerance float64 `json:"feasibility_tolerance" yaml:"feasibility_tolerance" toml:"feasibility_tolerance"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	StatusAddr  string   `json:"status_addr" yaml:"status_addr" toml:"status_addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`

	S3 output.S3Config `json:"s3" yaml:"s3" toml:"s3"`
}

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultResultsDir            = "results"
	DefaultCheckpointFile        = "checkpoint.json"
	DefaultFVAFraction           = 1.0
	DefaultCommunityBiomassLower = 0.4
	DefaultCommunityBiomassUpper = 1.0
	DefaultRichUptake            = 1000.0
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "console"
)

// ApplyDefaults fills unset fields. The checkpoint lives in the results
// directory unless a path is given.
func (c *Config) ApplyDefaults() {
	if c.ResultsDir == "" {
		c.ResultsDir = DefaultResultsDir
	}
	if c.CheckpointPath == "" {
		c.CheckpointPath = filepath.Join(c.ResultsDir, DefaultCheckpointFile)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.FVAFraction == 0 {
		c.FVAFraction = DefaultFVAFraction
	}
	if c.CommunityBiomassLower == nil {
		lo := DefaultCommunityBiomassLower
		c.CommunityBiomassLower = &lo
	}
	if c.CommunityBiomassUpper == 0 {
		c.CommunityBiomassUpper = DefaultCommunityBiomassUpper
	}
	if c.RichUptake == 0 {
		c.RichUptake = DefaultRichUptake
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var problems []string
	if c.ModelsDir == "" {
		problems = append(problems, "models_dir is required")
	}
	if c.FVAFraction < 0 || c.FVAFraction > 1 {
		problems = append(problems, fmt.Sprintf("fva_fraction %g outside [0, 1]", c.FVAFraction))
	}
	if lo := c.CommunityBiomassLower; lo != nil && *lo > c.CommunityBiomassUpper {
		problems = append(problems, fmt.Sprintf("community_biomass_lower %g above community_biomass_upper %g", *lo, c.CommunityBiomassUpper))
	}
	if c.S3.Bucket == "" && (c.S3.Endpoint != "" || c.S3.Prefix != "") {
		problems = append(problems, "s3.endpoint and s3.prefix need s3.bucket")
	}
	if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
		problems = append(problems, "s3.access_key_id and s3.secret_access_key must be set together")
	}
	if c.RichUptake < 0 {
		problems = append(problems, "rich_uptake must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
