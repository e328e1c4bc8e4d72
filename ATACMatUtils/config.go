package atacmatutils

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

/*Column 0-based index of a tab separated column. NoColumn disables the option */
type Column int

/*NoColumn ... */
const NoColumn Column = -1

/*Enabled ... */
func (c Column) Enabled() bool {
	return c >= 0
}

/*FeatureOptions how regions are turned into matrix rows */
type FeatureOptions struct {
	// GroupColumn collapses regions sharing the value of this column into one row
	GroupColumn Column `yaml:"group_column" validate:"gte=-1"`
	// WeightColumn gives the value each overlapping fragment end adds
	WeightColumn Column `yaml:"weight_column" validate:"gte=-1"`
}

/*NOCOMPRESSION FeaturesCompression value writing features.tsv as is */
const NOCOMPRESSION = "none"

/*Config one matrix run */
type Config struct {
	FragmentFile  string `yaml:"fragments" validate:"required"`
	RegionFile    string `yaml:"bed" validate:"required"`
	BarcodeFile   string `yaml:"cells" validate:"required"`
	OutDir        string `yaml:"outdir" validate:"required"`
	Threads       int    `yaml:"threads" validate:"min=1"`
	PlainFeatures bool   `yaml:"plain_features"`

	// FeaturesCompression codec of features.tsv, also its suffix. PlainFeatures wins over it
	FeaturesCompression string         `yaml:"features_compression" validate:"omitempty,oneof=none gz bz2 zst lz4"`
	MetricsFile         string         `yaml:"metrics_file"`
	Features            FeatureOptions `yaml:",inline"`
}

var configValidate = validator.New()

/*DefaultConfig ... */
func DefaultConfig() Config {
	return Config{
		Threads:             4,
		FeaturesCompression: "gz",
		Features: FeatureOptions{
			GroupColumn:  NoColumn,
			WeightColumn: NoColumn,
		},
	}
}

/*Validate check required fields and ranges */
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

/*LoadConfigFile read a YAML configuration on top of DefaultConfig */
func LoadConfigFile(fname string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(fname)

	if err != nil {
		return config, fmt.Errorf("read config %s: %w", fname, err)
	}

	if err = yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", fname, err)
	}

	return config, nil
}
