package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/geoandina/hazmap/internal/normalize"
)

// Config holds the full application configuration.
type Config struct {
	Input  InputConfig        `yaml:"input" mapstructure:"input"`
	Fields normalize.FieldMap `yaml:"fields" mapstructure:"fields"`
	Buffer BufferConfig       `yaml:"buffer" mapstructure:"buffer"`
	Raster RasterConfig       `yaml:"raster" mapstructure:"raster"`
	Scheme SchemeConfig       `yaml:"scheme" mapstructure:"scheme"`
	Output OutputConfig       `yaml:"output" mapstructure:"output"`
	Store  StoreConfig        `yaml:"store" mapstructure:"store"`
	Log    LogConfig          `yaml:"log" mapstructure:"log"`
}

// InputConfig names the input layers.
type InputConfig struct {
	Points   string     `yaml:"points" mapstructure:"points"`
	Corridor string     `yaml:"corridor" mapstructure:"corridor"`
	Region   string     `yaml:"region" mapstructure:"region"`
	XLSX     XLSXConfig `yaml:"xlsx" mapstructure:"xlsx"`
}

// XLSXConfig applies when the points input is a spreadsheet instead of a
// shapefile.
type XLSXConfig struct {
	Sheet  string `yaml:"sheet" mapstructure:"sheet"`
	XField string `yaml:"x_field" mapstructure:"x_field"`
	YField string `yaml:"y_field" mapstructure:"y_field"`
	Proj4  string `yaml:"proj4" mapstructure:"proj4"`
}

// BufferConfig controls the corridor influence zone.
type BufferConfig struct {
	Distance float64 `yaml:"distance" mapstructure:"distance"`
}

// RasterConfig controls grid resolution and nodata sentinels.
type RasterConfig struct {
	CellSize       float64 `yaml:"cell_size" mapstructure:"cell_size"`
	NoData         float64 `yaml:"nodata" mapstructure:"nodata"`
	DiscreteNoData float64 `yaml:"discrete_nodata" mapstructure:"discrete_nodata"`
}

// SchemeConfig selects the classification scheme.
type SchemeConfig struct {
	File string `yaml:"file" mapstructure:"file"` // empty means the built-in scheme
}

// OutputConfig controls what lands in the output directory.
type OutputConfig struct {
	Dir      string   `yaml:"dir" mapstructure:"dir"`
	Products []string `yaml:"products" mapstructure:"products"` // subset of raster, voronoi, maps, report
	MapWidth int      `yaml:"map_width" mapstructure:"map_width"`
}

// StoreConfig configures the run registry database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("hazmap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HAZMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	fm := normalize.DefaultFieldMap()
	v.SetDefault("fields.id_candidates", fm.IDCandidates)
	v.SetDefault("fields.label", fm.Label)
	v.SetDefault("fields.scenario_prefix", fm.ScenarioPrefix)
	v.SetDefault("fields.fs_min", fm.FSMin)
	v.SetDefault("fields.haz_num", fm.HazNum)
	v.SetDefault("input.xlsx.x_field", "X")
	v.SetDefault("input.xlsx.y_field", "Y")
	v.SetDefault("buffer.distance", 100.0)
	v.SetDefault("raster.cell_size", 5.0)
	v.SetDefault("raster.nodata", -9999.0)
	v.SetDefault("raster.discrete_nodata", 0.0)
	v.SetDefault("output.dir", "salidas")
	v.SetDefault("output.products", []string{"raster", "voronoi", "maps", "report"})
	v.SetDefault("output.map_width", 1200)
	v.SetDefault("store.path", "hazmap.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// validProducts are the output products a run can be limited to.
var validProducts = map[string]bool{
	"raster":  true,
	"voronoi": true,
	"maps":    true,
	"report":  true,
}

// Validate checks the fields a classification run depends on.
func (c *Config) Validate() error {
	var problems []string

	if c.Input.Points == "" {
		problems = append(problems, "input.points is required")
	}
	if c.Input.Corridor == "" {
		problems = append(problems, "input.corridor is required")
	}
	if c.Buffer.Distance <= 0 {
		problems = append(problems, "buffer.distance must be > 0")
	}
	if c.Raster.CellSize <= 0 {
		problems = append(problems, "raster.cell_size must be > 0")
	}
	if len(c.Output.Products) == 0 {
		problems = append(problems, "output.products must name at least one product")
	}
	for _, p := range c.Output.Products {
		if !validProducts[p] {
			problems = append(problems, "output.products: unknown product "+p)
		}
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// WantsProduct reports whether the named product is selected.
func (c *Config) WantsProduct(name string) bool {
	for _, p := range c.Output.Products {
		if p == name {
			return true
		}
	}
	return false
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
