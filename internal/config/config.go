package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexanderramin/budgetree/internal/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. BUDGETREE_DB_PATH.
const EnvPrefix = "BUDGETREE"

// Config holds application configuration.
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Import  ImportConfig  `mapstructure:"import"`
	Export  ExportConfig  `mapstructure:"export"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Report  ReportConfig  `mapstructure:"report"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type ImportConfig struct {
	// MultiDimensions names dimension columns whose cells hold ','/';' lists.
	MultiDimensions []string `mapstructure:"multi_dimensions"`
}

type ExportConfig struct {
	S3Region  string `mapstructure:"s3_region"`
	S3Profile string `mapstructure:"s3_profile"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the Prometheus text exposition after each command.
	Textfile string `mapstructure:"textfile"`
}

type ReportConfig struct {
	// StatusBandPct is the +/- percentage of planned that still counts as in budget.
	StatusBandPct float64 `mapstructure:"status_band_pct"`
}

// HomeDir is ~/.budgetree, or ./.budgetree when the home directory is unknown.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".budgetree"
	}
	return filepath.Join(home, ".budgetree")
}

// Load reads defaults, then the config file, then BUDGETREE_* environment
// variables (a .env file in the working directory is loaded first). An empty
// path looks for config.yaml in HomeDir and tolerates its absence; an explicit
// path must exist.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("db.path", filepath.Join(HomeDir(), "budgetree.db"))
	v.SetDefault("log.level", "warn")
	v.SetDefault("import.multi_dimensions", []string{})
	v.SetDefault("export.s3_region", "")
	v.SetDefault("export.s3_profile", "")
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("report.status_band_pct", 3.0)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(HomeDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Import.MultiDimensions = splitList(c.Import.MultiDimensions)
	return c, nil
}

// splitList flattens comma-joined entries and drops blanks.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.DB.Path) == "" {
		problems = append(problems, "db.path cannot be empty")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Metrics.Textfile != "" && !strings.HasSuffix(c.Metrics.Textfile, ".prom") {
		problems = append(problems, fmt.Sprintf("metrics.textfile %q must end in .prom", c.Metrics.Textfile))
	}
	if c.Report.StatusBandPct < 0 {
		problems = append(problems, fmt.Sprintf("report.status_band_pct %v cannot be negative", c.Report.StatusBandPct))
	}
	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
