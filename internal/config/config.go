package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	DB          DBConfig
	S3          S3Config
	Log         LogConfig
	Pipeline    PipelineConfig
	Consensus   ConsensusConfig
	Validation  ValidationConfig
	Consolidate ConsolidateConfig
	Export      ExportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`

	// AllowedOrigins lists browser origins allowed by CORS.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
	Enabled  bool   `mapstructure:"enabled"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds AWS S3 settings. An empty bucket disables uploads.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MethodConfig describes one table-extraction method.
type MethodConfig struct {
	Name string `mapstructure:"name"`
	// Kind selects the registered factory, e.g. "csv" or "xlsx".
	Kind string `mapstructure:"kind"`
	// Root is the directory holding the method's output.
	Root string `mapstructure:"root"`
}

// PipelineConfig holds batch-run settings.
type PipelineConfig struct {
	InputDir          string         `mapstructure:"input_dir"`
	OutputDir         string         `mapstructure:"output_dir"`
	PDFDir            string         `mapstructure:"pdf_dir"`
	Methods           []MethodConfig `mapstructure:"methods"`
	Concurrency       int            `mapstructure:"concurrency"`
	MethodConcurrency int            `mapstructure:"method_concurrency"`
	PhaseSampleSize   int            `mapstructure:"phase_sample_size"`
	UseColumnAnalysis bool           `mapstructure:"use_column_analysis"`
	TableTimeout      time.Duration  `mapstructure:"table_timeout"`
}

// ConsensusConfig holds extraction-agreement settings.
type ConsensusConfig struct {
	Tolerance        float64 `mapstructure:"tolerance"`
	ReviewAgreement  float64 `mapstructure:"review_agreement"`
	MaxDiscrepancies int     `mapstructure:"max_discrepancies"`
}

// ValidationConfig holds scientific-validator thresholds.
type ValidationConfig struct {
	MinHeaderConfidence   float64 `mapstructure:"min_header_confidence"`
	MinTypeConfidence     float64 `mapstructure:"min_type_confidence"`
	MassBalanceLow        float64 `mapstructure:"mass_balance_low"`
	MassBalanceHigh       float64 `mapstructure:"mass_balance_high"`
	MassBalanceMaxOutside float64 `mapstructure:"mass_balance_max_outside"`
	MaxColumns            int     `mapstructure:"max_columns"`
}

// ConsolidateConfig holds sequence-merging settings.
type ConsolidateConfig struct {
	MaxColumnDelta int `mapstructure:"max_column_delta"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	Formats  []string `mapstructure:"formats"`
	S3Prefix string   `mapstructure:"s3_prefix"`
}

// Load reads configuration from environment variables with the SOLTAB_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SOLTAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "soltab")
	v.SetDefault("db.password", "soltab_secret")
	v.SetDefault("db.name", "soltab_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)
	v.SetDefault("db.enabled", false)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Pipeline defaults
	v.SetDefault("pipeline.input_dir", "data/extracted")
	v.SetDefault("pipeline.output_dir", "data/output")
	v.SetDefault("pipeline.pdf_dir", "")
	v.SetDefault("pipeline.methods", "default:csv,lattice:csv,stream:csv")
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.method_concurrency", 3)
	v.SetDefault("pipeline.phase_sample_size", 10)
	v.SetDefault("pipeline.use_column_analysis", true)
	v.SetDefault("pipeline.table_timeout", "2m")

	// Consensus defaults
	v.SetDefault("consensus.tolerance", 1e-6)
	v.SetDefault("consensus.review_agreement", 0.95)
	v.SetDefault("consensus.max_discrepancies", 5)

	// Validation defaults
	v.SetDefault("validation.min_header_confidence", 0.7)
	v.SetDefault("validation.min_type_confidence", 0.5)
	v.SetDefault("validation.mass_balance_low", 95.0)
	v.SetDefault("validation.mass_balance_high", 105.0)
	v.SetDefault("validation.mass_balance_max_outside", 0.3)
	v.SetDefault("validation.max_columns", 20)

	// Consolidation defaults
	v.SetDefault("consolidate.max_column_delta", 2)

	// Export defaults
	v.SetDefault("export.formats", "csv,xlsx,json")
	v.SetDefault("export.s3_prefix", "exports")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                         "SOLTAB_SERVER_PORT",
		"server.read_timeout":                 "SOLTAB_SERVER_READ_TIMEOUT",
		"server.write_timeout":                "SOLTAB_SERVER_WRITE_TIMEOUT",
		"server.environment":                  "SOLTAB_SERVER_ENVIRONMENT",
		"server.allowed_origins":              "SOLTAB_SERVER_ALLOWED_ORIGINS",
		"db.host":                             "SOLTAB_DB_HOST",
		"db.port":                             "SOLTAB_DB_PORT",
		"db.user":                             "SOLTAB_DB_USER",
		"db.password":                         "SOLTAB_DB_PASSWORD",
		"db.name":                             "SOLTAB_DB_NAME",
		"db.sslmode":                          "SOLTAB_DB_SSLMODE",
		"db.max_open":                         "SOLTAB_DB_MAX_OPEN",
		"db.max_idle":                         "SOLTAB_DB_MAX_IDLE",
		"db.enabled":                          "SOLTAB_DB_ENABLED",
		"s3.region":                           "SOLTAB_S3_REGION",
		"s3.bucket":                           "SOLTAB_S3_BUCKET",
		"s3.endpoint":                         "SOLTAB_S3_ENDPOINT",
		"s3.access_key":                       "SOLTAB_S3_ACCESS_KEY",
		"s3.secret_key":                       "SOLTAB_S3_SECRET_KEY",
		"s3.presign_expiry":                   "SOLTAB_S3_PRESIGN_EXPIRY",
		"log.level":                           "SOLTAB_LOG_LEVEL",
		"log.format":                          "SOLTAB_LOG_FORMAT",
		"pipeline.input_dir":                  "SOLTAB_PIPELINE_INPUT_DIR",
		"pipeline.output_dir":                 "SOLTAB_PIPELINE_OUTPUT_DIR",
		"pipeline.pdf_dir":                    "SOLTAB_PIPELINE_PDF_DIR",
		"pipeline.methods":                    "SOLTAB_PIPELINE_METHODS",
		"pipeline.concurrency":                "SOLTAB_PIPELINE_CONCURRENCY",
		"pipeline.method_concurrency":         "SOLTAB_PIPELINE_METHOD_CONCURRENCY",
		"pipeline.phase_sample_size":          "SOLTAB_PIPELINE_PHASE_SAMPLE_SIZE",
		"pipeline.use_column_analysis":        "SOLTAB_PIPELINE_USE_COLUMN_ANALYSIS",
		"pipeline.table_timeout":              "SOLTAB_PIPELINE_TABLE_TIMEOUT",
		"consensus.tolerance":                 "SOLTAB_CONSENSUS_TOLERANCE",
		"consensus.review_agreement":          "SOLTAB_CONSENSUS_REVIEW_AGREEMENT",
		"consensus.max_discrepancies":         "SOLTAB_CONSENSUS_MAX_DISCREPANCIES",
		"validation.min_header_confidence":    "SOLTAB_VALIDATION_MIN_HEADER_CONFIDENCE",
		"validation.min_type_confidence":      "SOLTAB_VALIDATION_MIN_TYPE_CONFIDENCE",
		"validation.mass_balance_low":         "SOLTAB_VALIDATION_MASS_BALANCE_LOW",
		"validation.mass_balance_high":        "SOLTAB_VALIDATION_MASS_BALANCE_HIGH",
		"validation.mass_balance_max_outside": "SOLTAB_VALIDATION_MASS_BALANCE_MAX_OUTSIDE",
		"validation.max_columns":              "SOLTAB_VALIDATION_MAX_COLUMNS",
		"consolidate.max_column_delta":        "SOLTAB_CONSOLIDATE_MAX_COLUMN_DELTA",
		"export.formats":                      "SOLTAB_EXPORT_FORMATS",
		"export.s3_prefix":                    "SOLTAB_EXPORT_S3_PREFIX",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if SOLTAB_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SOLTAB_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:           serverPort,
		ReadTimeout:    v.GetDuration("server.read_timeout"),
		WriteTimeout:   v.GetDuration("server.write_timeout"),
		Environment:    v.GetString("server.environment"),
		AllowedOrigins: splitList(v.GetString("server.allowed_origins")),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
		Enabled:  v.GetBool("db.enabled"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	inputDir := v.GetString("pipeline.input_dir")
	methods, err := ParseMethods(v.GetString("pipeline.methods"), inputDir)
	if err != nil {
		return nil, err
	}
	cfg.Pipeline = PipelineConfig{
		InputDir:          inputDir,
		OutputDir:         v.GetString("pipeline.output_dir"),
		PDFDir:            v.GetString("pipeline.pdf_dir"),
		Methods:           methods,
		Concurrency:       v.GetInt("pipeline.concurrency"),
		MethodConcurrency: v.GetInt("pipeline.method_concurrency"),
		PhaseSampleSize:   v.GetInt("pipeline.phase_sample_size"),
		UseColumnAnalysis: v.GetBool("pipeline.use_column_analysis"),
		TableTimeout:      v.GetDuration("pipeline.table_timeout"),
	}

	cfg.Consensus = ConsensusConfig{
		Tolerance:        v.GetFloat64("consensus.tolerance"),
		ReviewAgreement:  v.GetFloat64("consensus.review_agreement"),
		MaxDiscrepancies: v.GetInt("consensus.max_discrepancies"),
	}
	cfg.Validation = ValidationConfig{
		MinHeaderConfidence:   v.GetFloat64("validation.min_header_confidence"),
		MinTypeConfidence:     v.GetFloat64("validation.min_type_confidence"),
		MassBalanceLow:        v.GetFloat64("validation.mass_balance_low"),
		MassBalanceHigh:       v.GetFloat64("validation.mass_balance_high"),
		MassBalanceMaxOutside: v.GetFloat64("validation.mass_balance_max_outside"),
		MaxColumns:            v.GetInt("validation.max_columns"),
	}
	cfg.Consolidate = ConsolidateConfig{
		MaxColumnDelta: v.GetInt("consolidate.max_column_delta"),
	}
	cfg.Export = ExportConfig{
		Formats:  splitList(v.GetString("export.formats")),
		S3Prefix: v.GetString("export.s3_prefix"),
	}

	return cfg, nil
}

// ParseMethods reads a comma-separated "name:kind[:root]" list. A missing root
// defaults to <inputDir>/<name>.
func ParseMethods(list, inputDir string) ([]MethodConfig, error) {
	var out []MethodConfig
	for _, item := range splitList(list) {
		parts := strings.SplitN(item, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid extraction method %q: want name:kind[:root]", item)
		}
		m := MethodConfig{Name: parts[0], Kind: parts[1]}
		if len(parts) == 3 && parts[2] != "" {
			m.Root = parts[2]
		} else {
			m.Root = strings.TrimSuffix(inputDir, "/") + "/" + m.Name
		}
		out = append(out, m)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
