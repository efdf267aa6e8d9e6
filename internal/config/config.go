package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete job configuration
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Output    OutputConfig    `yaml:"output"`
	Portal    PortalConfig    `yaml:"portal"`
	Survey    SurveyConfig    `yaml:"survey"`
	Mail      MailConfig      `yaml:"mail"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SourceConfig describes where the pull data table is read from
type SourceConfig struct {
	Kind            string `yaml:"kind" validate:"oneof=excel csv_url sheets"`
	Path            string `yaml:"path" validate:"required_if=Kind excel"`
	Sheet           string `yaml:"sheet" validate:"required_if=Kind excel"`
	URL             string `yaml:"url" validate:"omitempty,url"`
	SpreadsheetID   string `yaml:"spreadsheet_id" split_words:"true" validate:"required_if=Kind sheets"`
	Range           string `yaml:"range"`
	CredentialsFile string `yaml:"credentials_file" split_words:"true"`
	APIKey          string `yaml:"api_key" split_words:"true"`
	Columns         []int  `yaml:"columns" validate:"min=1,dive,min=0"`
	InferTypes      bool   `yaml:"infer_types" split_words:"true"`
}

// OutputConfig contains the cleaned CSV destination
type OutputConfig struct {
	CSVPath string `yaml:"csv_path" split_words:"true" validate:"required"`
	BOM     bool   `yaml:"bom"`
}

// PortalConfig contains the hosted GIS portal account
type PortalConfig struct {
	URL                string        `yaml:"url" validate:"required,url"`
	Username           string        `yaml:"username"`
	Password           string        `yaml:"password"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" split_words:"true"`
	Timeout            time.Duration `yaml:"timeout" validate:"gt=0"`
	TokenExpiration    int           `yaml:"token_expiration" split_words:"true" validate:"gt=0"`
}

// SurveyConfig identifies the form-survey item and its local workspace
type SurveyConfig struct {
	ItemID        string `yaml:"item_id" split_words:"true"`
	DownloadDir   string `yaml:"download_dir" split_words:"true" validate:"required"`
	ExtractFolder string `yaml:"extract_folder" split_words:"true" validate:"required"`
	MediaDir      string `yaml:"media_dir" split_words:"true" validate:"required"`
	MediaFile     string `yaml:"media_file" split_words:"true"`
}

// MailConfig contains the completion notice settings
type MailConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port" validate:"gte=0,lte=65535"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	From       string        `yaml:"from" validate:"omitempty,email"`
	Recipients []string      `yaml:"recipients" validate:"dive,email"`
	Subject    string        `yaml:"subject"`
	TLS        string        `yaml:"tls" validate:"oneof=mandatory opportunistic ssl none"`
	SendRate   float64       `yaml:"send_rate" split_words:"true" validate:"gt=0"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" split_words:"true"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Environment    string `yaml:"environment"`
	TraceExporter  string `yaml:"trace_exporter" split_words:"true" validate:"oneof=stdout none"`
	MetricExporter string `yaml:"metric_exporter" split_words:"true" validate:"oneof=prometheus none"`
	PushgatewayURL string `yaml:"pushgateway_url" split_words:"true" validate:"omitempty,url"`
	Job            string `yaml:"job"`
}

// Load builds the configuration from defaults, an optional YAML file, an
// optional .env file and PULLDATA_* environment variables, in that order of
// increasing precedence. An empty path searches the default locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getConfigFilePath()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyDerived fills values that default to other settings
func (c *Config) applyDerived() {
	if c.Survey.MediaFile == "" && c.Output.CSVPath != "" {
		c.Survey.MediaFile = filepath.Base(c.Output.CSVPath)
	}
	if c.Source.Range == "" {
		c.Source.Range = c.Source.Sheet
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = DefaultMailPort
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}
}

// Validate checks the struct tags and the source rules tags can't express.
// Portal and mail settings are only required by the steps that use them, see
// ValidatePublish and ValidateMail.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Source.Kind {
	case SourceCSVURL:
		if c.Source.URL == "" {
			return fmt.Errorf("csv_url source needs url")
		}
	case SourceSheets:
		if c.Source.CredentialsFile == "" && c.Source.APIKey == "" {
			return fmt.Errorf("sheets source needs credentials_file or api_key")
		}
	}

	return nil
}

// ValidatePublish checks the settings needed to update the survey item
func (c *Config) ValidatePublish() error {
	var missing []string
	if c.Portal.Username == "" {
		missing = append(missing, "portal.username")
	}
	if c.Portal.Password == "" {
		missing = append(missing, "portal.password")
	}
	if c.Survey.ItemID == "" {
		missing = append(missing, "survey.item_id")
	}
	if c.Survey.MediaFile == "" {
		missing = append(missing, "survey.media_file")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateMail checks the settings needed to send the completion notice.
// A disabled mailer is always valid.
func (c *Config) ValidateMail() error {
	if !c.Mail.Enabled {
		return nil
	}
	var missing []string
	if c.Mail.Host == "" {
		missing = append(missing, "mail.host")
	}
	if c.Mail.From == "" {
		missing = append(missing, "mail.from")
	}
	if len(c.Mail.Recipients) == 0 {
		missing = append(missing, "mail.recipients")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// getConfigFilePath returns the first config file found in the usual places
func getConfigFilePath() string {
	locations := []string{
		"pullupdate.yaml",
		"configs/pullupdate.yaml",
		"../configs/pullupdate.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Kind:    SourceExcel,
			Sheet:   DefaultSheet,
			Columns: DefaultColumns(),
		},
		Output: OutputConfig{
			CSVPath: DefaultCSVPath,
		},
		Portal: PortalConfig{
			URL:             DefaultPortalURL,
			Timeout:         DefaultHTTPTimeout,
			TokenExpiration: DefaultTokenExpiration,
		},
		Survey: SurveyConfig{
			DownloadDir:   DefaultDownloadDir,
			ExtractFolder: DefaultExtractFolder,
			MediaDir:      DefaultMediaDir,
		},
		Mail: MailConfig{
			Enabled:  true,
			Host:     DefaultMailHost,
			Port:     DefaultMailPort,
			Subject:  DefaultMailSubject,
			TLS:      "mandatory",
			SendRate: 1,
			Timeout:  DefaultMailTimeout,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			Environment:    "production",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			Job:            AppName,
		},
	}
}
