// internal/config/monitor.go

package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/orgoj/logbridge/internal/transport"
)

// MonitorConfig configures the log monitor daemon: where to receive records
// from, how to serve the admin API and how to write what it receives.
type MonitorConfig struct {
	Receiver struct {
		URLs           []string `yaml:"urls" validate:"required,min=1,dive,required"`
		Bind           bool     `yaml:"bind"`
		WaitRemoteExit bool     `yaml:"wait_remote_exit"`
	} `yaml:"receiver"`

	Admin struct {
		Enabled    bool     `yaml:"enabled"`
		Listen     string   `yaml:"listen" validate:"required_if=Enabled true"`
		Mode       string   `yaml:"mode" validate:"omitempty,oneof=debug release test"`
		AllowedIPs []string `yaml:"allowed_ips" validate:"dive,cidr_or_ip"`
		RateLimit  int      `yaml:"rate_limit" validate:"gte=0"` // requests per minute per client, 0 disables
	} `yaml:"admin"`

	Logging *Configuration `yaml:"logging"`
}

// DefaultMonitorConfig binds a local tcp endpoint and files records to the console.
func DefaultMonitorConfig() *MonitorConfig {
	var cfg MonitorConfig
	cfg.Receiver.URLs = []string{"tcp://127.0.0.1:5555"}
	cfg.Receiver.Bind = true
	cfg.Receiver.WaitRemoteExit = false
	cfg.Admin.Listen = "127.0.0.1:8099"
	cfg.Admin.Mode = "release"
	return &cfg
}

// LoadMonitorConfig reads and validates a monitor configuration file.
func LoadMonitorConfig(path string) (*MonitorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := DefaultMonitorConfig()
	cfg.Logging = New()
	cfg.Logging.Handlers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file '%s': %w", path, err)
	}
	if err := ValidateMonitorConfig(cfg); err != nil {
		return nil, fmt.Errorf("config file '%s': %w", path, err)
	}
	return cfg, nil
}

// ValidateMonitorConfig validates the daemon settings and the embedded
// logging configuration. A missing logging block gets the default one.
func ValidateMonitorConfig(cfg *MonitorConfig) error {
	validate := validator.New()
	if err := validate.RegisterValidation("cidr_or_ip", validateCIDROrIP); err != nil {
		return fmt.Errorf("failed to register custom validator: %w", err)
	}

	logging := cfg.Logging
	cfg.Logging = nil
	err := validate.Struct(cfg)
	cfg.Logging = logging
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, fmt.Sprintf("field validation for '%s' failed on the '%s' tag", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages, "; "))
	}

	for i, url := range cfg.Receiver.URLs {
		if _, err := transport.ParseURL(url); err != nil {
			return fmt.Errorf("%w: receiver.urls[%d]: %v", ErrInvalid, i, err)
		}
	}

	if cfg.Logging == nil {
		cfg.Logging = Default()
	}
	cfg.Logging.fillDefaultHandlers()
	if err := ValidateConfig(cfg.Logging); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func validateCIDROrIP(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if net.ParseIP(value) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(value)
	return err == nil
}
