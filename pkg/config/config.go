package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwmaia/townhub/pkg/gomailer"
	"github.com/cwmaia/townhub/pkg/push"
)

type Config struct {
	Email EmailConfig `yaml:"email"`
	Push  PushConfig  `yaml:"push"`
}

type EmailConfig struct {
	Provider string                   `yaml:"provider"`
	SMTP     *gomailer.SMTPMailer     `yaml:"smtp,omitempty"`
	SendGrid *gomailer.SendGridMailer `yaml:"sendgrid,omitempty"`
}

type PushConfig struct {
	Provider string             `yaml:"provider"`
	Gateway  *push.GatewaySender `yaml:"gateway,omitempty"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func BuildMailer(cfg *Config) (gomailer.Mailer, error) {
	switch cfg.Email.Provider {
	case "smtp":
		if cfg.Email.SMTP == nil {
			return nil, fmt.Errorf("missing smtp config for email provider")
		}
		return cfg.Email.SMTP, nil
	case "sendgrid":
		if cfg.Email.SendGrid == nil {
			return nil, fmt.Errorf("missing sendgrid config for email provider")
		}
		return cfg.Email.SendGrid, nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Email.Provider)
	}
}

func BuildPushTransport(cfg *Config) (push.Transport, error) {
	switch cfg.Push.Provider {
	case "gateway":
		if cfg.Push.Gateway == nil {
			return nil, fmt.Errorf("missing gateway config for push provider")
		}
		return cfg.Push.Gateway, nil
	default:
		return nil, fmt.Errorf("unsupported push provider: %s", cfg.Push.Provider)
	}
}
