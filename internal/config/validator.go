package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// oneOf returns a validator func accepting the empty string and the listed values (case-insensitive).
func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := strings.ToLower(fl.Field().String())
		if v == "" {
			return true
		}
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("loglevel", oneOf("debug", "info", "warn", "error", "fatal", "panic"))
	_ = validate.RegisterValidation("logformat", oneOf("console", "text", "json"))
	_ = validate.RegisterValidation("outputmode", oneOf(OutputModePerFile, OutputModeMerged))
	_ = validate.RegisterValidation("failedpolicy", oneOf(FailedPolicyKeep, FailedPolicyStrip))
	_ = validate.RegisterValidation("engine", oneOf(EngineBrowser, EngineHTTP))
	_ = validate.RegisterValidation("fetchvia", oneOf(FetchViaAuto, FetchViaPage, FetchViaHTTP))

	return validate
}

// ValidateConfig performs validation on the GlobalConfig structure.
func ValidateConfig(cfg *GlobalConfig) error {
	if cfg == nil {
		return errors.New("configuration is nil")
	}

	err := newValidator().Struct(cfg)
	if err == nil {
		return validateCrossFields(cfg)
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("configuration validation error: %w", err)
	}

	var validationErrorMessages []string
	for _, e := range errs {
		msg := fmt.Sprintf("Validation failed for '%s': rule '%s'", e.Namespace(), e.Tag())
		if e.Param() != "" {
			msg += fmt.Sprintf(" (expected: %s)", e.Param())
		}
		if e.Value() != nil && e.Value() != "" {
			msg += fmt.Sprintf(", actual: '%v'", e.Value())
		}
		validationErrorMessages = append(validationErrorMessages, msg)
	}
	return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(validationErrorMessages, "\n  "))
}

func validateCrossFields(cfg *GlobalConfig) error {
	fc := cfg.FetcherConfig
	if fc.MaxDelayMs > 0 && fc.BaseDelayMs > fc.MaxDelayMs {
		return fmt.Errorf("configuration validation failed: fetcher_config.base_delay_ms (%d) exceeds max_delay_ms (%d)", fc.BaseDelayMs, fc.MaxDelayMs)
	}
	if strings.EqualFold(cfg.RendererConfig.Engine, EngineHTTP) && strings.EqualFold(fc.Via, FetchViaPage) {
		return errors.New("configuration validation failed: fetcher_config.via 'page' requires renderer_config.engine 'browser'")
	}
	return nil
}
