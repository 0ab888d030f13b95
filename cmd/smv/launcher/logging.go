package launcher

import (
	"fmt"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// setupLogging builds the root logger from the logging config. Errors
// and worse are mirrored to Sentry when a DSN is configured.
func setupLogging(cfg LoggingConfig) (*logrus.Logger, error) {
	log := logrus.New()

	if cfg.Verbosity < 0 || cfg.Verbosity > int(logrus.DebugLevel) {
		return nil, fmt.Errorf("log verbosity %d out of range", cfg.Verbosity)
	}
	log.SetLevel(logrus.Level(cfg.Verbosity))

	switch cfg.Format {
	case "json":
		log.Formatter = &logrus.JSONFormatter{}
	case "text", "":
		log.Formatter = &logrus.TextFormatter{
			ForceColors:   cfg.Color,
			FullTimestamp: true,
		}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel,
			logrus.FatalLevel,
			logrus.ErrorLevel,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to set up sentry: %w", err)
		}
		log.AddHook(hook)
	}
	return log, nil
}
