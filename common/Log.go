package common

import (
	"os"

	"github.com/sirupsen/logrus"
)

func init() {
	ConfigureLogger(logrus.StandardLogger())
}

// ConfigureLogger text output for development, json output when GIN_MODE=release
func ConfigureLogger(logger *logrus.Logger) {
	logger.Out = os.Stdout
	if os.Getenv("GIN_MODE") == "release" {
		logger.Formatter = &logrus.JSONFormatter{}
	} else {
		logger.Formatter = &logrus.TextFormatter{}
	}
	if level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(level)
	}
	logger.AddHook(&DefaultFieldsHook{})
}

type DefaultFieldsHook struct {
}

func (hook *DefaultFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *DefaultFieldsHook) Fire(e *logrus.Entry) error {
	e.Data["serviceName"] = GetServiceName()
	e.Data["serviceInstance"] = GetServiceInstance()
	return nil
}
