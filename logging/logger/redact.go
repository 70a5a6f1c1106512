package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const mask = "******"

// sensitiveKeys are field-name fragments whose values are never logged.
var sensitiveKeys = []string{"password", "passwd", "secret", "token", "authorization", "api_key", "apikey"}

// redactHook masks sensitive fields before an entry is formatted.
type redactHook struct{}

func newRedactHook() logrus.Hook { return redactHook{} }

func (redactHook) Levels() []logrus.Level { return logrus.AllLevels }

func (redactHook) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		if value == nil || !isSensitive(key) {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		entry.Data[key] = mask
	}
	return nil
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
