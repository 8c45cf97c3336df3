package logger

import (
	"github.com/sirupsen/logrus"
)

var Log = logrus.StandardLogger()

// Init инициализирует структурированный логгер: JSON в production, текст в остальных окружениях.
func Init(level string, production bool) *logrus.Logger {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if production {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		SetTextFormatter()
	}
	return Log
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	if Log != nil {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
