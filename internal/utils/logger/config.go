// internal/utils/logger/config.go
package logger

import "go.uber.org/zap/zapcore"

type Config struct {
	LogFile      string
	MaxSize      int  // megabytes
	MaxAge       int  // days
	MaxBackups   int
	Compress     bool
	Development  bool
	ConsoleLevel zapcore.Level
}

// DefaultConfig keeps the console quiet; everything from Info up goes to the file.
func DefaultConfig() *Config {
	return &Config{
		LogFile:      "splitter.log",
		MaxSize:      20,
		MaxAge:       30,
		MaxBackups:   3,
		Compress:     true,
		Development:  false,
		ConsoleLevel: zapcore.WarnLevel,
	}
}
