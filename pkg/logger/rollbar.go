package logger

import (
	"github.com/rollbar/rollbar-go"

	"ramo-hub-backend/pkg/models"
)

// RollbarConfig identifies the deployment in Rollbar
type RollbarConfig struct {
	Token       string
	Environment string
	ServerHost  string
	CodeVersion string
}

// RollbarLogger forwards warnings and errors to Rollbar and echoes every
// line to the wrapped console logger
type RollbarLogger struct {
	console *ConsoleLogger
}

var _ Logger = (*RollbarLogger)(nil)

// NewRollbarLogger configures the global Rollbar client
func NewRollbarLogger(console *ConsoleLogger, conf RollbarConfig) *RollbarLogger {
	rollbar.SetToken(conf.Token)
	rollbar.SetEnvironment(conf.Environment)
	rollbar.SetServerHost(conf.ServerHost)
	rollbar.SetCodeVersion(conf.CodeVersion)
	rollbar.SetEnabled(conf.Token != "")
	return &RollbarLogger{console: console}
}

// expected fmt: msg | error, map[string]interface{}, models.User
func (l *RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)
	for _, arg := range args {
		if usr, ok := arg.(models.User); ok {
			if !usrSet {
				rollbar.SetPerson(usr.ID, usr.Email, usr.Email)
				usrSet = true
			}
			continue
		}
		out = append(out, arg)
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return out
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.console.Debug(msg, args...)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.console.Info(msg, args...)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.console.Warn(msg, args...)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.console.Error(msg, args...)
}

// Flush blocks until queued items are sent
func (l *RollbarLogger) Flush() {
	rollbar.Wait()
}
