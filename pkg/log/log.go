package log

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogKeyRunId    = "run-id"
	LogKeyTerminal = "terminal"
	LogKeyShell    = "shell"
	LogKeyCommand  = "command"
	LogKeyPid      = "pid"
	LogKeySignal   = "signal"
	LogKeyState    = "state"
	LogKeyExitCode = "exit-code"
)

// NewLogger returns the logger for one invocation. Without verbose it
// discards everything, so the terminal only shows what the command itself
// prints. Verbose output goes to stderr and carries a run id, to tell apart
// the messages of several noctty processes sharing a log.
func NewLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	logcfg := zap.NewDevelopmentConfig()
	logcfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	logcfg.OutputPaths = []string{"stderr"}
	logcfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := logcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String(LogKeyRunId, uuid.NewString())), nil
}
