package log

import (
	tmlog "github.com/tendermint/tendermint/libs/log"
)

type tmLogger struct {
	Logger
}

// NewTMLogger adapts l to the logger interface of the tendermint services
// (ABCI server, clients), so they log through the same sink as the
// application.
func NewTMLogger(l Logger) tmlog.Logger {
	return tmLogger{Logger: l}
}

func (l tmLogger) With(keyvals ...interface{}) tmlog.Logger {
	return tmLogger{Logger: l.Logger.With(keyvals...)}
}
