package logger

import "go.uber.org/zap"

// New builds the process-wide sugared logger. Development mode gets console
// encoding and debug level; production gets JSON.
func New(development bool) (*zap.SugaredLogger, error) {
	var l *zap.Logger
	var err error
	if development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
