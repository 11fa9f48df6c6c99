// Package infrastructure provides reusable logging adapters.
package infrastructure

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLoggerAdapter forwards Fx framework events to a zap.SugaredLogger so the
// dependency-injection machinery logs through the same pipeline as the rest
// of the application.
type FxLoggerAdapter struct {
	logger *zap.SugaredLogger
}

// NewFxLoggerAdapter creates an fxevent.Logger backed by the given Zap logger.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLoggerAdapter{logger: logger.Sugar()}
}

// LogEvent implements fxevent.Logger.
func (p *FxLoggerAdapter) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		p.logger.Debugf("OnStart executing: %s", e.FunctionName)
	case *fxevent.OnStartExecuted:
		p.hookResult("OnStart", e.FunctionName, e.Err)
	case *fxevent.OnStopExecuting:
		p.logger.Debugf("OnStop executing: %s", e.FunctionName)
	case *fxevent.OnStopExecuted:
		p.hookResult("OnStop", e.FunctionName, e.Err)
	case *fxevent.Supplied:
		p.provideResult("supplied", e.TypeName, e.Err)
	case *fxevent.Provided:
		for _, name := range e.OutputTypeNames {
			p.provideResult("provided", name, e.Err)
		}
	case *fxevent.Invoking:
		p.logger.Debugf("invoking: %s", e.FunctionName)
	case *fxevent.Invoked:
		if e.Err != nil {
			p.logger.Errorf("invoke failed: %s: %v", e.FunctionName, e.Err)
		}
	case *fxevent.Stopping:
		p.logger.Infof("received signal: %s", e.Signal)
	case *fxevent.Stopped:
		if e.Err != nil {
			p.logger.Errorf("stop failed: %v", e.Err)
		}
	case *fxevent.RollingBack:
		p.logger.Errorf("startup failed, rolling back: %v", e.StartErr)
	case *fxevent.RolledBack:
		if e.Err != nil {
			p.logger.Errorf("rollback failed: %v", e.Err)
		}
	case *fxevent.Started:
		if e.Err != nil {
			p.logger.Errorf("start failed: %v", e.Err)
		} else {
			p.logger.Info("started")
		}
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			p.logger.Errorf("logger initialization failed: %v", e.Err)
		}
	default:
		p.logger.Debugf("unhandled fx event: %T", event)
	}
}

func (p *FxLoggerAdapter) hookResult(hook, function string, err error) {
	if err != nil {
		p.logger.Errorf("%s failed: %s: %v", hook, function, err)
	} else {
		p.logger.Debugf("%s executed: %s", hook, function)
	}
}

func (p *FxLoggerAdapter) provideResult(action, typeName string, err error) {
	if err != nil {
		p.logger.Errorf("%s failed: %s: %v", action, typeName, err)
	} else {
		p.logger.Debugf("%s: %s", action, typeName)
	}
}
