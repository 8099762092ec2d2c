package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/encodeous/olsr/perf"
	"github.com/encodeous/olsr/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Bootstrap reads, validates and runs the node config at nodePath until a shutdown signal is received.
func Bootstrap(nodePath, logPath string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	nodeCfg, err := state.ReadNodeConfig(nodePath)
	if err != nil {
		return err
	}
	if logPath != "" {
		nodeCfg.LogPath = logPath
	}
	nodeCfg.ApplyDefaults()
	err = state.NodeConfigValidator(nodeCfg)
	if err != nil {
		return err
	}

	s, err := New(*nodeCfg, level, nil)
	if err != nil {
		return err
	}

	s.Log.Info("olsr has been initialized. To gracefully exit, send SIGINT or Ctrl+C.")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case _ = <-c:
			s.Cancel(errShutdownSignal)
		case <-s.Context.Done():
			return
		}
	}()
	return MainLoop(s, s.DispatchChannel)
}

var errShutdownSignal = errors.New("received shutdown signal")

func newLogger(ncfg state.LocalCfg, logLevel slog.Level) (*slog.Logger, error) {
	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: ncfg.Address.String(),
			ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
				if attr.Key == "time" {
					return slog.Attr{}
				}
				return attr
			},
		}))

	if ncfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(ncfg.LogPath), 0700)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(ncfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// New initializes every module of a node. A nil transport opens the UDP socket described by ncfg.
// The node does nothing until MainLoop is run.
func New(ncfg state.LocalCfg, logLevel slog.Level, transport state.Transport) (*state.State, error) {
	logger, err := newLogger(ncfg, logLevel)
	if err != nil {
		return nil, err
	}
	return NewWithLogger(ncfg, logger, transport)
}

func NewWithLogger(ncfg state.LocalCfg, logger *slog.Logger, transport state.Transport) (*state.State, error) {
	ctx, cancel := context.WithCancelCause(context.Background())

	dispatch := make(chan func(env *state.State) error, 128)

	s := &state.State{
		Modules: make(map[string]state.NyModule),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			LocalCfg:        ncfg,
			Log:             logger,
			Transport:       transport,
		},
	}

	s.Log.Info("init modules")
	err := initModules(s)
	if err != nil {
		s.Cancel(err)
		Stop(s)
		return nil, err
	}
	s.Log.Info("init modules complete")
	return s, nil
}

func initModules(s *state.State) error {
	var modules []state.NyModule
	modules = append(modules, &OlsrRouter{})
	modules = append(modules, &OlsrNode{})
	if s.IpcPath != "" {
		modules = append(modules, &OlsrIpc{})
	}
	if s.DebugAddr != "" {
		modules = append(modules, &DebugServer{})
	}

	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch: ", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > state.DispatchWarnThreshold {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	if err := context.Cause(s.Context); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, errShutdownSignal) {
		return err
	}
	return nil
}

// Stop cancels the node and cleans up every module. It is safe to call more than once.
func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Info("cleaning up modules")
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop: ", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
