package core

import (
	"errors"
	"expvar"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/encodeous/olsr/perf"
	"github.com/encodeous/olsr/state"
)

// DebugServer exposes the perf metrics over http
type DebugServer struct {
	server *http.Server
	wg     sync.WaitGroup
}

func (d *DebugServer) Init(s *state.State) error {
	mux := http.NewServeMux()
	mux.Handle("/debug/metrics", perf.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	ln, err := net.Listen("tcp", s.DebugAddr)
	if err != nil {
		return fmt.Errorf("listen on debug address %s: %w", s.DebugAddr, err)
	}
	d.server = &http.Server{Handler: mux}
	s.Log.Info("serving debug metrics", "addr", ln.Addr().String())
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Warn("debug server stopped", "error", err)
		}
	}()
	return nil
}

func (d *DebugServer) Cleanup(s *state.State) error {
	if d.server == nil {
		return nil
	}
	err := d.server.Close()
	d.wg.Wait()
	return err
}
