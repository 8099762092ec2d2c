package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/encodeous/olsr/state"
)

const ipcTimeout = 5 * time.Second

// IPCGet asks the node listening on the unix socket at path for its inspect dump
func IPCGet(path string) (string, error) {
	conn, err := net.DialTimeout("unix", path, ipcTimeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ipcTimeout))
	rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))

	_, err = rw.WriteString("inspect\n")
	if err != nil {
		return "", err
	}
	err = rw.Flush()
	if err != nil {
		return "", err
	}

	res, err := rw.ReadString(0)
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSuffix(res, "\x00"), nil
}

// OlsrIpc serves the inspect socket
type OlsrIpc struct {
	listener net.Listener
	wg       sync.WaitGroup
}

func (i *OlsrIpc) Init(s *state.State) error {
	s.Log.Debug("init ipc", "path", s.IpcPath)
	// a stale socket from a previous run would make listen fail
	err := os.Remove(s.IpcPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	i.listener, err = net.Listen("unix", s.IpcPath)
	if err != nil {
		return fmt.Errorf("listen on ipc socket %s: %w", s.IpcPath, err)
	}
	i.wg.Add(1)
	go i.accept(s.Env)
	return nil
}

func (i *OlsrIpc) accept(e *state.Env) {
	defer i.wg.Done()
	for {
		conn, err := i.listener.Accept()
		if err != nil {
			if e.Context.Err() == nil && !errors.Is(err, net.ErrClosed) {
				e.Log.Warn("ipc accept failed", "error", err)
			}
			return
		}
		i.wg.Add(1)
		go func() {
			defer i.wg.Done()
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(ipcTimeout))
			rw := bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn))
			err := handleIPC(e, rw)
			if err != nil {
				e.Log.Debug("ipc request failed", "error", err)
				return
			}
			_ = rw.Flush()
		}()
	}
}

func handleIPC(e *state.Env, rw *bufio.ReadWriter) error {
	cmd, err := rw.ReadString('\n')
	if err != nil {
		return err
	}
	switch cmd {
	case "inspect\n":
		res, err := e.DispatchWait(func(s *state.State) (any, error) {
			return Inspect(s.RouterState, time.Now()), nil
		})
		if err != nil {
			return err
		}
		_, err = rw.WriteString(res.(string))
		if err != nil {
			return err
		}
		return rw.WriteByte(0)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (i *OlsrIpc) Cleanup(s *state.State) error {
	if i.listener == nil {
		return nil
	}
	err := i.listener.Close()
	i.wg.Wait()
	return err
}

func writeSection(sb *strings.Builder, title string, rows []string) {
	sb.WriteString(title + ":\n")
	if len(rows) == 0 {
		sb.WriteString("  (none)\n")
	}
	slices.Sort(rows)
	for _, row := range rows {
		sb.WriteString(" - " + row + "\n")
	}
	sb.WriteString("\n")
}

// Inspect renders every protocol table in a human readable form
func Inspect(s *state.RouterState, now time.Time) string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Node %s (willingness %d, ansn %d)\n\n", s.Id, s.Willingness, s.Ansn))

	rows := make([]string, 0)
	for _, link := range s.Links {
		rows = append(rows, fmt.Sprintf("%s %s expires %.2fs", link.Neighbour, link.Status(now), link.Expiry.Sub(now).Seconds()))
	}
	writeSection(&sb, "Links", rows)

	rows = make([]string, 0)
	for _, n := range s.Neighbours {
		rows = append(rows, n.String())
	}
	writeSection(&sb, "Neighbours", rows)

	rows = make([]string, 0)
	for _, th := range s.TwoHop {
		rows = append(rows, th.String())
	}
	writeSection(&sb, "Two Hop Neighbours", rows)

	rows = make([]string, 0)
	for addr := range s.Mprs {
		rows = append(rows, addr.String())
	}
	writeSection(&sb, "MPRs", rows)

	rows = make([]string, 0)
	for addr, expiry := range s.MprSelectors {
		rows = append(rows, fmt.Sprintf("%s expires %.2fs", addr, expiry.Sub(now).Seconds()))
	}
	writeSection(&sb, "MPR Selectors", rows)

	rows = make([]string, 0)
	for _, t := range s.Topology {
		rows = append(rows, fmt.Sprintf("%s expires %.2fs", t, t.Expiry.Sub(now).Seconds()))
	}
	writeSection(&sb, "Topology", rows)

	rows = make([]string, 0)
	for _, a := range s.Associations {
		rows = append(rows, fmt.Sprintf("%s expires %.2fs", a, a.Expiry.Sub(now).Seconds()))
	}
	writeSection(&sb, "Associations", rows)

	sb.WriteString(fmt.Sprintf("Duplicate Set: %d entries\n\n", s.Duplicates.Len()))

	sb.WriteString("Route Table:\n")
	if s.Routes.Len() == 0 {
		sb.WriteString("  (none)\n")
	} else {
		sb.WriteString(s.Routes.String() + "\n")
	}
	return sb.String()
}
