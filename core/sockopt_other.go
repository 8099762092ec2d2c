//go:build !unix

package core

import "syscall"

func setSockOpts(network, address string, c syscall.RawConn) error {
	return nil
}
