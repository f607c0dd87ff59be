// SPDX-License-Identifier: MIT

package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mailtools/addmsgid/internal/log"
)

// provisionListener creates the milter listening endpoint. For unix
// sockets it creates the parent directory if missing (only the
// already-exists condition is tolerated; a permission failure or any
// other error aborts startup), removes a stale socket file from a
// previous run, listens, and applies the configured socket mode.
//
// The returned cleanup removes the socket file and is safe to call
// after the listener is closed.
func provisionListener(network, addr string, dirMode, sockMode os.FileMode, logger zerolog.Logger) (net.Listener, func(), error) {
	if network != "unix" {
		ln, err := net.Listen(network, addr)
		if err != nil {
			return nil, nil, fmt.Errorf("listen %s %s: %w", network, addr, err)
		}
		return ln, func() {}, nil
	}

	dir := filepath.Dir(addr)
	if err := os.Mkdir(dir, dirMode); err != nil && !errors.Is(err, fs.ErrExist) {
		return nil, nil, fmt.Errorf("create socket directory %s: %w", dir, err)
	}

	// A stale socket file from an unclean shutdown would make listen fail.
	if err := os.Remove(addr); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("remove stale socket %s: %w", addr, err)
	}

	ln, err := net.Listen("unix", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen unix %s: %w", addr, err)
	}

	if err := os.Chmod(addr, sockMode); err != nil {
		_ = ln.Close()
		_ = os.Remove(addr)
		return nil, nil, fmt.Errorf("chmod socket %s: %w", addr, err)
	}

	cleanup := func() {
		if err := os.Remove(addr); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Err(err).Str(log.FieldSocket, addr).Msg("failed to remove socket file")
		}
	}
	return ln, cleanup, nil
}
