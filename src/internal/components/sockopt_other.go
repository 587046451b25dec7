//go:build !unix

package components

import (
	"fmt"
	"syscall"
)

func reusePortControl(network, address string, c syscall.RawConn) error {
	return fmt.Errorf("SO_REUSEPORT is not supported on this platform")
}
