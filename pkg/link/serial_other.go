//go:build !linux

package link

import (
	"errors"
	"runtime"
)

func openSerial(conf SerialConfig) (Stream, error) {
	return nil, errors.New("serial: unsupported platform " + runtime.GOOS)
}
