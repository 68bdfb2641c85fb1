//go:build !linux
// +build !linux

package player

import (
	"os"
)

func signals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
