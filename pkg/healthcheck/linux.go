//go:build linux

package healthcheck

import (
	"syscall"

	"github.com/serum-errors/go-serum"
)

type utsname syscall.Utsname

func uname() (*utsname, error) {
	var utsname utsname
	err := syscall.Uname((*syscall.Utsname)(&utsname))
	if err != nil {
		return nil, serum.Error(CodeRunFailure, serum.WithCause(err),
			serum.WithMessageLiteral("uname syscall failed"),
		)
	}
	return &utsname, nil
}
