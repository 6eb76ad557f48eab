//go:build unix

package cli

import "syscall"

// detachedAttr starts the worker in its own session so terminal signals sent
// to the submitting command do not reach it.
func detachedAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
