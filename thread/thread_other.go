// Copyright 2016 by Thorsten von Eicken, see LICENSE file

//go:build !linux

package thread

import "errors"

// Realtime is only supported on linux.
func Realtime(priority int) error { return errors.New("thread: realtime scheduling not supported") }

// Normal is a no-op.
func Normal() error { return nil }
