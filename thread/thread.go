// Copyright 2016 by Thorsten von Eicken, see LICENSE file

//go:build linux

// The thread package moves the calling goroutine onto a kernel thread of its own with realtime
// scheduling. Bit-banged waveforms need this: a normal thread can be preempted in the middle of
// a pulse and the receiver then sees garbage.
package thread

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"
)

// Scheduling policies.
const (
	Other = 0 // normal time-sharing
	FIFO  = 1 // fifo realtime
	RR    = 2 // round-robin realtime
)

// DefaultPriority is somewhere in the lower middle of the realtime range.
const DefaultPriority = 10

type schedParam struct {
	Priority int
}

// Realtime locks the calling goroutine to its own kernel thread and elevates that thread's
// priority to realtime using the round-robin policy. A priority of 0 selects DefaultPriority.
// Typically requires root or CAP_SYS_NICE, on error the goroutine stays locked to its thread
// at normal priority.
func Realtime(priority int) error {
	if priority <= 0 {
		priority = DefaultPriority
	}
	runtime.LockOSThread()
	return setScheduler(RR, priority)
}

// Normal reverts the effects of Realtime for the calling goroutine.
func Normal() error {
	defer runtime.UnlockOSThread()
	return setScheduler(Other, 0)
}

func setScheduler(policy, priority int) error {
	tid := syscall.Gettid()
	res, _, errno := syscall.RawSyscall(syscall.SYS_SCHED_SETSCHEDULER, uintptr(tid),
		uintptr(policy), uintptr(unsafe.Pointer(&schedParam{priority})))
	if res != 0 {
		return fmt.Errorf("thread: sched_setscheduler(%d, %d): %v", policy, priority, errno)
	}
	return nil
}
