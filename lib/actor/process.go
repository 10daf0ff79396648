package actor

import (
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
)

// ExitKind tells how an actor terminated.
type ExitKind uint8

const (
	ExitNormal ExitKind = iota // the actor body returned nil
	ExitFailed                 // the actor body returned an error or panicked
)

func (k ExitKind) String() string {
	if k == ExitNormal {
		return "normal"
	}
	return "failed"
}

// Exit describes the termination of one process incarnation.
type Exit struct {
	ID   uuid.UUID
	Name string
	Kind ExitKind
	Err  error
}

func (e Exit) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s) exited %s: %v", e.Name, e.ID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s) exited %s", e.Name, e.ID, e.Kind)
}

// PanicError is the exit error of a process whose body panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// Process is a running actor goroutine. Every Spawn creates a new incarnation
// with a fresh id, so two processes for the same logical name are never equal.
type Process struct {
	id   uuid.UUID
	name string
	done chan struct{}
	exit Exit
}

// Spawn starts run in a new goroutine. When run returns or panics, the exit is
// recorded, Done() is closed and onExit (if not nil) is called.
func Spawn(name string, run func() error, onExit func(Exit)) *Process {
	p := &Process{
		id:   uuid.New(),
		name: name,
		done: make(chan struct{}),
	}
	go p.run(run, onExit)
	return p
}

func (p *Process) run(run func() error, onExit func(Exit)) {
	exit := Exit{ID: p.id, Name: p.name, Kind: ExitNormal}

	func() {
		defer func() {
			if r := recover(); r != nil {
				exit.Kind = ExitFailed
				exit.Err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		if err := run(); err != nil {
			exit.Kind = ExitFailed
			exit.Err = err
		}
	}()

	p.exit = exit
	close(p.done)

	if onExit != nil {
		onExit(exit)
	}
}

// ID returns the incarnation id.
func (p *Process) ID() uuid.UUID {
	return p.id
}

// Name returns the name given to Spawn.
func (p *Process) Name() string {
	return p.name
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Alive reports whether the process has not exited yet.
func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Exit returns the exit record; ok is false while the process is running.
func (p *Process) Exit() (exit Exit, ok bool) {
	select {
	case <-p.done:
		return p.exit, true
	default:
		return Exit{}, false
	}
}

// Wait blocks until the process exited or done is closed.
func (p *Process) Wait(done <-chan struct{}) (Exit, bool) {
	select {
	case <-p.done:
		return p.exit, true
	case <-done:
		return Exit{}, false
	}
}
