package tss

import (
	"context"
	"os/exec"
)

func (e *Exec) SetCommand(f func(ctx context.Context, name string, args ...string) *exec.Cmd) {
	e.command = f
}

func (e *Exec) SetLookPath(f func(string) (string, error)) {
	e.lookPath = f
}
