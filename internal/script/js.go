package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// runJS executes a compiled program in a fresh VM. Cancelling ctx interrupts
// the VM.
func (e *execution) runJS(ctx context.Context, s *Script) error {
	rt := goja.New()
	if err := e.install(ctx, rt); err != nil {
		return fmt.Errorf("script %s: init: %w", s.Name, err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	_, err := rt.RunProgram(s.program)
	if failure := e.failed(); failure != nil {
		return failure
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return cause
			}
			return context.Canceled
		}
		return fmt.Errorf("script %s: %w", s.Name, err)
	}
	return nil
}

// install exposes the ufo API plus sleep and log helpers.
func (e *execution) install(ctx context.Context, rt *goja.Runtime) error {
	ufo := rt.NewObject()

	call := func(build func(goja.FunctionCall) (Step, error)) func(goja.FunctionCall) goja.Value {
		return func(fc goja.FunctionCall) goja.Value {
			step, err := build(fc)
			if err == nil {
				err = e.command(ctx, step)
			}
			if err != nil {
				e.fail(err)
				rt.Interrupt(err)
				panic(rt.NewGoError(err))
			}
			return goja.Undefined()
		}
	}

	bindings := map[string]func(goja.FunctionCall) goja.Value{
		"speed": call(func(fc goja.FunctionCall) (Step, error) {
			n, err := intArg(fc, 0, "speed")
			return Step{Action: ActionSpeed, Speed: n}, err
		}),
		"turn": call(func(fc goja.FunctionCall) (Step, error) {
			n, err := intArg(fc, 0, "angle")
			return Step{Action: ActionTurn, Angle: n, Snap: fc.Argument(1).ToBoolean()}, err
		}),
		"follow": call(func(goja.FunctionCall) (Step, error) {
			return Step{Action: ActionFollow}, nil
		}),
		"destinationReached": call(func(goja.FunctionCall) (Step, error) {
			return Step{Action: ActionDestinationReached}, nil
		}),
		"logging": call(func(fc goja.FunctionCall) (Step, error) {
			return Step{Action: ActionLogging, Enabled: fc.Argument(0).ToBoolean()}, nil
		}),
		"reset": call(func(goja.FunctionCall) (Step, error) {
			return Step{Action: ActionReset}, nil
		}),
		"setAlgorithm": call(func(fc goja.FunctionCall) (Step, error) {
			arg := fc.Argument(0)
			if goja.IsUndefined(arg) || goja.IsNull(arg) {
				return Step{Action: ActionAlgorithm}, nil
			}
			name := strings.TrimSpace(arg.String())
			if name == "" {
				return Step{}, fmt.Errorf("setAlgorithm: name required (use null to clear)")
			}
			return Step{Action: ActionAlgorithm, Algorithm: &name}, nil
		}),
	}
	for name, fn := range bindings {
		if err := ufo.Set(name, fn); err != nil {
			return err
		}
	}
	if err := rt.Set("ufo", ufo); err != nil {
		return err
	}

	logFn := func(fc goja.FunctionCall) goja.Value {
		parts := make([]string, len(fc.Arguments))
		for i, arg := range fc.Arguments {
			parts[i] = arg.String()
		}
		e.emit(EventOutput, strings.Join(parts, " "))
		return goja.Undefined()
	}
	if err := rt.Set("log", logFn); err != nil {
		return err
	}
	console := rt.NewObject()
	for _, name := range []string{"log", "info", "warn", "error"} {
		if err := console.Set(name, logFn); err != nil {
			return err
		}
	}
	if err := rt.Set("console", console); err != nil {
		return err
	}

	return rt.Set("sleep", func(fc goja.FunctionCall) goja.Value {
		ms := fc.Argument(0).ToInteger()
		if err := sleep(ctx, time.Duration(ms)*time.Millisecond); err != nil {
			panic(rt.NewGoError(err))
		}
		return goja.Undefined()
	})
}

func intArg(fc goja.FunctionCall, idx int, name string) (int, error) {
	arg := fc.Argument(idx)
	if goja.IsUndefined(arg) || goja.IsNull(arg) {
		return 0, fmt.Errorf("%s: argument required", name)
	}
	return int(arg.ToInteger()), nil
}
