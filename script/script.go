package script

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/dop251/goja"

	"github.com/jonwraymond/snippetexec/capability"
	"github.com/jonwraymond/snippetexec/result"
	"github.com/jonwraymond/snippetexec/runtime"
)

// Filename is the name snippets are compiled under. It appears in error
// positions.
const Filename = "snippet.js"

// DefaultMaxCallStackSize bounds JavaScript recursion.
const DefaultMaxCallStackSize = 1024

// Options configures one run.
type Options struct {
	// Allow is the capability allow-list.
	Allow capability.AllowList

	// Gateway provides data access. Nil makes data functions throw.
	Gateway runtime.Gateway

	// Timeout is the wall-clock budget.
	Timeout time.Duration

	// MaxStdoutBytes caps captured print output.
	MaxStdoutBytes int

	// MaxCallStackSize bounds recursion depth.
	// Default: DefaultMaxCallStackSize
	MaxCallStackSize int

	// MaxOutputCells bounds the size of the exported output and of tables
	// built through the frame module.
	// Default: result.DefaultMaxOutputCells
	MaxOutputCells int
}

// Outcome is the raw result of a run: either the exported output value or
// a classified failure.
type Outcome struct {
	Value  any
	Stdout string
	Err    error
}

// Envelope validates and classifies the outcome.
func (o Outcome) Envelope(maxCells int) result.Result {
	if o.Err != nil {
		return result.FromError(o.Err)
	}
	return result.Finalize(o.Value, maxCells)
}

// probe reads the output binding wherever the snippet declared it, including
// top-level let and const. A binding that exists but holds undefined still
// counts as defined; only an unbound name is missing.
var probe = goja.MustCompile("probe.js", `(function () {
	if (Object.prototype.hasOwnProperty.call(globalThis, "output")) {
		return { defined: true, value: globalThis.output };
	}
	try {
		return { defined: true, value: output };
	} catch (e) {
		if (e instanceof ReferenceError) {
			return { defined: false };
		}
		throw e;
	}
})()`, false)

// Run executes code and returns its outcome. Every failure is reported in
// Outcome.Err as one of the result package's error types; Run never panics.
func Run(ctx context.Context, code string, opts Options) (out Outcome) {
	if opts.Timeout <= 0 {
		opts.Timeout = runtime.DefaultTimeout
	}
	if opts.MaxCallStackSize <= 0 {
		opts.MaxCallStackSize = DefaultMaxCallStackSize
	}
	if opts.MaxOutputCells <= 0 {
		opts.MaxOutputCells = result.DefaultMaxOutputCells
	}
	timedOut := &result.TimedOutError{Budget: opts.Timeout}

	callCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	vm.SetMaxCallStackSize(opts.MaxCallStackSize)

	stdout := newBoundedBuffer(opts.MaxStdoutBytes)
	e := &env{
		ctx:      callCtx,
		vm:       vm,
		gw:       opts.Gateway,
		stdout:   stdout,
		maxCells: opts.MaxOutputCells,
		expired:  timedOut,
	}

	guard := capability.NewGuard(opts.Allow, e.loaders())
	defer guard.Close()
	guard.OnReject(func(err error) { _ = e.abort(err) })

	defer func() {
		out.Stdout = stdout.String()
		if p := recover(); p != nil {
			out = Outcome{Stdout: stdout.String(), Err: &result.OrchestrationFailureError{
				Message: fmt.Sprintf("host function panicked: %v", p),
			}}
		}
	}()

	if err := e.bind(guard); err != nil {
		return Outcome{Err: &result.OrchestrationFailureError{Message: "binding namespace", Err: err}}
	}
	harden(vm)

	prog, err := goja.Compile(Filename, code, false)
	if err != nil {
		return Outcome{Err: syntaxFailure(err)}
	}

	// The alarm stays armed until the output has been exported: getters
	// on the output run JavaScript too.
	timer := time.AfterFunc(opts.Timeout, func() { vm.Interrupt(timedOut) })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(timedOut) })
	defer stop()

	_, runErr := vm.RunProgram(prog)
	if err := e.failure(guard, runErr); err != nil {
		return Outcome{Err: err}
	}

	probed, err := vm.RunProgram(probe)
	if err := e.failure(guard, err); err != nil {
		return Outcome{Err: err}
	}
	obj := probed.ToObject(vm)
	if !obj.Get("defined").ToBoolean() {
		return Outcome{Err: result.MissingOutput()}
	}

	value, err := e.collect(obj.Get("value"), newExporter(callCtx, timedOut, opts.MaxOutputCells))
	if err := e.failure(guard, err); err != nil {
		return Outcome{Err: err}
	}
	return Outcome{Value: value}
}

// failure picks the error that ends a run: an abort or capability
// rejection wins over whatever the interrupted script reported.
func (e *env) failure(guard *capability.Guard, err error) error {
	if e.aborted != nil {
		return e.aborted
	}
	if rejected := guard.Rejected(); rejected != nil {
		return rejected
	}
	if err != nil {
		return classifyRunError(err)
	}
	return nil
}

// collect exports v from inside a VM call so getters stay interruptible.
func (e *env) collect(v goja.Value, x *exporter) (any, error) {
	var (
		value     any
		exportErr error
	)
	fn, _ := goja.AssertFunction(e.vm.ToValue(func(goja.FunctionCall) goja.Value {
		value, exportErr = x.export(v, 0)
		return goja.Undefined()
	}))
	if _, err := fn(goja.Undefined()); err != nil {
		return nil, err
	}
	if exportErr != nil {
		return nil, exportErr
	}
	return value, nil
}

// constructorSources evaluate to the prototypes whose constructor property
// compiles source text.
var constructorSources = []string{
	`Function.prototype`,
	`Object.getPrototypeOf(function* () {})`,
	`Object.getPrototypeOf(async function () {})`,
	`Object.getPrototypeOf(async function* () {})`,
}

// harden disables dynamic code evaluation.
func harden(vm *goja.Runtime) {
	blocked := vm.ToValue(func(goja.FunctionCall) goja.Value {
		panic(vm.NewTypeError("dynamic code evaluation is disabled"))
	})
	for _, src := range constructorSources {
		proto, err := vm.RunString(src)
		if err != nil {
			continue
		}
		obj, ok := proto.(*goja.Object)
		if !ok {
			continue
		}
		_ = obj.DefineDataProperty("constructor", blocked, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	}
	_ = vm.GlobalObject().Delete("Function")
	_ = vm.Set("eval", goja.Undefined())
}

var (
	stackPosition  = regexp.MustCompile(regexp.QuoteMeta(Filename) + `:(\d+):(\d+)`)
	syntaxPosition = regexp.MustCompile(`Line (\d+):(\d+)`)
)

func classifyRunError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return cause
		}
		return &result.OrchestrationFailureError{Message: fmt.Sprintf("interrupted: %v", interrupted.Value())}
	}

	var exc *goja.Exception
	if errors.As(err, &exc) {
		msg := exc.Error()
		if v := exc.Value(); v != nil {
			msg = v.String()
		}
		rf := &result.RuntimeFailureError{Message: msg, Err: err}
		rf.Line, rf.Column = position(stackPosition, exc.String())
		return rf
	}

	var stack *goja.StackOverflowError
	if errors.As(err, &stack) {
		return &result.RuntimeFailureError{Message: "RangeError: maximum call stack size exceeded", Err: err}
	}
	return &result.RuntimeFailureError{Message: err.Error(), Err: err}
}

func syntaxFailure(err error) error {
	rf := &result.RuntimeFailureError{Message: err.Error(), Err: err}
	rf.Line, rf.Column = position(syntaxPosition, err.Error())
	if rf.Line > 0 {
		// The position is already part of the parser message.
		rf.Message = stripPosition(err.Error())
	}
	return rf
}

func position(re *regexp.Regexp, s string) (line, col int) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, 0
	}
	line, _ = strconv.Atoi(m[1])
	col, _ = strconv.Atoi(m[2])
	return line, col
}

func stripPosition(s string) string {
	loc := syntaxPosition.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + s[loc[1]:]
}
