package trap

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
)

// EnvOp carries the op name from parent to probe child.
const EnvOp = "INSNBENCH_TRAP_OP"

// Exit codes of a probe child.
const (
	exitServed    = 0
	exitEncodeErr = 1
)

// result is the JSON document a probe child writes on stdout. The value
// travels as its IEEE 754 bit pattern so NaN, the infinities and subnormals
// arrive unchanged.
type result struct {
	Bits  uint64 `json:"bits"`
	Error string `json:"error,omitempty"`
}

func (r result) value() float64 {
	return math.Float64frombits(r.Bits)
}

// ChildOp returns the op this process was started to run, if it is a probe
// child.
func ChildOp() (string, bool) {
	name := os.Getenv(EnvOp)
	return name, name != ""
}

// Serve runs the requested op when the process is a probe child and writes
// its result to w. served is false in an ordinary process; the caller then
// carries on. When served is true the caller must exit with code without
// producing any other output.
//
// An illegal instruction inside the op kills the process before Serve
// returns; the parent reads that as a trap.
func Serve(reg *Registry, w io.Writer) (code int, served bool) {
	name, ok := ChildOp()
	if !ok {
		return 0, false
	}

	var res result

	if fn, ok := reg.Lookup(name); ok {
		v, err := fn()
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Bits = math.Float64bits(v)
		}
	} else {
		res.Error = fmt.Sprintf("%v: %q", ErrUnknownOp, name)
	}

	if err := json.NewEncoder(w).Encode(res); err != nil {
		fmt.Fprintf(os.Stderr, "trap: encode result: %v\n", err)
		return exitEncodeErr, true
	}

	return exitServed, true
}
