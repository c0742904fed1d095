package validate

import (
	"context"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultScriptTimeout bounds a single validate call.
const DefaultScriptTimeout = time.Second

// Script validates attributes with a Lua validate function. The Lua state
// only has the base, table, string and math libraries, without file loading.
//
// Script is safe for concurrent use; calls are serialized.
type Script struct {
	mu      sync.Mutex
	L       *lua.LState
	fn      *lua.LFunction
	timeout time.Duration
}

// ScriptOption configures a Script.
type ScriptOption func(*Script)

// WithTimeout bounds each validate call. Zero disables the bound.
func WithTimeout(d time.Duration) ScriptOption {
	return func(s *Script) {
		s.timeout = d
	}
}

// NewScript compiles src and looks up its validate function.
func NewScript(src string, opts ...ScriptOption) (*Script, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("validate: compile script: %w", err)
	}

	fn, ok := L.GetGlobal("validate").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, ErrNoValidateFunc
	}

	s := &Script{L: L, fn: fn, timeout: DefaultScriptTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Validate implements attrs.Validator. The function's result decides:
// nil or true accepts, a string or false rejects.
func (s *Script) Validate(attrs map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	err := s.L.CallByParam(lua.P{Fn: s.fn, NRet: 1, Protect: true}, toLua(s.L, attrs))
	if err != nil {
		return fmt.Errorf("validate: run script: %w", err)
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		if v {
			return nil
		}
		return &Rejection{Message: "rejected"}
	case lua.LString:
		return &Rejection{Message: string(v)}
	default:
		return &Rejection{Message: ret.String()}
	}
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}
