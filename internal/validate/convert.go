package validate

import (
	"fmt"
	"reflect"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// converter turns attribute values into Lua values. A map or slice met
// again maps to the table already built for it, so cyclic values become
// cyclic tables.
type converter struct {
	L        *lua.LState
	tables   map[container]*lua.LTable
	pointers map[uintptr]bool
}

// container identifies a map or slice by its backing storage.
type container struct {
	ptr uintptr
	len int
	typ reflect.Type
}

// toLua converts an attribute value to a Lua value. Maps become tables,
// slices become arrays, times become RFC 3339 strings.
func toLua(L *lua.LState, v any) lua.LValue {
	c := &converter{
		L:        L,
		tables:   make(map[container]*lua.LTable),
		pointers: make(map[uintptr]bool),
	}
	return c.value(v)
}

func (c *converter) value(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case time.Time:
		return lua.LString(val.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return lua.LString(val.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())
	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Pointer:
		if rv.IsNil() || c.pointers[rv.Pointer()] {
			return lua.LNil
		}
		c.pointers[rv.Pointer()] = true
		defer delete(c.pointers, rv.Pointer())
		return c.value(rv.Elem().Interface())
	case reflect.Slice:
		t, done := c.table(rv, rv.Len())
		if !done {
			c.fillArray(t, rv)
		}
		return t
	case reflect.Array:
		t := c.L.NewTable()
		c.fillArray(t, rv)
		return t
	case reflect.Map:
		t, done := c.table(rv, 0)
		if !done {
			iter := rv.MapRange()
			for iter.Next() {
				t.RawSet(c.value(iter.Key().Interface()), c.value(iter.Value().Interface()))
			}
		}
		return t
	}

	ud := c.L.NewUserData()
	ud.Value = v
	return ud
}

// table returns the table for a map or slice, and whether it was built
// before.
func (c *converter) table(rv reflect.Value, n int) (*lua.LTable, bool) {
	if rv.IsNil() || (rv.Kind() == reflect.Slice && n == 0) {
		return c.L.NewTable(), false
	}
	key := container{ptr: rv.Pointer(), len: n, typ: rv.Type()}
	if t, ok := c.tables[key]; ok {
		return t, true
	}
	t := c.L.NewTable()
	c.tables[key] = t
	return t, false
}

func (c *converter) fillArray(t *lua.LTable, rv reflect.Value) {
	for i := 0; i < rv.Len(); i++ {
		t.RawSetInt(i+1, c.value(rv.Index(i).Interface()))
	}
}
