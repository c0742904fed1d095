package attrs

import (
	"math"
	"reflect"
	"time"

	"github.com/google/go-cmp/cmp"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	exportAll    = cmp.Exporter(func(reflect.Type) bool { return true })
	nilableKinds = map[reflect.Kind]bool{
		reflect.Pointer:   true,
		reflect.Map:       true,
		reflect.Slice:     true,
		reflect.Func:      true,
		reflect.Chan:      true,
		reflect.Interface: true,
	}
)

// Equal reports whether a and b are structurally equal.
//
// Numbers compare by value across kinds, so int(1) equals float64(1); NaN
// equals NaN. Slices and arrays compare element-wise, maps key by key,
// pointers by what they point to. Functions and channels are equal only
// when both are nil. Structs compare field by field, unexported fields
// included. A nil slice or map equals an empty one. Cyclic values
// terminate.
func Equal(a, b any) bool {
	return deepEqual(reflect.ValueOf(a), reflect.ValueOf(b), make(map[visit]bool))
}

// visit is a pair of containers already under comparison.
type visit struct {
	a, b uintptr
	typ  reflect.Type
}

func deepEqual(a, b reflect.Value, seen map[visit]bool) bool {
	a, b = elem(a), elem(b)

	if !a.IsValid() || !b.IsValid() {
		return isNil(a) && isNil(b)
	}

	if isNumber(a.Kind()) && isNumber(b.Kind()) {
		return numberEqual(a, b)
	}

	if a.Type() == timeType && b.Type() == timeType {
		return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
	}

	switch a.Kind() {
	case reflect.Bool:
		return b.Kind() == reflect.Bool && a.Bool() == b.Bool()

	case reflect.String:
		return b.Kind() == reflect.String && a.String() == b.String()

	case reflect.Slice, reflect.Array:
		if b.Kind() != reflect.Slice && b.Kind() != reflect.Array {
			return false
		}
		if a.Len() != b.Len() {
			return false
		}
		if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice {
			if a.Type() == b.Type() && a.Pointer() == b.Pointer() {
				return true
			}
			if enter(a, b, seen) {
				return true
			}
		}
		for i := 0; i < a.Len(); i++ {
			if !deepEqual(a.Index(i), b.Index(i), seen) {
				return false
			}
		}
		return true

	case reflect.Map:
		if b.Kind() != reflect.Map || a.Type().Key() != b.Type().Key() {
			return false
		}
		if a.Len() != b.Len() {
			return false
		}
		if a.Type() == b.Type() && a.Pointer() == b.Pointer() {
			return true
		}
		if enter(a, b, seen) {
			return true
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !deepEqual(iter.Value(), bv, seen) {
				return false
			}
		}
		return true

	case reflect.Pointer:
		if b.Kind() != reflect.Pointer {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		if a.IsNil() || b.IsNil() {
			return false
		}
		if enter(a, b, seen) {
			return true
		}
		return deepEqual(a.Elem(), b.Elem(), seen)

	case reflect.Func, reflect.Chan:
		return b.Kind() == a.Kind() && a.IsNil() && b.IsNil()

	case reflect.UnsafePointer:
		return b.Kind() == reflect.UnsafePointer && a.UnsafePointer() == nil && b.UnsafePointer() == nil

	case reflect.Struct:
		if a.Type() != b.Type() || !a.CanInterface() || !b.CanInterface() {
			return false
		}
		return cmp.Equal(a.Interface(), b.Interface(), exportAll)
	}

	return false
}

// enter records the pair and reports whether it was already being compared.
func enter(a, b reflect.Value, seen map[visit]bool) bool {
	v := visit{a: a.Pointer(), b: b.Pointer(), typ: a.Type()}
	if seen[v] {
		return true
	}
	seen[v] = true
	return false
}

// elem unwraps interface values.
func elem(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	return nilableKinds[v.Kind()] && v.IsNil()
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || isFloat(k)
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func numberEqual(a, b reflect.Value) bool {
	ak, bk := a.Kind(), b.Kind()
	switch {
	case isInt(ak) && isInt(bk):
		return a.Int() == b.Int()
	case isUint(ak) && isUint(bk):
		return a.Uint() == b.Uint()
	case isInt(ak) && isUint(bk):
		return a.Int() >= 0 && uint64(a.Int()) == b.Uint()
	case isUint(ak) && isInt(bk):
		return b.Int() >= 0 && uint64(b.Int()) == a.Uint()
	}
	fa, fb := toFloat(a), toFloat(b)
	if math.IsNaN(fa) && math.IsNaN(fb) {
		return true
	}
	return fa == fb
}

func toFloat(v reflect.Value) float64 {
	switch k := v.Kind(); {
	case isInt(k):
		return float64(v.Int())
	case isUint(k):
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
