package internal

import "reflect"

func Zero[T any]() T {
	var zero T
	return zero
}

func TypeName[T any]() string {
	t := reflect.TypeOf((*T)(nil))
	return t.Elem().String()
}

// InstanceTypeName returns "nil" for an untyped nil.
func InstanceTypeName(instance any) string {
	t := reflect.TypeOf(instance)
	if t == nil {
		return "nil"
	}

	return t.String()
}

// IsNil reports whether v is nil or an interface holding a nil pointer, map,
// slice, channel or func.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
