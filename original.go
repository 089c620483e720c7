package catnip

import (
	"reflect"

	"github.com/pkg/errors"
)

// Bind stores into fptr, a pointer to a func variable, a typed wrapper that
// calls the saved original of slot index. Parameters and the optional result
// must be integers, uintptrs or bools; each travels as one machine word.
func (v *VTable) Bind(index int, fptr interface{}) error {
	return bindFunc(fptr, func(args ...uintptr) uintptr {
		r, err := v.Call(index, args...)
		if err != nil {
			logger.Error().Err(err).Str("hook", v.name).Int("slot", index).Msg("call original")
		}
		return r
	})
}

// Bind is Bind for the original of site i.
func (c *CodePatch) Bind(i int, fptr interface{}) error {
	return bindFunc(fptr, func(args ...uintptr) uintptr {
		r, err := c.CallOriginal(i, args...)
		if err != nil {
			logger.Error().Err(err).Str("hook", c.name).Int("site", i).Msg("call original")
		}
		return r
	})
}

func bindFunc(fptr interface{}, call Func) error {
	vp := reflect.ValueOf(fptr)
	if vp.Kind() != reflect.Ptr || vp.Elem().Kind() != reflect.Func {
		return ErrInputType
	}
	ft := vp.Elem().Type()
	if ft.IsVariadic() || ft.NumOut() > 1 {
		return errors.Wrapf(ErrInputType, "%v", ft)
	}
	for i := 0; i < ft.NumIn(); i++ {
		if !isWord(ft.In(i)) {
			return errors.Wrapf(ErrInputType, "%v: parameter %d", ft, i)
		}
	}
	if ft.NumOut() == 1 && !isWord(ft.Out(0)) {
		return errors.Wrapf(ErrInputType, "%v: result", ft)
	}
	fn := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]uintptr, len(in))
		for i, a := range in {
			args[i] = toWord(a)
		}
		r := call(args...)
		if ft.NumOut() == 0 {
			return nil
		}
		return []reflect.Value{fromWord(r, ft.Out(0))}
	})
	vp.Elem().Set(fn)
	return nil
}

func isWord(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func toWord(v reflect.Value) uintptr {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uintptr(v.Int())
	default:
		return uintptr(v.Uint())
	}
}

func fromWord(w uintptr, t reflect.Type) reflect.Value {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		out.SetBool(w&0xff != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out.SetInt(int64(w))
	default:
		out.SetUint(uint64(w))
	}
	return out
}
