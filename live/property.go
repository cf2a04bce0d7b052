package live

import "fmt"

// property binds one remote-backed attribute to its get/set command pair.
// class is the remote object class in the command path ("clip", "track",
// "song"). Get responses echo the routing arguments back before the value, so
// the value slot is simply the first slot after the arguments that were sent;
// that keeps one mechanism working across clip (two routing args), track (one)
// and song (none).
type property[T any] struct {
	class  string
	name   string
	decode func(interface{}) (T, error)
}

func clipProp[T any](name string, decode func(interface{}) (T, error)) property[T] {
	return property[T]{class: "clip", name: name, decode: decode}
}

func trackProp[T any](name string, decode func(interface{}) (T, error)) property[T] {
	return property[T]{class: "track", name: name, decode: decode}
}

func songProp[T any](name string, decode func(interface{}) (T, error)) property[T] {
	return property[T]{class: "song", name: name, decode: decode}
}

func (p property[T]) getPath() string { return "/live/" + p.class + "/get/" + p.name }
func (p property[T]) setPath() string { return "/live/" + p.class + "/set/" + p.name }

// get queries the property with the given routing arguments and decodes the
// first slot after the echoed arguments.
func (p property[T]) get(t Transport, addr ...interface{}) (T, error) {
	var zero T
	resp, err := t.Query(p.getPath(), addr...)
	if err != nil {
		return zero, err
	}
	if len(resp) <= len(addr) {
		return zero, shapeErr(p.getPath(), "expected a value after %d echoed args, got %d slots", len(addr), len(resp))
	}
	return p.decode(resp[len(addr)])
}

// set sends the routing arguments followed by the new value, one way.
func (p property[T]) set(t Transport, args ...interface{}) error {
	return t.Cmd(p.setPath(), args...)
}

// The OSC layer hands numbers back as whichever 32- or 64-bit type was on the
// wire; the codecs below fold them into the Go types the proxies expose.

func asInt(v interface{}) (int, error) {
	switch x := v.(type) {
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case int:
		return x, nil
	case float32:
		return int(x), nil
	case float64:
		return int(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrBadResponse, v)
	}
}

func asFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("%w: expected number, got %T", ErrBadResponse, v)
	}
}

func asBool(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int32:
		return x != 0, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float32:
		return x != 0, nil
	case float64:
		return x != 0, nil
	default:
		return false, fmt.Errorf("%w: expected bool, got %T", ErrBadResponse, v)
	}
}

func asString(v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: expected string, got %T", ErrBadResponse, v)
}
