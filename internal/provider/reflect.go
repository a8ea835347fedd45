package provider

import (
	"fmt"
	"reflect"

	"github.com/xraph/multi/errors"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ClassInfo inspects a constructor function and returns the type it
// produces and the types of its parameters.
func ClassInfo(fn any) (reflect.Type, []reflect.Type, error) {
	if fn == nil {
		return nil, nil, errors.ErrInvalidFactory
	}
	t := reflect.TypeOf(fn)
	if t.Kind() != reflect.Func {
		return nil, nil, fmt.Errorf("%w, got %T", errors.ErrInvalidFactory, fn)
	}
	if t.IsVariadic() {
		return nil, nil, fmt.Errorf("constructor %s must not be variadic", t)
	}
	out, err := checkResult(t)
	if err != nil {
		return nil, nil, err
	}

	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
	}
	return out, params, nil
}

// checkResult accepts (T) or (T, error) result lists.
func checkResult(t reflect.Type) (reflect.Type, error) {
	switch t.NumOut() {
	case 1:
		return t.Out(0), nil
	case 2:
		if !t.Out(1).Implements(errorType) {
			return nil, fmt.Errorf("%s returns two results so the second must implement error", t)
		}
		return t.Out(0), nil
	default:
		return nil, fmt.Errorf("%s must return (T) or (T, error), got %d results", t, t.NumOut())
	}
}

// checkFactory validates a factory against the number of injected tokens.
// A factory of the form func(...any) accepts any number of arguments.
func checkFactory(fn any, inject int) error {
	t := reflect.TypeOf(fn)
	if t.Kind() != reflect.Func {
		return fmt.Errorf("%w, got %T", errors.ErrInvalidFactory, fn)
	}
	if _, err := checkResult(t); err != nil {
		return err
	}
	if t.IsVariadic() {
		if t.NumIn() != 1 || t.In(0).Elem().Kind() != reflect.Interface {
			return fmt.Errorf("variadic factory %s must have the form func(...any)", t)
		}
		return nil
	}
	if t.NumIn() != inject {
		return fmt.Errorf("factory expects %d parameters, got %d dependencies", t.NumIn(), inject)
	}
	return nil
}

// Call invokes fn with the resolved dependencies and unpacks (T) or
// (T, error) results.
func Call(fn any, deps []any) (any, error) {
	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", errors.ErrInvalidFactory, fn)
	}

	var args []reflect.Value
	if fnType.IsVariadic() {
		args = make([]reflect.Value, len(deps))
		elem := fnType.In(0).Elem()
		for i, dep := range deps {
			args[i] = argValue(dep, elem)
		}
	} else {
		if fnType.NumIn() != len(deps) {
			return nil, fmt.Errorf("factory expects %d parameters, got %d dependencies", fnType.NumIn(), len(deps))
		}
		args = make([]reflect.Value, len(deps))
		for i, dep := range deps {
			in := fnType.In(i)
			if dep != nil && !reflect.TypeOf(dep).AssignableTo(in) {
				return nil, fmt.Errorf("%w: argument %d is %T, factory expects %s", errors.ErrTypeMismatch, i, dep, in)
			}
			args[i] = argValue(dep, in)
		}
	}

	results := fnValue.Call(args)

	switch fnType.NumOut() {
	case 1:
		return results[0].Interface(), nil
	case 2:
		if !results[1].IsNil() {
			return nil, results[1].Interface().(error)
		}
		return results[0].Interface(), nil
	default:
		return nil, fmt.Errorf("factory must return (T) or (T, error), got %d return values", fnType.NumOut())
	}
}

func argValue(dep any, t reflect.Type) reflect.Value {
	if dep == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(dep)
}
