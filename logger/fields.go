package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// zapField wraps a zap.Field and implements the Field interface.
type zapField struct {
	field zap.Field
	value any
}

func (f zapField) Key() string         { return f.field.Key }
func (f zapField) Value() any          { return f.value }
func (f zapField) ZapField() zap.Field { return f.field }

// String creates a string field.
func String(key, value string) Field {
	return zapField{field: zap.String(key, value), value: value}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return zapField{field: zap.Int(key, value), value: value}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return zapField{field: zap.Bool(key, value), value: value}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return zapField{field: zap.Duration(key, value), value: value}
}

// Strings creates a string slice field.
func Strings(key string, value []string) Field {
	return zapField{field: zap.Strings(key, value), value: value}
}

// Stringer renders value with its String method.
func Stringer(key string, value fmt.Stringer) Field {
	return zapField{field: zap.Stringer(key, value), value: value}
}

// Error creates an error field under the "error" key.
func Error(err error) Field {
	return zapField{field: zap.Error(err), value: err}
}

// Any creates a field for an arbitrary value.
func Any(key string, value any) Field {
	return zapField{field: zap.Any(key, value), value: value}
}
