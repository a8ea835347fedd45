package provider

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
)

// Describe renders a raw provider list entry for diagnostics, e.g.
//
//	{provide: Symbol(Value), useValue: 1, multi: true}
func Describe(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "<nil>"
	case *Provider:
		if v == nil {
			return "<nil>"
		}
		return describeProvider(v)
	case Provider:
		return describeProvider(&v)
	}
	if reflect.TypeOf(raw).Kind() == reflect.Func {
		return funcName(raw)
	}
	return fmt.Sprintf("%v", raw)
}

func describeProvider(p *Provider) string {
	var b strings.Builder
	b.WriteString("{provide: ")
	b.WriteString(DescribeToken(p.Provide))

	switch p.Kind() {
	case KindClass:
		b.WriteString(", useClass: " + funcName(p.UseClass))
	case KindFactory:
		b.WriteString(", useFactory: " + funcName(p.UseFactory))
	case KindExisting:
		b.WriteString(", useExisting: " + DescribeToken(p.UseExisting))
	default:
		fmt.Fprintf(&b, ", useValue: %v", describeValue(p.UseValue))
	}

	if len(p.Inject) > 0 {
		deps := make([]string, len(p.Inject))
		for i, dep := range p.Inject {
			deps[i] = DescribeToken(dep)
		}
		b.WriteString(", inject: [" + strings.Join(deps, ", ") + "]")
	}
	if p.Multi {
		b.WriteString(", multi: true")
	}
	if p.Standalone != nil {
		fmt.Fprintf(&b, ", standalone: %t", *p.Standalone)
	}
	b.WriteString("}")
	return b.String()
}

// DescribeToken renders a token for diagnostics.
func DescribeToken(token Token) string {
	switch t := token.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", t)
	case reflect.Type:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprintf("%v", token)
}

func describeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", val)
	}
	if reflect.TypeOf(v).Kind() == reflect.Func {
		return funcName(v)
	}
	return fmt.Sprintf("%v", v)
}

func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Sprintf("%T", fn)
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		name := f.Name()
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		return name
	}
	return v.Type().String()
}
