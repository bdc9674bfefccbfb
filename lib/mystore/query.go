package mystore

import (
	"reflect"
	"sort"
	"strings"
	"time"
)

// applyQuery evaluates equality filters and a single ascending order on exported fields.
// Backends without a query engine of their own use it.
func applyQuery[T any](items []T, filters []Filter, orderByField string) []T {
	result := []T{}
	for _, item := range items {
		if matchesAll(item, filters) {
			result = append(result, item)
		}
	}

	field := strings.TrimPrefix(orderByField, "-")
	if field == "" {
		return result
	}
	descending := strings.HasPrefix(orderByField, "-")

	sort.SliceStable(result, func(i, j int) bool {
		a, b := fieldOf(result[i], field), fieldOf(result[j], field)
		if descending {
			return lessThan(b, a)
		}
		return lessThan(a, b)
	})

	return result
}

func matchesAll(item any, filters []Filter) bool {
	for _, f := range filters {
		v := fieldOf(item, f.Field)
		if !v.IsValid() {
			return false
		}
		switch strings.TrimSpace(f.Compare) {
		case "=", "==":
			if !reflect.DeepEqual(v.Interface(), f.Value) {
				return false
			}
		case "!=":
			if reflect.DeepEqual(v.Interface(), f.Value) {
				return false
			}
		case "<":
			if !lessThan(v, reflect.ValueOf(f.Value)) {
				return false
			}
		case ">":
			if !lessThan(reflect.ValueOf(f.Value), v) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func fieldOf(item any, name string) reflect.Value {
	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	return v.FieldByName(name)
}

func lessThan(a, b reflect.Value) bool {
	if !a.IsValid() || !b.IsValid() {
		return false
	}
	if ta, ok := a.Interface().(time.Time); ok {
		tb, ok := b.Interface().(time.Time)
		return ok && ta.Before(tb)
	}
	switch a.Kind() {
	case reflect.String:
		return b.Kind() == reflect.String && a.String() < b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return b.CanInt() && a.Int() < b.Int()
	case reflect.Float32, reflect.Float64:
		return b.CanFloat() && a.Float() < b.Float()
	case reflect.Bool:
		return b.Kind() == reflect.Bool && !a.Bool() && b.Bool()
	}
	return false
}
