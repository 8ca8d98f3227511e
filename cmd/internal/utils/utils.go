package utils

import (
	"reflect"
	"strings"
	"time"
)

// Layouts accepted for incoming timestamps. Clients without zone
// information send the second one and are treated as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func FormatEpoch(millis int64) string {
	return time.UnixMilli(millis).
		UTC().
		Format(time.RFC3339Nano)
}

func FormatEpochPtr(millis *int64) *string {
	if millis == nil {
		return nil
	}
	s := FormatEpoch(*millis)
	return &s
}

func NowUTC() int64 {
	return time.Now().
		UTC().
		UnixMilli()
}

func FromEpoch(raw string) (int64, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		t, err = time.Parse(layout, raw)
		if err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, err
}

func FromEpochPtr(raw *string) (*int64, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	millis, err := FromEpoch(*raw)
	if err != nil {
		return nil, err
	}
	return &millis, nil
}

// Sanitize trims every string, *string and []string field of the struct o
// points to. Fields tagged `sanitize:"-"` are left verbatim.
func Sanitize(o any) {
	v := reflect.ValueOf(o)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		panic("sanitize: expected pointer to struct")
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		panic("sanitize: expected struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || t.Field(i).Tag.Get("sanitize") == "-" {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(sanitizeString(field.String()))

		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.String {
				field.Elem().SetString(sanitizeString(field.Elem().String()))
			}

		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				for j := 0; j < field.Len(); j++ {
					field.Index(j).SetString(sanitizeString(field.Index(j).String()))
				}
			}
		}
	}
}

func sanitizeString(s string) string {
	return strings.TrimSpace(s)
}
