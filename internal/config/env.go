package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const (
	TagValue   = "env"
	TagDefault = "env-default"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Read fills the tagged fields of the struct pointed to by root from the
// environment. Fields without an env tag are left alone; nested structs are
// read recursively.
func Read(root any) error {
	rootValue := reflect.ValueOf(root)
	if rootValue.Kind() != reflect.Ptr || rootValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: expected pointer to struct, got %T", root)
	}

	rootValue = rootValue.Elem()
	rootType := rootValue.Type()

	for i := 0; i < rootValue.NumField(); i++ {
		fieldType := rootType.Field(i)
		fieldValue := rootValue.Field(i)

		if !fieldValue.CanSet() {
			continue
		}

		if fieldValue.Kind() == reflect.Struct {
			if err := Read(fieldValue.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		tagValue, ok := fieldType.Tag.Lookup(TagValue)
		if !ok {
			continue
		}

		name, options, _ := strings.Cut(tagValue, ",")
		required := options == "required"
		defValue, hasDefValue := fieldType.Tag.Lookup(TagDefault)

		env, found := os.LookupEnv(name)
		if required && !found {
			return fmt.Errorf("environment variable %s is required but the value is not provided", name)
		}
		if !found {
			if !hasDefValue {
				continue
			}
			env = defValue
		}

		if err := parseValue(fieldValue, env); err != nil {
			return fmt.Errorf("can't parse environment variable %s: %w", name, err)
		}
	}

	return nil
}

func parseValue(fieldValue reflect.Value, env string) error {
	if fieldValue.Type() == durationType {
		d, err := time.ParseDuration(env)
		if err != nil {
			return err
		}
		fieldValue.SetInt(int64(d))
		return nil
	}

	switch fieldValue.Kind() {
	case reflect.String:
		fieldValue.SetString(env)

	case reflect.Bool:
		b, err := strconv.ParseBool(env)
		if err != nil {
			return err
		}
		fieldValue.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(env, 0, fieldValue.Type().Bits())
		if err != nil {
			return err
		}
		fieldValue.SetInt(n)

	default:
		return fmt.Errorf("unsupported type %s", fieldValue.Kind())
	}

	return nil
}
