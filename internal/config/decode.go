package config

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// mapstructureDurationHook lets the config file and env vars express
// durations as plain strings ("10s", "5m") the way the rest of the pack's
// viper configs do.
func mapstructureDurationHook(f, t reflect.Type, data interface{}) (interface{}, error) {
	if t != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch f.Kind() {
	case reflect.String:
		return time.ParseDuration(data.(string))
	case reflect.Int, reflect.Int64:
		return data, nil
	default:
		return data, nil
	}
}

var _ mapstructure.DecodeHookFuncType = mapstructureDurationHook
