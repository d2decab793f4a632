package configuration

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Replacing the decode hook drops viper's defaults, so they are composed back in.
var customHooks = []viper.DecoderConfigOption{
	viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		AutoWorkersHookFunc(),
	)),
}

// AutoWorkersHookFunc decodes the string "auto" into an int as the number of CPUs, so that
// e.g. `workers: auto` sizes the worker pool to the machine.
func AutoWorkersHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Int {
			return data, nil
		}
		if !strings.EqualFold(strings.TrimSpace(data.(string)), "auto") {
			return data, nil
		}
		return runtime.NumCPU(), nil
	}
}
