package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alexandre-axioma/Axiom8/internal/types"
)

// ConfigValidator validates a loaded configuration.
type ConfigValidator interface {
	Validate(cfg *Config) error
}

type structValidator struct {
	validate *validator.Validate
}

// NewConfigValidator creates a validator backed by struct tags plus the
// cross-field checks tags cannot express.
func NewConfigValidator() ConfigValidator {
	return &structValidator{validate: validator.New()}
}

func (v *structValidator) Validate(cfg *Config) error {
	if cfg == nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}

	if err := v.validate.Struct(cfg); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return types.NewError(types.CONFIG_VALIDATION_FAILED, strings.Join(fields, "; "))
		}
		return types.WrapError(types.CONFIG_VALIDATION_FAILED, "struct validation", err)
	}

	// A surviving ${VAR} means the environment variable was never set. Fail
	// startup here rather than at the first provider call.
	var unresolved []string
	collectPlaceholders(reflect.ValueOf(*cfg), "", &unresolved)
	if len(unresolved) > 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, strings.Join(unresolved, "; "))
	}

	if cfg.Session.Backend == "redis" && cfg.Session.Redis.Addr == "" {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "session.redis.addr is required for the redis backend")
	}

	if err := cfg.Tracing.Validate(); err != nil {
		return err
	}

	return nil
}

var placeholderPattern = regexp.MustCompile(`\$\{[^}]+\}`)

// collectPlaceholders walks every string in the config and records the field
// path and variable name of any unresolved ${VAR} placeholder.
func collectPlaceholders(v reflect.Value, path string, found *[]string) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			collectPlaceholders(v.Elem(), path, found)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Tag.Get("mapstructure")
			if name == "" {
				name = strings.ToLower(field.Name)
			}
			child := name
			if path != "" {
				child = path + "." + name
			}
			collectPlaceholders(v.Field(i), child, found)
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			collectPlaceholders(v.MapIndex(key), fmt.Sprintf("%s.%v", path, key.Interface()), found)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			collectPlaceholders(v.Index(i), fmt.Sprintf("%s[%d]", path, i), found)
		}
	case reflect.String:
		if match := placeholderPattern.FindString(v.String()); match != "" {
			*found = append(*found, fmt.Sprintf("%s references unset environment variable %s", path, match))
		}
	}
}
