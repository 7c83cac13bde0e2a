package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")

	ErrMissingStoreURL  = errors.New("store.url is required for the weaviate backend")
	ErrMissingStorePath = errors.New("store.path is required for the badger backend unless store.in_memory is set")
)

// collectionName matches class names accepted by the store: a capital
// letter followed by letters, digits or underscores.
var collectionName = regexp.MustCompile(`^[A-Z][A-Za-z0-9_]*$`)

var newValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("collection", func(fl validator.FieldLevel) bool {
		return collectionName.MatchString(fl.Field().String())
	})
	return v
})

// Validate checks field constraints and the cross-field rules that depend
// on the selected backend.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch c.Store.Backend {
	case BackendWeaviate:
		if c.Store.URL == "" {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingStoreURL)
		}
	case BackendBadger:
		if c.Store.Path == "" && !c.Store.InMemory {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrMissingStorePath)
		}
	}

	if err := c.CollectionDefinition().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// describe renders a field error with its YAML path, e.g.
// "load.batch_size must satisfy min=1".
func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if _, rest, ok := strings.Cut(path, "."); ok {
		path = rest
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return fmt.Sprintf("%s must satisfy %s (got %v)", path, rule, fe.Value())
}
