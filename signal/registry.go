package signal

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registry tracks the family names used inside one store.
// It is safe for concurrent use.
type Registry struct {
	id       string
	families sync.Map // name -> family id
	logger   *zap.Logger
}

type RegistryOption func(*Registry)

// WithLogger sets the logger used to report definitions.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		id:     uuid.New().String(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) ID() string { return r.id }

// Has reports whether name is already defined.
func (r *Registry) Has(name string) bool {
	_, ok := r.families.Load(name)
	return ok
}

// IDOf returns the family id assigned to name.
func (r *Registry) IDOf(name string) (string, bool) {
	v, ok := r.families.Load(name)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Names returns the defined family names, sorted.
func (r *Registry) Names() []string {
	var names []string
	r.families.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}

// Lookup resolves a discriminant to its defined family name and kind.
func (r *Registry) Lookup(t Type) (name string, kind Kind, ok bool) {
	name, kind, ok = ParseType(t)
	if !ok || !r.Has(name) {
		return "", 0, false
	}
	return name, kind, true
}

func (r *Registry) claim(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		r.logger.Error("rejected signal family", zap.String("name", name), zap.Error(err))
		return "", err
	}
	id := uuid.New().String()
	if _, loaded := r.families.LoadOrStore(name, id); loaded {
		err := fmt.Errorf("%w: %q", ErrDuplicateName, name)
		r.logger.Error("rejected signal family", zap.String("name", name), zap.Error(err))
		return "", err
	}
	r.logger.Debug("defined signal family",
		zap.String("registryId", r.id),
		zap.String("familyId", id),
		zap.String("name", name),
	)
	return id, nil
}

// Define creates the signal family name within reg.
//
// A malformed name fails with ErrInvalidName, a name already defined in reg
// with ErrDuplicateName. Both wrap ErrConfiguration.
func Define[R, P any](reg *Registry, name string) (Family[R, P], error) {
	id, err := reg.claim(name)
	if err != nil {
		return Family[R, P]{}, err
	}
	return newFamily[R, P](name, id), nil
}

// MustDefine is the panic-on-failure variant of Define, meant for
// package-level family declarations.
func MustDefine[R, P any](reg *Registry, name string) Family[R, P] {
	f, err := Define[R, P](reg, name)
	if err != nil {
		panic(err)
	}
	return f
}
