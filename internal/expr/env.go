package expr

// Env resolves identifiers during evaluation.
type Env interface {
	Lookup(name string) (any, bool)
}

// MapEnv is a plain name table.
type MapEnv map[string]any

func (m MapEnv) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// EnvFunc adapts a function into an Env.
type EnvFunc func(name string) (any, bool)

func (f EnvFunc) Lookup(name string) (any, bool) {
	return f(name)
}

// Chain consults each env in order and returns the first hit.
func Chain(envs ...Env) Env {
	return EnvFunc(func(name string) (any, bool) {
		for _, env := range envs {
			if env == nil {
				continue
			}
			if v, ok := env.Lookup(name); ok {
				return v, true
			}
		}
		return nil, false
	})
}

// scope binds lambda parameters and comprehension variables over a parent.
type scope struct {
	vars   map[string]any
	parent Env
}

func (s *scope) Lookup(name string) (any, bool) {
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	if s.parent == nil {
		return nil, false
	}
	return s.parent.Lookup(name)
}
