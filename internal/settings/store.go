package settings

import (
	"sync"
	"sync/atomic"
)

// Store holds the validated Configuration for the life of the process.
//
// A Store is created once at startup and passed to whatever needs settings.
// It is initialised exactly once, by Init or by the first GetOrInit; reads
// afterwards are lock-free.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Concurrent first calls to GetOrInit run the build function once; the
//     other callers wait and then observe its result.
type Store struct {
	reg *Registry
	cfg atomic.Pointer[Configuration]
	mu  sync.Mutex // serialises initialisation only
}

// NewStore creates an empty Store reading defaults from reg.
// A nil reg means DefaultRegistry().
func NewStore(reg *Registry) *Store {
	if reg == nil {
		reg = DefaultRegistry()
	}
	return &Store{reg: reg}
}

// Init stores cfg. Only the first call succeeds; later calls return a
// ValidationError of kind AlreadyInitialized and leave the stored
// configuration untouched. A nil cfg is rejected with ErrNilConfiguration.
func (s *Store) Init(cfg *Configuration) error {
	if cfg == nil {
		return ErrNilConfiguration
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Load() != nil {
		return &ValidationError{Kind: AlreadyInitialized}
	}
	s.cfg.Store(cfg)
	return nil
}

// GetOrInit returns the stored configuration, running build to create it
// if the store is still empty. If build fails the store stays empty and the
// error is returned. A build returning a nil configuration counts as a
// failure (ErrNilConfiguration).
func (s *Store) GetOrInit(build func() (*Configuration, error)) (*Configuration, error) {
	if cfg := s.cfg.Load(); cfg != nil {
		return cfg, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg := s.cfg.Load(); cfg != nil {
		return cfg, nil
	}
	cfg, err := build()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrNilConfiguration
	}
	s.cfg.Store(cfg)
	return cfg, nil
}

// Configuration returns the stored configuration, or nil before Init.
func (s *Store) Configuration() *Configuration {
	return s.cfg.Load()
}

// Registry returns the registry the store was created with.
func (s *Store) Registry() *Registry {
	return s.reg
}

// Initialized reports whether the store holds a configuration.
func (s *Store) Initialized() bool {
	return s.cfg.Load() != nil
}

// Get returns the value of key, falling back to the schema default for
// absent keys. It reports false before initialisation.
func (s *Store) Get(key string) (Value, bool) {
	cfg := s.cfg.Load()
	if cfg == nil {
		return Value{}, false
	}
	if v, ok := cfg.Get(key); ok {
		return v, true
	}
	if e, ok := s.reg.Lookup(key); ok && e.Default.IsValid() {
		return e.Default, true
	}
	return Value{}, false
}

// lookup resolves key and checks its kind for the typed accessors.
func (s *Store) lookup(key string, want Kind) (Value, error) {
	if s.cfg.Load() == nil {
		return Value{}, ErrNotInitialized
	}
	v, ok := s.Get(key)
	if !ok {
		return Value{}, &AccessError{Kind: NotFound, Key: key, Expected: want}
	}
	if v.Kind() != want {
		return Value{}, &AccessError{Kind: WrongType, Key: key, Expected: want, Actual: v.Kind()}
	}
	return v, nil
}

// GetString returns a string setting.
func (s *Store) GetString(key string) (string, error) {
	v, err := s.lookup(key, KindString)
	if err != nil {
		return "", err
	}
	str, _ := v.AsString()
	return str, nil
}

// GetBool returns a bool setting.
func (s *Store) GetBool(key string) (bool, error) {
	v, err := s.lookup(key, KindBool)
	if err != nil {
		return false, err
	}
	b, _ := v.AsBool()
	return b, nil
}

// GetInt returns an integer setting.
func (s *Store) GetInt(key string) (int64, error) {
	v, err := s.lookup(key, KindInt)
	if err != nil {
		return 0, err
	}
	i, _ := v.AsInt()
	return i, nil
}

// GetList returns a copy of a list setting.
func (s *Store) GetList(key string) ([]Value, error) {
	v, err := s.lookup(key, KindList)
	if err != nil {
		return nil, err
	}
	items, _ := v.AsList()
	return items, nil
}

// GetMap returns a copy of a map setting.
func (s *Store) GetMap(key string) (map[string]Value, error) {
	v, err := s.lookup(key, KindMap)
	if err != nil {
		return nil, err
	}
	m, _ := v.AsMap()
	return m, nil
}

// GetStrings returns a list setting whose items are all strings, such as
// trusted_domains.
func (s *Store) GetStrings(key string) ([]string, error) {
	items, err := s.GetList(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(items))
	for i, item := range items {
		str, ok := item.AsString()
		if !ok {
			return nil, &AccessError{Kind: WrongType, Key: key, Expected: KindString, Actual: item.Kind()}
		}
		out[i] = str
	}
	return out, nil
}

// AppsPaths returns apps_paths in search order.
func (s *Store) AppsPaths() ([]AppsPathEntry, error) {
	v, err := s.lookup("apps_paths", KindList)
	if err != nil {
		return nil, err
	}
	return DecodeAppsPaths(v)
}
