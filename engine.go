package zsock

import (
	"fmt"
	"sort"
	"sync"

	"github.com/workspace-9/zsock/native"
)

// DefaultEngine is picked when a CtxConfig names no engine and it is
// registered.
const DefaultEngine = "zmq4"

var registeredEngines struct {
	engines map[string]native.Engine
	sync.RWMutex
}

// RegisterEngine makes an engine available under name. Engine packages call
// it from init, so importing them for side effects is enough:
//
//	import _ "github.com/workspace-9/zsock/engine/zmq4"
func RegisterEngine(name string, engine native.Engine) error {
	registeredEngines.Lock()
	defer registeredEngines.Unlock()

	if registeredEngines.engines == nil {
		registeredEngines.engines = make(map[string]native.Engine)
	}

	if _, ok := registeredEngines.engines[name]; ok {
		return fmt.Errorf("%w: %s", ErrEngineExists, name)
	}

	registeredEngines.engines[name] = engine
	return nil
}

type engineExists struct{}

func (engineExists) Error() string {
	return "Engine already registered"
}

var ErrEngineExists engineExists

type engineNotFound struct{}

func (engineNotFound) Error() string {
	return "Engine not found"
}

var ErrEngineNotFound engineNotFound

func FindEngine(name string) (native.Engine, bool) {
	registeredEngines.RLock()
	defer registeredEngines.RUnlock()
	engine, ok := registeredEngines.engines[name]
	return engine, ok
}

// Engines lists the registered engine names in sorted order.
func Engines() []string {
	registeredEngines.RLock()
	defer registeredEngines.RUnlock()

	names := make([]string, 0, len(registeredEngines.engines))
	for name := range registeredEngines.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resolveEngine(name string) (native.Engine, error) {
	if name != "" {
		engine, ok := FindEngine(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrEngineNotFound, name)
		}
		return engine, nil
	}

	if engine, ok := FindEngine(DefaultEngine); ok {
		return engine, nil
	}

	names := Engines()
	if len(names) != 1 {
		return nil, fmt.Errorf("%w: no engine named and %d registered", ErrEngineNotFound, len(names))
	}
	engine, _ := FindEngine(names[0])
	return engine, nil
}

// Version reports the version of the library behind the default engine.
func Version() (major, minor, patch int) {
	engine, err := resolveEngine("")
	if err != nil {
		panic(fmt.Sprintf("zsock: %s", err))
	}
	return engine.Version()
}

// Has reports whether the default engine supports a named capability such
// as "ipc", "curve" or "draft".
func Has(capability string) bool {
	engine, err := resolveEngine("")
	if err != nil {
		panic(fmt.Sprintf("zsock: %s", err))
	}
	return engine.Has(capability)
}
