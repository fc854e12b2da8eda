package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/game/dice"
)

// GlobalScope is the reserved key for shared scripts loaded via LoadGlobal.
// Hook calls fall back to this VM when no scope-specific VM is found.
const GlobalScope = "__global__"

// vm is one sandboxed LState. LStates are single-threaded, so every use
// holds mu.
type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	cancel func()
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cancel != nil {
		v.cancel()
	}
	v.L.Close()
}

// Manager owns one sandboxed LState per scope (typically one per scripted
// player) and exposes hook dispatch.
//
// Manager is safe for concurrent use after loading completes.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	roller *dice.Roller
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: roller and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no loaded scopes.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		roller: roller,
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine module,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: any previous VM for scope is closed and replaced.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the GlobalScope VM used as a fallback by every scope.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(GlobalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)
	v := &vm{L: L, limit: instLimit, cancel: cancel}

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		v.close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		v.cancel()
		v.cancel = Budget(L, instLimit)
		if err := L.DoFile(path); err != nil {
			v.close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	old := m.vms[key]
	m.vms[key] = v
	m.mu.Unlock()
	if old != nil {
		old.close()
	}
	m.logger.Debug("scripts loaded",
		zap.String("scope", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

func (m *Manager) lookup(scope string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.vms[scope]; ok {
		return v
	}
	return m.vms[GlobalScope]
}

// CallHook calls the named Lua global function in scope's VM. If the scope
// has no VM, the GlobalScope VM is tried as a fallback. Returns (LNil, nil)
// if the hook is not defined or no VM exists. Lua runtime errors, including
// an exhausted instruction budget, are logged at Warn level and never
// propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(scope, hook, func(*lua.LState) []lua.LValue { return args })
}

// CallPredicate calls hook with the single argument produced by build, which
// receives the VM's own LState so tables can be allocated on it.
//
// Postcondition: returns true only when the hook exists and returned Lua true.
func (m *Manager) CallPredicate(scope, hook string, build func(L *lua.LState) lua.LValue) (bool, error) {
	ret, err := m.call(scope, hook, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{build(L)}
	})
	if err != nil {
		return false, err
	}
	return ret == lua.LTrue, nil
}

func (m *Manager) call(scope, hook string, args func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	v := m.lookup(scope)
	if v == nil {
		m.logger.Info("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	v.cancel()
	v.cancel = Budget(L, v.limit)
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args(L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM. Subsequent hook calls behave as if nothing was loaded.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.close()
	}
}
