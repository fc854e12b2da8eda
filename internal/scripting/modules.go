package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
)

// RegisterModules registers the engine.* Lua table into L:
//
//	engine.log(msg)                       logs msg at Debug tagged with scope
//	engine.roll(expr)                     rolls a dice expression ("2D6+1")
//	engine.distance(col1, row1, col2, row2) hex distance between two cells
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, scope string) {
	engine := L.NewTable()
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Debug("lua", zap.String("scope", scope), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(engine, "roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.roll: %s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(m.roller.Roll(expr).Total()))
		return 1
	}))
	L.SetField(engine, "distance", L.NewFunction(func(L *lua.LState) int {
		a := hexgrid.Coord{Col: L.CheckInt(1), Row: L.CheckInt(2)}
		b := hexgrid.Coord{Col: L.CheckInt(3), Row: L.CheckInt(4)}
		L.Push(lua.LNumber(hexgrid.Distance(a, b)))
		return 1
	}))
	L.SetGlobal("engine", engine)
}
