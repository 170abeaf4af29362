package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Hooks runs condition hook scripts in fresh sandboxed VMs. Each invocation
// gets its own LState, so a hook can never leak state into another figure's
// bookkeeping.
type Hooks struct {
	instLimit int
}

// NewHooks creates a hook runner with the given per-script instruction limit
// (0 uses DefaultInstructionLimit).
func NewHooks(instLimit int) *Hooks {
	return &Hooks{instLimit: instLimit}
}

// Run executes script with the given integer globals bound, then reads the
// same set of globals back. A hook communicates by mutating its inputs, e.g.
// a bleeding tick script:
//
//	damage = stacks
//
// Precondition: script must be non-empty.
// Postcondition: Returns the final values of every key in env, or an error
// (syntax error, runtime error, or instruction-limit hit). env is not mutated.
func (h *Hooks) Run(script string, env map[string]int) (map[string]int, error) {
	if script == "" {
		return nil, fmt.Errorf("scripting: empty hook script")
	}

	L := NewSandboxedState(h.instLimit)
	defer L.Close()

	for k, v := range env {
		L.SetGlobal(k, lua.LNumber(v))
	}

	if err := L.DoString(script); err != nil {
		return nil, fmt.Errorf("scripting: hook failed: %w", err)
	}

	out := make(map[string]int, len(env))
	for k := range env {
		switch v := L.GetGlobal(k).(type) {
		case lua.LNumber:
			out[k] = int(v)
		default:
			return nil, fmt.Errorf("scripting: hook set %q to non-number", k)
		}
	}
	return out, nil
}
