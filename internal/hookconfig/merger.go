package hookconfig

import (
	"fmt"
	"strings"

	"github.com/emiliopalmerini/usagetrack/internal/domain"
)

// DefaultSignatures identify commands installed by this tool, current and
// legacy.
var DefaultSignatures = []string{"usagetrack", "usage-tracker.py"}

// DefaultTypeEnv is the variable that carries the event type in a binding.
const DefaultTypeEnv = "CLAUDE_HOOK_TYPE"

// Result reports what a merge changed for one event.
type Result struct {
	AlreadyPresent bool
	Removed        int
	Added          bool
}

// Changed reports whether the document was modified.
func (r Result) Changed() bool {
	return r.Added || r.Removed > 0
}

// Merger registers tracker bindings in a settings document without
// disturbing entries it does not own.
type Merger struct {
	Signatures []string
	TypeEnv    string
}

func NewMerger() *Merger {
	return &Merger{
		Signatures: DefaultSignatures,
		TypeEnv:    DefaultTypeEnv,
	}
}

// BindingCommand is the command line installed for an event. A binary
// path containing whitespace is single-quoted.
func BindingCommand(typeEnv string, event domain.HookKind, binary string) string {
	if strings.ContainsAny(binary, " \t") {
		binary = "'" + strings.ReplaceAll(binary, "'", `'\''`) + "'"
	}
	return fmt.Sprintf("%s=%s %s hook", typeEnv, event, binary)
}

// Merge makes command the single tracker binding for event. The first group
// already holding command is kept as is; other groups holding a tracker
// binding for the same event are dropped; a new group is appended when no
// group held command. Entries that are not binding groups are kept in place.
// Applying Merge twice leaves the document unchanged the second time.
func (m *Merger) Merge(doc *Document, event string, command string) (Result, error) {
	var res Result
	entries := doc.Entries(event)
	kept := make([]Entry, 0, len(entries)+1)

	for _, e := range entries {
		if e.Group == nil {
			kept = append(kept, e)
			continue
		}
		if !res.AlreadyPresent && hasCommand(e.Group, command) {
			res.AlreadyPresent = true
			kept = append(kept, e)
			continue
		}
		if m.isStale(e.Group, event) {
			res.Removed++
			continue
		}
		kept = append(kept, e)
	}

	if !res.AlreadyPresent {
		kept = append(kept, Entry{Group: &Group{
			Matcher: "",
			Hooks:   []Binding{{Type: "command", Command: command}},
		}})
		res.Added = true
	}

	if !res.Changed() {
		return res, nil
	}
	if err := doc.SetEntries(event, kept); err != nil {
		return res, err
	}
	return res, nil
}

func hasCommand(g *Group, command string) bool {
	for _, b := range g.Hooks {
		if b.Command == command {
			return true
		}
	}
	return false
}

// isStale reports whether any binding in g is one of ours for event.
func (m *Merger) isStale(g *Group, event string) bool {
	marker := m.typeEnv() + "=" + event
	for _, b := range g.Hooks {
		if !m.hasSignature(b.Command) {
			continue
		}
		for _, tok := range strings.Fields(b.Command) {
			if tok == marker {
				return true
			}
		}
	}
	return false
}

func (m *Merger) hasSignature(command string) bool {
	for _, sig := range m.Signatures {
		if sig != "" && strings.Contains(command, sig) {
			return true
		}
	}
	return false
}

func (m *Merger) typeEnv() string {
	if m.TypeEnv == "" {
		return DefaultTypeEnv
	}
	return m.TypeEnv
}
