package resolve

// PartyClass groups resolved entities by their role in the policy text:
// the policy's own organization (first party), the end user, or an
// external organization (third party).
type PartyClass string

const (
	PartyUnknown PartyClass = "unknown"
	PartyFirst   PartyClass = "first_party"
	PartyUser    PartyClass = "user"
	PartyThird   PartyClass = "third_party"
)

// Role is the data-protection role inferred from graph structure after the
// flow graph is finalized. It is never set at resolution time.
type Role string

const (
	RoleUnknown    Role = "Unknown"
	RoleController Role = "DataController"
	RoleProcessor  Role = "DataProcessor"
)

// Entity is a canonical party identity. The canonical name keeps the casing
// of the first mention; every textual variant seen since is recorded as an
// alias. Entities are only ever merged into, never deleted.
type Entity struct {
	CanonicalName string     `json:"canonical_name"`
	Key           string     `json:"key"`
	Aliases       []string   `json:"aliases"`
	Class         PartyClass `json:"class"`
	Role          Role       `json:"role"`

	aliasSet map[string]struct{}
}

func newEntity(display, key string, class PartyClass) *Entity {
	e := &Entity{
		CanonicalName: display,
		Key:           key,
		Class:         class,
		Role:          RoleUnknown,
		aliasSet:      make(map[string]struct{}),
	}
	e.addAlias(display)
	return e
}

// addAlias records a textual variant. Adding the same alias twice is a no-op,
// so merging is idempotent regardless of feed order.
func (e *Entity) addAlias(raw string) {
	if raw == "" {
		return
	}
	if _, ok := e.aliasSet[raw]; ok {
		return
	}
	e.aliasSet[raw] = struct{}{}
	e.Aliases = append(e.Aliases, raw)
}

// HasAlias reports whether the exact textual variant was seen for this entity.
func (e *Entity) HasAlias(raw string) bool {
	_, ok := e.aliasSet[raw]
	return ok
}
