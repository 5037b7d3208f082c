package resolve

import (
	"strings"

	"privaflow/pkg/logger"
)

// UnknownPartyName is the display name of the reserved entity that absorbs
// empty and unresolvable party mentions.
const UnknownPartyName = "unspecified party"

// Mentions of the policy's own organization, in normalized-key space.
// Derived from the pronoun and deixis forms privacy policies use for
// themselves.
var firstPartyMentions = map[string]struct{}{
	"we": {}, "us": {}, "our": {},
	"this website": {}, "this company": {}, "this organisation": {},
	"this organization": {}, "this app": {}, "this service": {},
	"our website": {}, "our company": {}, "our organisation": {},
	"our organization": {}, "our service": {}, "our app": {},
	"website": {}, "company": {}, "organisation": {}, "organization": {},
	"app": {}, "service": {}, "device": {}, "car": {}, "site": {},
	"your app": {}, "your device": {}, "your car": {},
}

// Config carries the per-run resolution policy. MainParty names the
// organization the policy belongs to; pronoun mentions resolve to it.
// AliasOverrides maps known textual variants to a canonical spelling.
type Config struct {
	MainParty      string
	AliasOverrides map[string]string
}

// Resolver canonicalizes free-text party mentions into stable entities.
// It is the mutable per-run state of the resolution stage: one Resolver is
// owned by exactly one pipeline run and is never shared across runs.
//
// Resolution is a pure function of the mention and the current state, so
// replaying the same mention sequence yields the same entities. The chosen
// canonical spelling of a merged entity depends on first-seen order; the
// final alias sets do not.
type Resolver struct {
	cfg     Config
	mainKey string
	main    *Entity

	entities []*Entity
	byKey    map[string]*Entity
	abbrevs  map[string]*Entity

	unknown     *Entity
	unknownHits int
}

// New creates a resolver for one pipeline run. When cfg.MainParty is set,
// the main-party entity is created eagerly so pronoun mentions always land
// on the same identity.
func New(cfg Config) *Resolver {
	r := &Resolver{
		cfg:     cfg,
		byKey:   make(map[string]*Entity),
		abbrevs: make(map[string]*Entity),
		unknown: newEntity(UnknownPartyName, UnknownPartyName, PartyUnknown),
	}
	r.byKey[UnknownPartyName] = r.unknown

	if cfg.MainParty != "" {
		r.mainKey = normalizeKey(cfg.MainParty)
		r.main = newEntity(NormalizeSpace(cfg.MainParty), r.mainKey, PartyFirst)
		r.entities = append(r.entities, r.main)
		r.byKey[r.mainKey] = r.main
	}

	return r
}

// Resolve maps a raw party mention to its canonical entity, creating one on
// first sight. Empty and pronoun-only mentions with no configured main party
// land on the reserved unknown entity rather than failing.
func (r *Resolver) Resolve(raw string) *Entity {
	raw = NormalizeSpace(raw)
	if raw == "" {
		return r.resolveUnknown()
	}

	working := raw
	abbr := ""
	if cleaned, a, _, ok := ExtractAbbreviation(raw); ok {
		working = cleaned
		abbr = a
	}

	key := normalizeKey(working)
	if key == "" {
		return r.resolveUnknown()
	}

	if override, ok := r.cfg.AliasOverrides[key]; ok {
		working = NormalizeSpace(override)
		key = normalizeKey(working)
	}

	if e, ok := r.byKey[key]; ok {
		e.addAlias(raw)
		r.registerAbbrev(abbr, e)
		return e
	}

	// A bare acronym mention resolves through the abbreviation table built
	// from earlier inline definitions.
	if !strings.Contains(key, " ") && IsAbbreviation(working) {
		if e, ok := r.abbrevs[strings.ToUpper(working)]; ok {
			e.addAlias(raw)
			r.byKey[key] = e
			return e
		}
	}

	if _, ok := firstPartyMentions[key]; ok {
		if r.main != nil {
			r.main.addAlias(raw)
			r.byKey[key] = r.main
			return r.main
		}
		logger.Debug("[Resolve] First-party mention without configured main party", "mention", raw)
		return r.resolveUnknown()
	}

	if r.mainKey != "" && strings.Contains(key, r.mainKey) {
		r.main.addAlias(raw)
		r.byKey[key] = r.main
		r.registerAbbrev(abbr, r.main)
		return r.main
	}

	// Fuzzy bucket: merge near-duplicates by token containment. The
	// first-created entity of a bucket stays canonical.
	for _, e := range r.entities {
		if e == r.main {
			continue
		}
		if tokenContainment(key, e.Key) {
			e.addAlias(raw)
			r.byKey[key] = e
			r.registerAbbrev(abbr, e)
			return e
		}
	}

	e := newEntity(working, key, r.classify(key))
	e.addAlias(raw)
	r.entities = append(r.entities, e)
	r.byKey[key] = e
	r.registerAbbrev(abbr, e)
	return e
}

// Unknown returns the reserved entity for unresolvable mentions.
func (r *Resolver) Unknown() *Entity {
	return r.unknown
}

// UnknownHits reports how many mentions fell through to the unknown entity.
func (r *Resolver) UnknownHits() int {
	return r.unknownHits
}

// MainParty returns the configured main-party entity, or nil.
func (r *Resolver) MainParty() *Entity {
	return r.main
}

// Entities returns all created entities in creation order. The reserved
// unknown entity is included only if something resolved to it.
func (r *Resolver) Entities() []*Entity {
	out := make([]*Entity, 0, len(r.entities)+1)
	out = append(out, r.entities...)
	if r.unknownHits > 0 {
		out = append(out, r.unknown)
	}
	return out
}

func (r *Resolver) resolveUnknown() *Entity {
	r.unknownHits++
	return r.unknown
}

func (r *Resolver) registerAbbrev(abbr string, e *Entity) {
	if abbr == "" {
		return
	}
	upper := strings.ToUpper(abbr)
	if _, ok := r.abbrevs[upper]; ok {
		return
	}
	r.abbrevs[upper] = e
	e.addAlias(abbr)
}

func (r *Resolver) classify(key string) PartyClass {
	if _, ok := firstPartyMentions[key]; ok {
		return PartyFirst
	}
	if r.mainKey != "" && strings.Contains(key, r.mainKey) {
		return PartyFirst
	}
	head := key
	if idx := strings.IndexByte(key, ' '); idx > 0 {
		head = key[:idx]
	}
	if strings.HasPrefix(head, "you") || strings.HasPrefix(head, "user") || strings.HasPrefix(head, "customer") || strings.HasPrefix(head, "consumer") {
		return PartyUser
	}
	return PartyThird
}
