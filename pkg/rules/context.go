package rules

import (
	"sort"
	"sync"

	"github.com/ormasoftchile/gamedef/pkg/gamedef"
	"github.com/ormasoftchile/gamedef/pkg/index"
	"github.com/ormasoftchile/gamedef/pkg/refs"
)

// Context carries one run's document and lookup tables. Lookups are
// computed on first use and live only as long as the Context; the Engine
// creates a fresh one for every run.
type Context struct {
	Doc *gamedef.Document

	set *index.Set

	once       sync.Once
	byID       map[string]gamedef.Component
	byType     map[string][]gamedef.Component
	entityMu   sync.Mutex
	entities   map[string][]gamedef.Entity
	indexOnce  sync.Once
	resolverMu sync.Mutex
	resolver   *refs.Resolver
}

// NewContext creates a run context. set may be nil, in which case an index
// over the tags used by the document is built when first needed.
func NewContext(doc *gamedef.Document, set *index.Set) *Context {
	return &Context{Doc: doc, set: set, entities: map[string][]gamedef.Entity{}}
}

func (c *Context) components() {
	c.once.Do(func() {
		c.byID = map[string]gamedef.Component{}
		c.byType = map[string][]gamedef.Component{}
		for _, comp := range c.Doc.Components() {
			if _, dup := c.byID[comp.ID]; !dup {
				c.byID[comp.ID] = comp
			}
			c.byType[comp.Type] = append(c.byType[comp.Type], comp)
		}
	})
}

// Component returns the first component with id.
func (c *Context) Component(id string) (gamedef.Component, bool) {
	c.components()
	comp, ok := c.byID[id]
	return comp, ok
}

// ComponentsByType returns every component of type t in document order.
func (c *Context) ComponentsByType(t string) []gamedef.Component {
	c.components()
	return c.byType[t]
}

// Entities returns the entities for a type tag.
func (c *Context) Entities(tag string) []gamedef.Entity {
	c.entityMu.Lock()
	defer c.entityMu.Unlock()
	if es, ok := c.entities[tag]; ok {
		return es
	}
	es := c.Doc.Entities(tag)
	c.entities[tag] = es
	return es
}

// ComponentsOfType returns the components of type t an entity owns, in the
// order the entity lists them.
func (c *Context) ComponentsOfType(e gamedef.Entity, t string) []gamedef.Component {
	var out []gamedef.Component
	for _, ref := range e.Components {
		comp, ok := c.Component(ref.ComponentID)
		if ok && comp.Type == t {
			out = append(out, comp)
		}
	}
	return out
}

// HasComponentOfType reports whether e owns a component of type t.
func (c *Context) HasComponentOfType(e gamedef.Entity, t string) bool {
	for _, ref := range e.Components {
		if comp, ok := c.Component(ref.ComponentID); ok && comp.Type == t {
			return true
		}
	}
	return false
}

// Index returns the run's identity indexes.
func (c *Context) Index() *index.Set {
	c.indexOnce.Do(func() {
		if c.set == nil {
			c.set = index.BuildTags(c.Doc, usedTags(c.Doc))
		}
	})
	return c.set
}

// Resolver returns a resolver over the run's indexes.
func (c *Context) Resolver() *refs.Resolver {
	c.resolverMu.Lock()
	defer c.resolverMu.Unlock()
	if c.resolver == nil {
		c.resolver = refs.NewResolver(c.Index(), nil)
	}
	return c.resolver
}

// usedTags collects "component" plus every tag named by a reference field in
// the document.
func usedTags(doc *gamedef.Document) []string {
	seen := map[string]bool{index.ComponentTag: true}
	for _, ref := range refs.Collect(doc.Raw(), "") {
		if ref.Field.Tag != "" {
			seen[ref.Field.Tag] = true
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
