package types

// Context interns lowered TypeInfo descriptors, keyed by their canonical
// string rendering, so that Create called twice with the same logical
// type returns descriptors sharing identical runtime facts by
// construction (rather than merely comparing equal) — go-corset's
// typeChecker caches in a similar way to keep repeated lookups cheap.
type Context struct {
	aliases  map[string]TypeInfo
	structs  map[string]RuntimeLayout
	interned map[string]TypeInfo
}

// NewContext constructs an empty type Context.
func NewContext() *Context {
	return &Context{
		aliases:  make(map[string]TypeInfo),
		structs:  make(map[string]RuntimeLayout),
		interned: make(map[string]TypeInfo),
	}
}

// DefineAlias registers name as an alias unfolding to target.
func (c *Context) DefineAlias(name string, target TypeInfo) {
	c.aliases[name] = target
}

// DefineStructLayout registers the runtime layout of a monomorphised or
// plain struct under its (possibly mangled) name.
func (c *Context) DefineStructLayout(name string, layout RuntimeLayout) {
	c.structs[name] = layout
}

func (c *Context) resolveCustom(name string) (RuntimeLayout, error) {
	if layout, ok := c.structs[name]; ok {
		return layout, nil
	}
	return RuntimeLayout{}, &UnresolvedCustomError{Name: name}
}

// UnresolvedCustomError reports a Custom type name with no registered
// struct layout or alias target.
type UnresolvedCustomError struct{ Name string }

func (e *UnresolvedCustomError) Error() string {
	return "undefined type name: " + e.Name
}

// Create builds (and interns) the TypeInfo for info: unfolds a Custom
// alias first if one is registered under info.Name, then lowers runtime
// layout facts. Two calls with structurally-equal info return descriptors
// whose Runtime fields are identical, by virtue of sharing the cache
// entry.
func (c *Context) Create(info TypeInfo) (TypeInfo, error) {
	if info.Kind == Custom {
		if alias, ok := c.aliases[info.Name]; ok {
			info = alias
		}
	}
	key := info.String()
	if cached, ok := c.interned[key]; ok {
		return cached, nil
	}
	lowered, err := Lower(info, c.resolveCustom)
	if err != nil {
		return TypeInfo{}, err
	}
	c.interned[key] = lowered
	return lowered, nil
}
