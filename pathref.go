package formstate

// PathRef builds paths in a chain-safe way without string parsing. Every call
// returns a new PathRef, so partial refs can be shared:
//
//	orders := formstate.Root().Field("orders")
//	sku := orders.Index(2).Field("lineItems").Index(0).Field("sku")
type PathRef struct {
	path Path
}

// Root returns an empty PathRef.
func Root() PathRef { return PathRef{} }

// At starts a PathRef from a dotted path.
func At(path string) (PathRef, error) {
	p, err := ParsePath(path)
	if err != nil {
		return PathRef{}, err
	}
	return PathRef{path: p}, nil
}

func (r PathRef) Field(name string) PathRef {
	if name == "" {
		return r
	}
	return PathRef{path: r.path.Append(Key(name))}
}

func (r PathRef) Index(i int) PathRef {
	return PathRef{path: r.path.Append(Index(i))}
}

// Path returns a copy of the built path.
func (r PathRef) Path() Path { return r.path.Append() }

func (r PathRef) String() string { return r.path.String() }
