package binpac

// ParseObject is a parsed unit instance: the output of running a unit's
// grammar over bytes. Grounded on the teacher's value.go/tree.go (a
// typed Value union plus a parse tree), collapsed here into one
// ordered-field map since BinPAC units are the only composite parse
// result this compiler's runtime needs to represent (§3 Unit, §4.4).
type ParseObject struct {
	UnitName string
	Fields   map[string]any
	Order    []string
}

func NewParseObject(unitName string) *ParseObject {
	return &ParseObject{UnitName: unitName, Fields: map[string]any{}}
}

// Set records a field value, preserving first-assignment order so a
// debug dump of the parse object reads in declaration order.
func (po *ParseObject) Set(name string, value any) {
	if _, exists := po.Fields[name]; !exists {
		po.Order = append(po.Order, name)
	}
	po.Fields[name] = value
}

func (po *ParseObject) Get(name string) (any, bool) {
	v, ok := po.Fields[name]
	return v, ok
}
