package classfile

// Visitor receives class file elements in class-file order:
//
//	VisitClass(header fields)
//	  VisitField(...)   once per field
//	  VisitMethod(...)  once per method
//	  VisitAttribute(...) once per class-level attribute
//	VisitEnd()
//
// Members and attributes are handed out as pointers into the ClassFile, so a
// visitor may rewrite an element in place; anything it leaves alone is
// serialized byte-for-byte.
type Visitor interface {
	VisitClass(cf *ClassFile)
	VisitField(f *Member)
	VisitMethod(m *Member)
	VisitAttribute(a *Attribute)
	VisitEnd(cf *ClassFile)
}

// Accept walks cf and delivers each element to v.
func Accept(cf *ClassFile, v Visitor) {
	v.VisitClass(cf)
	for i := range cf.Fields {
		v.VisitField(&cf.Fields[i])
	}
	for i := range cf.Methods {
		v.VisitMethod(&cf.Methods[i])
	}
	for i := range cf.Attributes {
		v.VisitAttribute(&cf.Attributes[i])
	}
	v.VisitEnd(cf)
}

// NopVisitor implements Visitor with no-ops so callers can embed it and
// override only the events they care about.
type NopVisitor struct{}

func (NopVisitor) VisitClass(*ClassFile)     {}
func (NopVisitor) VisitField(*Member)        {}
func (NopVisitor) VisitMethod(*Member)       {}
func (NopVisitor) VisitAttribute(*Attribute) {}
func (NopVisitor) VisitEnd(*ClassFile)       {}
