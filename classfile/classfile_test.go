package classfile_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/testutil"
)

func TestParseSerializeRoundTrip(t *testing.T) {
	specs := map[string]testutil.CarrierSpec{
		"minimal":       {Name: "TestClass"},
		"packaged":      {Name: "com/example/Demo"},
		"with clinit":   {Name: "TestClass", WithClinit: true},
		"with method":   {Name: "TestClass", WithGreet: true},
		"with attr":     {Name: "TestClass", GhostAttr: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
		"kitchen sink":  {Name: "Carrier", WithClinit: true, WithGreet: true, GhostAttr: []byte{1, 2, 3}},
		"older version": {Name: "TestClass", Major: 49},
	}
	for name, spec := range specs {
		t.Run(name, func(t *testing.T) {
			in := testutil.Carrier(spec)
			cf, err := classfile.Parse(in)
			require.NoError(t, err)
			out := classfile.Serialize(cf)
			require.True(t, bytes.Equal(in, out), "serialize(parse(x)) != x")
		})
	}
}

func TestParseErrors(t *testing.T) {
	valid := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})

	t.Run("short input", func(t *testing.T) {
		_, err := classfile.Parse(valid[:3])
		var pe *classfile.ParseError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte{}, valid...)
		bad[0] = 0xCB
		_, err := classfile.Parse(bad)
		var pe *classfile.ParseError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("unsupported version", func(t *testing.T) {
		bad := append([]byte{}, valid...)
		bad[6], bad[7] = 0x00, 0xFF
		_, err := classfile.Parse(bad)
		require.Error(t, err)
	})

	t.Run("bad pool tag", func(t *testing.T) {
		bad := append([]byte{}, valid...)
		bad[10] = 0x63 // first entry's tag
		_, err := classfile.Parse(bad)
		require.Error(t, err)
	})

	t.Run("truncated body", func(t *testing.T) {
		_, err := classfile.Parse(valid[:len(valid)-10])
		require.Error(t, err)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		bad := append(append([]byte{}, valid...), 0x00)
		_, err := classfile.Parse(bad)
		require.Error(t, err)
	})
}

func TestThisClassName(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "com/example/Demo"}))
	require.NoError(t, err)
	name, err := cf.ThisClassName()
	require.NoError(t, err)
	assert.Equal(t, "com/example/Demo", name)
}

func TestInternUtf8Dedupes(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"}))
	require.NoError(t, err)

	before := cf.Pool.Slots()
	idx1, err := cf.Pool.InternUtf8("GhostPayload")
	require.NoError(t, err)
	idx2, err := cf.Pool.InternUtf8("GhostPayload")
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2)
	assert.Equal(t, before+1, cf.Pool.Slots())

	// Interning an existing entry must not grow the pool either.
	existing, err := cf.Pool.InternUtf8("java/lang/Object")
	require.NoError(t, err)
	assert.LessOrEqual(t, int(existing), before)
	assert.Equal(t, before+1, cf.Pool.Slots())
}

func TestInternLongTakesTwoSlots(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"}))
	require.NoError(t, err)
	before := cf.Pool.Slots()
	_, err = cf.Pool.InternLong(31)
	require.NoError(t, err)
	assert.Equal(t, before+2, cf.Pool.Slots())
}

func TestPoolFull(t *testing.T) {
	pool := &classfile.ConstPool{Entries: make([]classfile.CPEntry, 65534)}
	for i := range pool.Entries {
		pool.Entries[i] = classfile.CPEntry{Tag: 3, Data: []byte{0, 0, 0, byte(i)}}
	}
	_, err := pool.InternUtf8("overflow")
	require.ErrorIs(t, err, classfile.ErrPoolFull)

	// One slot left is still not enough for a Long.
	pool.Entries = pool.Entries[:65533]
	_, err = pool.InternLong(7)
	require.ErrorIs(t, err, classfile.ErrPoolFull)
}

func TestAppendAndRemoveAttribute(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"}))
	require.NoError(t, err)

	require.NoError(t, cf.AppendAttribute("GhostPayload", []byte{1, 2, 3}))
	require.NotNil(t, cf.FindClassAttribute("GhostPayload"))

	// The edited class still parses and carries the attribute through a
	// round trip.
	out := classfile.Serialize(cf)
	cf2, err := classfile.Parse(out)
	require.NoError(t, err)
	attr := cf2.FindClassAttribute("GhostPayload")
	require.NotNil(t, attr)
	assert.Equal(t, []byte{1, 2, 3}, attr.Info)

	assert.Equal(t, 1, cf2.RemoveClassAttributes("GhostPayload"))
	assert.Nil(t, cf2.FindClassAttribute("GhostPayload"))
	assert.Equal(t, 0, cf2.RemoveClassAttributes("GhostPayload"))
}

func TestAppendField(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"}))
	require.NoError(t, err)
	require.NoError(t, cf.AppendField(0x000A, "_T6", "[I"))

	cf2, err := classfile.Parse(classfile.Serialize(cf))
	require.NoError(t, err)
	require.Len(t, cf2.Fields, 1)
	name, err := cf2.Pool.Utf8(cf2.Fields[0].NameIndex)
	require.NoError(t, err)
	assert.Equal(t, "_T6", name)
}

func TestVisitorOrder(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{
		Name: "TestClass", WithClinit: true, WithGreet: true, GhostAttr: []byte{9},
	}))
	require.NoError(t, err)

	var events []string
	v := &recordingVisitor{events: &events, cf: cf}
	classfile.Accept(cf, v)

	assert.Equal(t, []string{
		"class TestClass",
		"field seed",
		"method <init>",
		"method greet",
		"method <clinit>",
		"attribute GhostPayload",
		"end",
	}, events)
}

type recordingVisitor struct {
	classfile.NopVisitor
	events *[]string
	cf     *classfile.ClassFile
}

func (r *recordingVisitor) VisitClass(cf *classfile.ClassFile) {
	name, _ := cf.ThisClassName()
	*r.events = append(*r.events, "class "+name)
}

func (r *recordingVisitor) VisitField(f *classfile.Member) {
	name, _ := r.cf.Pool.Utf8(f.NameIndex)
	*r.events = append(*r.events, "field "+name)
}

func (r *recordingVisitor) VisitMethod(m *classfile.Member) {
	name, _ := r.cf.Pool.Utf8(m.NameIndex)
	*r.events = append(*r.events, "method "+name)
}

func (r *recordingVisitor) VisitAttribute(a *classfile.Attribute) {
	name, _ := r.cf.AttributeName(a)
	*r.events = append(*r.events, "attribute "+name)
}

func (r *recordingVisitor) VisitEnd(*classfile.ClassFile) {
	*r.events = append(*r.events, "end")
}

func TestUnknownAttributePreserved(t *testing.T) {
	ghost := []byte{0x47, 0x50, 0x48, 0x01, 0x00, 0x00, 0x00, 0x01, 0x41}
	in := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass", GhostAttr: ghost})
	cf, err := classfile.Parse(in)
	require.NoError(t, err)
	attr := cf.FindClassAttribute("GhostPayload")
	require.NotNil(t, attr)
	assert.Equal(t, ghost, attr.Info)
	assert.True(t, bytes.Equal(in, classfile.Serialize(cf)))
}

func TestParseErrorUnwrap(t *testing.T) {
	_, err := classfile.Parse([]byte{0xCA, 0xFE})
	var pe *classfile.ParseError
	require.True(t, errors.As(err, &pe))
	assert.NotEmpty(t, pe.Error())
}
