package classfile_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/testutil"
)

func TestParseCodeRoundTrip(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"}))
	require.NoError(t, err)

	ctor := &cf.Methods[0]
	attr := cf.CodeAttribute(ctor)
	require.NotNil(t, attr)

	code, err := classfile.ParseCode(attr.Info, cf.Pool)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), code.MaxStack)
	assert.Equal(t, uint16(1), code.MaxLocals)
	assert.Len(t, code.Bytecode, 5)
	assert.Empty(t, code.Handlers)

	assert.True(t, bytes.Equal(attr.Info, code.Encode()))
}

func TestPrependClinitCreatesMethod(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"}))
	require.NoError(t, err)
	require.Nil(t, cf.ClinitMethod())

	prefix := []byte{0x00, 0x00, 0x00, 0x00} // nops, already 4-aligned
	require.NoError(t, cf.PrependClinit(prefix, nil, 2, 3))

	cf2, err := classfile.Parse(classfile.Serialize(cf))
	require.NoError(t, err)
	clinit := cf2.ClinitMethod()
	require.NotNil(t, clinit)
	assert.Equal(t, uint16(0x0008), clinit.AccessFlags)

	code, err := classfile.ParseCode(cf2.CodeAttribute(clinit).Info, cf2.Pool)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, prefix...), 0xB1), code.Bytecode)
	assert.Equal(t, uint16(2), code.MaxStack)
	assert.Equal(t, uint16(3), code.MaxLocals)
}

func TestPrependClinitExistingBody(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass", WithClinit: true}))
	require.NoError(t, err)

	clinit := cf.ClinitMethod()
	require.NotNil(t, clinit)
	orig, err := classfile.ParseCode(cf.CodeAttribute(clinit).Info, cf.Pool)
	require.NoError(t, err)

	prefix := []byte{0x00, 0x00, 0x00, 0x00}
	require.NoError(t, cf.PrependClinit(prefix, nil, 4, 2))

	cf2, err := classfile.Parse(classfile.Serialize(cf))
	require.NoError(t, err)
	code, err := classfile.ParseCode(cf2.CodeAttribute(cf2.ClinitMethod()).Info, cf2.Pool)
	require.NoError(t, err)

	assert.Equal(t, append(append([]byte{}, prefix...), orig.Bytecode...), code.Bytecode)
	assert.Equal(t, uint16(4), code.MaxStack, "prefix max wins")
	assert.Equal(t, uint16(2), code.MaxLocals)
	// There is still exactly one <clinit>.
	count := 0
	for i := range cf2.Methods {
		name, nameErr := cf2.Pool.Utf8(cf2.Methods[i].NameIndex)
		require.NoError(t, nameErr)
		if name == "<clinit>" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPrependClinitRejectsUnalignedPrefix(t *testing.T) {
	cf, err := classfile.Parse(testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"}))
	require.NoError(t, err)
	require.Error(t, cf.PrependClinit([]byte{0x00}, nil, 1, 1))
}
