package conceal

import (
	"bytes"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/testutil"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/sbox"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/verify"
)

func allByteValues() []byte {
	p := make([]byte, 256)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

func TestConcealSBoxRoundTrip(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	payload := allByteValues()

	out, err := ConcealSBox(carrier, payload)
	require.NoError(t, err)
	require.NoError(t, verify.Structural(out))

	got, err := RevealSBox(out)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	auto, err := RevealAuto(out)
	require.NoError(t, err)
	assert.Equal(t, payload, auto)
}

func TestConcealSBoxTableShape(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	payload := allByteValues() // 256 bytes <= 500, so a 128-entry table

	out, err := ConcealSBox(carrier, payload)
	require.NoError(t, err)

	cf, err := classfile.Parse(out)
	require.NoError(t, err)
	className, err := cf.ThisClassName()
	require.NoError(t, err)
	tableField, _ := DeriveFieldNames(className)

	clinit := cf.ClinitMethod()
	require.NotNil(t, clinit)
	code, err := classfile.ParseCode(cf.CodeAttribute(clinit).Info, cf.Pool)
	require.NoError(t, err)

	table := simulateClinit(cf.Pool, code.Bytecode, className, tableField)
	require.NotNil(t, table, "simulator must recover the emitted table")
	require.Len(t, table, sbox.Size128)
	assert.Equal(t, int32(crc32.ChecksumIEEE(payload)), table[1])
	assert.Equal(t, int32(len(payload)), table[0]^table[127])
}

func TestConcealSBoxInjectedFields(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	out, err := ConcealSBox(carrier, []byte("hi"))
	require.NoError(t, err)

	cf, err := classfile.Parse(out)
	require.NoError(t, err)
	require.Len(t, cf.Fields, 2)

	tableField, checkField := DeriveFieldNames("TestClass")

	name0, err := cf.Pool.Utf8(cf.Fields[0].NameIndex)
	require.NoError(t, err)
	desc0, err := cf.Pool.Utf8(cf.Fields[0].DescriptorIndex)
	require.NoError(t, err)
	assert.Equal(t, tableField, name0)
	assert.Equal(t, "[I", desc0)
	assert.Equal(t, uint16(format.AccPrivate|format.AccStatic|format.AccFinal), cf.Fields[0].AccessFlags)

	name1, err := cf.Pool.Utf8(cf.Fields[1].NameIndex)
	require.NoError(t, err)
	desc1, err := cf.Pool.Utf8(cf.Fields[1].DescriptorIndex)
	require.NoError(t, err)
	assert.Equal(t, checkField, name1)
	assert.Equal(t, "J", desc1)
	assert.Equal(t, uint16(format.AccPublic|format.AccStatic|format.AccFinal), cf.Fields[1].AccessFlags)
}

func TestConcealSBoxDifferentCarriersDifferentNames(t *testing.T) {
	payload := []byte("any payload")
	outA, err := ConcealSBox(testutil.Carrier(testutil.CarrierSpec{Name: "Alpha"}), payload)
	require.NoError(t, err)
	outB, err := ConcealSBox(testutil.Carrier(testutil.CarrierSpec{Name: "Beta"}), payload)
	require.NoError(t, err)

	names := func(b []byte) map[string]bool {
		cf, err := classfile.Parse(b)
		require.NoError(t, err)
		out := map[string]bool{}
		for i := range cf.Fields {
			name, err := cf.Pool.Utf8(cf.Fields[i].NameIndex)
			require.NoError(t, err)
			out[name] = true
		}
		return out
	}
	assert.NotEqual(t, names(outA), names(outB))
}

func TestConcealSBoxNonDeterministic(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	payload := []byte("same payload")

	a, err := ConcealSBox(carrier, payload)
	require.NoError(t, err)
	b, err := ConcealSBox(carrier, payload)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(a, b), "random slots must differ between runs")

	pa, err := RevealSBox(a)
	require.NoError(t, err)
	pb, err := RevealSBox(b)
	require.NoError(t, err)
	assert.Equal(t, pa, pb)
}

func TestConcealSBoxExistingClinit(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass", WithClinit: true})
	payload := []byte("prepended before the original initializer")

	out, err := ConcealSBox(carrier, payload)
	require.NoError(t, err)
	require.NoError(t, verify.Structural(out))

	got, err := RevealSBox(out)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// The original initializer body must still be there, after our prefix.
	cf, err := classfile.Parse(out)
	require.NoError(t, err)
	code, err := classfile.ParseCode(cf.CodeAttribute(cf.ClinitMethod()).Info, cf.Pool)
	require.NoError(t, err)
	// iconst_5; putstatic seed; return
	orig := []byte{0x08, 0xB3}
	idx := bytes.Index(code.Bytecode, orig)
	assert.Greater(t, idx, 0, "original clinit body should survive the prepend")
}

func TestConcealSBoxPackagedClass(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "com/example/Demo"})
	payload := []byte("packaged carrier")

	out, err := ConcealSBox(carrier, payload)
	require.NoError(t, err)
	got, err := RevealSBox(out)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestConcealSBoxPayloadTooLarge(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	_, err := ConcealSBox(carrier, make([]byte, 1013))
	require.ErrorIs(t, err, sbox.ErrPayloadTooLarge)
}

func TestConcealSBoxEmptyPayload(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	out, err := ConcealSBox(carrier, nil)
	require.NoError(t, err)
	got, err := RevealSBox(out)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRevealSBoxCorruptedTable(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	payload := []byte("corrupt me")

	// Build the concealed class by hand with the last table slot flipped, as
	// if the class had been tampered with after concealment.
	cf, err := classfile.Parse(carrier)
	require.NoError(t, err)
	className, err := cf.ThisClassName()
	require.NoError(t, err)
	tableField, checkField := DeriveFieldNames(className)

	table, err := sbox.Encode(payload)
	require.NoError(t, err)
	table[len(table)-1] ^= 0x12345678

	require.NoError(t, cf.AppendField(format.AccPrivate|format.AccStatic|format.AccFinal, tableField, "[I"))
	require.NoError(t, cf.AppendField(format.AccPublic|format.AccStatic|format.AccFinal, checkField, "J"))
	prefix, frames, err := emitClinitPrefix(cf.Pool, className, tableField, checkField, table)
	require.NoError(t, err)
	require.NoError(t, cf.PrependClinit(prefix, frames, prefixMaxStack, prefixMaxLocals))

	_, err = RevealSBox(classfile.Serialize(cf))
	require.Error(t, err)
	assert.True(t, errors.Is(err, sbox.ErrBadLength) || errors.Is(err, sbox.ErrBadChecksum),
		"expected a length or checksum error, got %v", err)
}

func TestRevealSBoxCleanClass(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	_, err := RevealSBox(carrier)
	require.ErrorIs(t, err, ErrNoPayload)
}

func TestRevealAutoCleanClass(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass", WithClinit: true})
	_, err := RevealAuto(carrier)
	require.ErrorIs(t, err, ErrNoPayload)
}

func TestRevealAutoGarbageInput(t *testing.T) {
	_, err := RevealAuto([]byte{0x00, 0x01, 0x02})
	var pe *classfile.ParseError
	require.ErrorAs(t, err, &pe)
}

func TestConcealModes(t *testing.T) {
	carrier := testutil.Carrier(testutil.CarrierSpec{Name: "TestClass"})
	payload := []byte("via the mode switch")

	for _, mode := range []Mode{ModeAttribute, ModeSBox} {
		out, err := Conceal(carrier, payload, mode)
		require.NoError(t, err, "mode %v", mode)

		res, err := Reveal(out)
		require.NoError(t, err, "mode %v", mode)
		assert.Equal(t, payload, res.Payload)
		assert.Equal(t, mode, res.Mode)
	}

	_, err := Conceal(carrier, payload, Mode(42))
	require.Error(t, err)
}
