package conceal

import (
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/internal/format"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/sbox"
	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/verify"
)

// ConcealSBox embeds payload in classBytes as an S-Box table: two static
// fields with names derived from the class name, and a class-initializer
// prefix that populates the table and computes a checksum over every slot at
// load time. The emitted bytes are run through the structural verifier; a
// rejection is fatal and reported with diagnostics.
//
// The operation is non-deterministic: the table's random and noise slots
// differ between invocations while the recovered payload stays identical.
func ConcealSBox(classBytes, payload []byte) ([]byte, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, err
	}
	className, err := cf.ThisClassName()
	if err != nil {
		return nil, err
	}

	table, err := sbox.Encode(payload)
	if err != nil {
		return nil, err
	}

	tableField, checkField := DeriveFieldNames(className)
	if err := cf.AppendField(format.AccPrivate|format.AccStatic|format.AccFinal,
		tableField, format.IntArrayDescriptor); err != nil {
		return nil, err
	}
	if err := cf.AppendField(format.AccPublic|format.AccStatic|format.AccFinal,
		checkField, format.LongDescriptor); err != nil {
		return nil, err
	}

	prefix, frames, err := emitClinitPrefix(cf.Pool, className, tableField, checkField, table)
	if err != nil {
		return nil, err
	}
	if err := cf.PrependClinit(prefix, frames, prefixMaxStack, prefixMaxLocals); err != nil {
		return nil, err
	}

	out := classfile.Serialize(cf)
	if err := verify.Structural(out); err != nil {
		return nil, &VerifyError{Diagnostics: err.Error()}
	}
	return out, nil
}

// RevealSBox recovers a payload hidden by ConcealSBox. Every static int[]
// field is a candidate regardless of its other access flags; for each one the
// class initializer is simulated up to the store into that field, and the
// first recovered table that decodes cleanly wins.
func RevealSBox(classBytes []byte) ([]byte, error) {
	cf, err := classfile.Parse(classBytes)
	if err != nil {
		return nil, err
	}
	className, err := cf.ThisClassName()
	if err != nil {
		return nil, err
	}

	var candidates []string
	for i := range cf.Fields {
		f := &cf.Fields[i]
		if f.AccessFlags&format.AccStatic == 0 {
			continue
		}
		desc, err := cf.Pool.Utf8(f.DescriptorIndex)
		if err != nil || desc != format.IntArrayDescriptor {
			continue
		}
		name, err := cf.Pool.Utf8(f.NameIndex)
		if err != nil {
			continue
		}
		candidates = append(candidates, name)
	}
	if len(candidates) == 0 {
		return nil, ErrNoPayload
	}

	clinit := cf.ClinitMethod()
	if clinit == nil {
		return nil, ErrNoPayload
	}
	codeAttr := cf.CodeAttribute(clinit)
	if codeAttr == nil {
		return nil, ErrNoPayload
	}
	code, err := classfile.ParseCode(codeAttr.Info, cf.Pool)
	if err != nil {
		return nil, ErrNoPayload
	}

	var lastErr error
	for _, fieldName := range candidates {
		table := simulateClinit(cf.Pool, code.Bytecode, className, fieldName)
		if table == nil {
			continue
		}
		payload, err := sbox.Decode(table)
		if err != nil {
			lastErr = err
			continue
		}
		return payload, nil
	}
	if lastErr != nil {
		// A table was recovered but rejected; report why rather than
		// pretending nothing was there.
		return nil, lastErr
	}
	return nil, ErrNoPayload
}
