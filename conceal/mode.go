package conceal

import (
	"errors"
	"fmt"

	"github.com/RohitBharadwaj-rvu/ghost-in-the-bytecode/classfile"
)

// Mode selects a concealment strategy.
type Mode int

const (
	// ModeAttribute stores the payload in a GhostPayload class-level
	// attribute. Smaller overhead, visible to attribute-listing tools.
	ModeAttribute Mode = iota
	// ModeSBox disguises the payload as a cryptographic lookup table
	// materialized by the class initializer. Resistant to static scanning
	// and dead-code elimination.
	ModeSBox
)

func (m Mode) String() string {
	switch m {
	case ModeAttribute:
		return "attribute"
	case ModeSBox:
		return "sbox"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Conceal embeds payload using the selected mode.
func Conceal(classBytes, payload []byte, mode Mode) ([]byte, error) {
	switch mode {
	case ModeSBox:
		return ConcealSBox(classBytes, payload)
	case ModeAttribute:
		return ConcealAttribute(classBytes, payload)
	default:
		return nil, fmt.Errorf("conceal: unknown mode %d", int(mode))
	}
}

// Result is a recovered payload together with the strategy that produced it.
type Result struct {
	Payload []byte
	Mode    Mode
}

// Reveal tries both strategies, S-Box first, and reports which one
// succeeded. Only a parse error on the class itself is terminal; any
// decode-level failure of the S-Box pass triggers the attribute fallback.
func Reveal(classBytes []byte) (Result, error) {
	payload, err := RevealSBox(classBytes)
	if err == nil {
		return Result{Payload: payload, Mode: ModeSBox}, nil
	}
	var pe *classfile.ParseError
	if errors.As(err, &pe) {
		return Result{}, err
	}
	payload, err = RevealAttribute(classBytes)
	if err != nil {
		return Result{}, err
	}
	return Result{Payload: payload, Mode: ModeAttribute}, nil
}

// RevealAuto recovers a payload without knowing the strategy used to hide it.
func RevealAuto(classBytes []byte) ([]byte, error) {
	res, err := Reveal(classBytes)
	if err != nil {
		return nil, err
	}
	return res.Payload, nil
}
