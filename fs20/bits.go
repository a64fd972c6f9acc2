// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package fs20

import (
	"errors"
	"strings"
)

// BufferLen is the number of symbols a Buffer can hold. A telegram uses 51 of them.
const BufferLen = 96

// Symbol is one slot of a bit buffer: a data bit or the end marker.
type Symbol byte

// Symbols stored in a Buffer.
const (
	Zero Symbol = 0x0
	One  Symbol = 0x1
	End  Symbol = 0xF // not transmitted, stops the transmitter
)

// ErrOverflow is returned when pushing into a full Buffer.
var ErrOverflow = errors.New("fs20: bit buffer overflow")

// Buffer is a fixed-size sequence of symbols waiting to be transmitted. The zero value is an
// empty buffer ready for use.
type Buffer struct {
	sym [BufferLen]Symbol
	n   int
}

// Reset clears all slots and empties the buffer.
func (b *Buffer) Reset() {
	for i := range b.sym {
		b.sym[i] = Zero
	}
	b.n = 0
}

// Push appends a symbol. If the buffer is full the symbol is dropped and ErrOverflow is
// returned, the buffer contents are left untouched.
func (b *Buffer) Push(s Symbol) error {
	if b.n >= BufferLen {
		return ErrOverflow
	}
	b.sym[b.n] = s
	b.n++
	return nil
}

// PushBit appends One if bit is non-zero, else Zero.
func (b *Buffer) PushBit(bit byte) error {
	if bit != 0 {
		return b.Push(One)
	}
	return b.Push(Zero)
}

// PushByte appends the 8 bits of v, most significant bit first, followed by the parity bit.
func (b *Buffer) PushByte(v byte) error {
	for i := 7; i >= 0; i-- {
		if err := b.PushBit((v >> uint(i)) & 1); err != nil {
			return err
		}
	}
	return b.PushBit(Parity(v))
}

// Len returns the number of symbols pushed since the last Reset.
func (b *Buffer) Len() int { return b.n }

// At returns the symbol in slot i, slots past Len read as Zero.
func (b *Buffer) At(i int) Symbol { return b.sym[i] }

// Symbols returns the pushed symbols. The slice aliases the buffer.
func (b *Buffer) Symbols() []Symbol { return b.sym[:b.n] }

// String renders the pushed symbols as '0', '1' and 'E' for the end marker.
func (b *Buffer) String() string {
	var sb strings.Builder
	for _, s := range b.Symbols() {
		switch s {
		case Zero:
			sb.WriteByte('0')
		case One:
			sb.WriteByte('1')
		case End:
			sb.WriteByte('E')
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// Parity returns the parity bit sent after v on the air: 1 if v has an odd number of bits
// set, 0 otherwise. Data bits plus parity bit thus always carry an even number of ones.
func Parity(v byte) byte {
	var p byte
	for ; v != 0; v >>= 1 {
		p ^= v & 1
	}
	return p
}
