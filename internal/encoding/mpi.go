package encoding

import (
	"math/big"
	"math/bits"
)

// ReadMPI consumes a multi-precision integer: a 2-byte big-endian bit
// count followed by the value's big-endian octets. See RFC 9580, section
// 3.2.
func ReadMPI(r *Reader) ([]byte, error) {
	bitLen, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes((int(bitLen) + 7) / 8)
}

// ReadMPIBig consumes an MPI and returns it as a big integer.
func ReadMPIBig(r *Reader) (*big.Int, error) {
	b, err := ReadMPI(r)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

// WriteMPI appends the MPI encoding of value to dst. Leading zero octets
// are stripped so the bit count reflects the position of the highest set
// bit.
func WriteMPI(dst, value []byte) []byte {
	for len(value) > 0 && value[0] == 0 {
		value = value[1:]
	}
	bitLen := 0
	if len(value) > 0 {
		bitLen = (len(value)-1)*8 + bits.Len8(value[0])
	}
	dst = PutUint16(dst, uint16(bitLen))
	return append(dst, value...)
}

// WriteMPIBig appends the MPI encoding of n to dst.
func WriteMPIBig(dst []byte, n *big.Int) []byte {
	return WriteMPI(dst, n.Bytes())
}

// PadLeft left-pads b with zeros to size bytes. Fixed-width consumers
// (raw EC scalars, RSA block operations) need the full width even when the
// MPI stripped leading zeros.
func PadLeft(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}
