package types

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// Address is a 20-byte account identifier, rendered as 0x-prefixed hex
// with an EIP-55 mixed-case checksum.
type Address [20]byte

var ZeroAddress = Address{}

var (
	ErrBadAddressLength   = errors.New("address must be 20 bytes of hex")
	ErrBadAddressChecksum = errors.New("address checksum mismatch")
)

// ParseAddress decodes a 0x-prefixed hex address. Mixed-case input is
// validated against the EIP-55 checksum; all-lower or all-upper input is
// accepted without a checksum check.
func ParseAddress(s string) (Address, error) {
	var addr Address

	raw := strings.TrimPrefix(s, "0x")
	if len(raw) != 40 {
		return addr, ErrBadAddressLength
	}

	b, err := hex.DecodeString(raw)
	if err != nil {
		return addr, fmt.Errorf("invalid address hex: %w", err)
	}
	copy(addr[:], b)

	lower := strings.ToLower(raw)
	if raw != lower && raw != strings.ToUpper(raw) {
		if checksumHex(addr) != raw {
			return addr, ErrBadAddressChecksum
		}
	}

	return addr, nil
}

// MustParseAddress is ParseAddress for static addresses in tests and tooling.
func MustParseAddress(s string) Address {
	addr, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func (a Address) String() string {
	return "0x" + checksumHex(a)
}

func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// AddressFromPubKey derives the account address for a secp256k1 public key:
// the low 20 bytes of keccak256 over the uncompressed point (without the
// 0x04 prefix byte).
func AddressFromPubKey(pub *secp256k1.PublicKey) Address {
	var addr Address

	uncompressed := pub.SerializeUncompressed()
	digest := Keccak256(uncompressed[1:])
	copy(addr[:], digest[12:])

	return addr
}

// Keccak256 computes the legacy Keccak-256 digest used for addresses,
// checksums and allow-list leaves.
func Keccak256(chunks ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// checksumHex returns the EIP-55 mixed-case hex encoding without prefix.
func checksumHex(a Address) string {
	lower := hex.EncodeToString(a[:])
	digest := Keccak256([]byte(lower))

	var out bytes.Buffer
	out.Grow(40)
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if c >= 'a' && c <= 'f' {
			// Uppercase when the matching checksum nibble is >= 8.
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out.WriteByte(c)
	}
	return out.String()
}
