/*
codec.go - Token codec contract

PURPOSE:
  Defines the boundary between the engine and the scannable-token
  implementation. The codec is a deterministic bijection between a
  voucher code and an opaque payload: the decoded content of a token is
  exactly the code string, with no extra metadata and no encryption.

DECODE TAXONOMY:
  Decode must fail distinctly for two cases the operator experiences
  differently:
    - ErrTokenNotFound: nothing scannable was detected in the material
      (bad photo, no token, unreadable image bytes)
    - ErrTokenFormat:   a token was detected but its content is not a
      voucher code (see ValidID in generator.go)

ROUND-TRIP LAW:
  For every valid generated id: Decode(Encode(id)) == id.

SEE ALSO:
  - qr package: the QR implementation of this contract
*/
package voucher

// Codec turns a voucher code into a scannable payload and back.
type Codec interface {
	// Encode produces the scannable representation of a voucher code.
	Encode(id string) ([]byte, error)

	// Decode extracts the voucher code from raw scanned material.
	// Fails with ErrTokenNotFound or ErrTokenFormat (wrapped).
	Decode(material []byte) (string, error)
}
