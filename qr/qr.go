/*
Package qr implements the token codec contract with QR codes.

PURPOSE:
  Encode turns a voucher code into a PNG QR image for the document
  renderer; Decode extracts the code from an operator's photo. The
  decoded content of a token is exactly the code string - no metadata,
  no encryption.

DECODE OUTCOMES:
  - voucher.ErrTokenNotFound: the material is not a readable image, or
    no QR code could be located in it
  - voucher.ErrTokenFormat:   a QR code was found but its content is not
    a voucher code

  Photos arrive as JPEG from the chat transport and as PNG from tests;
  both image formats are registered.

SEE ALSO:
  - voucher/codec.go: the contract and round-trip law
*/
package qr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/warp/voucher-engine/voucher"
)

// defaultSize is the pixel edge of generated QR images. Large enough to
// survive PDF embedding and a phone-camera round trip.
const defaultSize = 512

// Codec encodes and decodes voucher codes as QR images.
type Codec struct {
	size int
}

func New() *Codec {
	return &Codec{size: defaultSize}
}

// Encode renders id as a PNG QR image.
func (c *Codec) Encode(id string) ([]byte, error) {
	png, err := qrcode.Encode(id, qrcode.Medium, c.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr for %s: %w", id, err)
	}
	return png, nil
}

// Decode locates a QR code in the supplied image material and validates
// its content as a voucher code.
func (c *Codec) Decode(material []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(material))
	if err != nil {
		return "", fmt.Errorf("unreadable image: %w", voucher.ErrTokenNotFound)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize image: %w", voucher.ErrTokenNotFound)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("no qr code located: %w", voucher.ErrTokenNotFound)
	}

	content := result.GetText()
	if !voucher.ValidID(content) {
		return "", fmt.Errorf("qr content %q: %w", content, voucher.ErrTokenFormat)
	}
	return content, nil
}

var _ voucher.Codec = (*Codec)(nil)
