package inference

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// CheckImage verifies that an image result holds a PNG.
func CheckImage(out Output) ([]byte, error) {
	if len(out.Image) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnexpectedOutput)
	}
	if !IsPNG(out.Image) {
		return nil, fmt.Errorf("%w: image is not a png", ErrUnexpectedOutput)
	}
	return out.Image, nil
}

func decodeBase64Image(data string) ([]byte, error) {
	img, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 image: %v", ErrUnexpectedOutput, err)
	}
	return img, nil
}
