package zsock

import "github.com/tilinna/z85"

// z85Encode encodes data, whose length must be a multiple of 4.
func z85Encode(data []byte) (string, error) {
	dst := make([]byte, z85.EncodedLen(len(data)))
	n, err := z85.Encode(dst, data)
	if err != nil {
		return "", err
	}
	return string(dst[:n]), nil
}

// z85Decode decodes s, whose length must be a multiple of 5.
func z85Decode(s string) ([]byte, error) {
	dst := make([]byte, z85.DecodedLen(len(s)))
	n, err := z85.Decode(dst, []byte(s))
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
