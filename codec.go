package zsock

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
)

// cborEnc uses core deterministic encoding so that equal configs always
// produce identical bytes.
var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	cborEnc, err = encOptions.EncMode()
	if err != nil {
		panic("zsock: CBOR encoder initialization failed: " + err.Error())
	}

	cborDec, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("zsock: CBOR decoder initialization failed: " + err.Error())
	}
}

// canonical is the deterministic CBOR form of a flat config.
func canonical(flat any) []byte {
	data, err := cborEnc.Marshal(flat)
	if err != nil {
		panic(fmt.Sprintf("zsock: encoding %T: %s", flat, err))
	}
	return data
}

func hashFlat(flat any) uint64 {
	return xxhash.Sum64(canonical(flat))
}
