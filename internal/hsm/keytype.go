package hsm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
)

// Key type codes accepted by the LMK wrapping functions.
const (
	KeyTypeZPK  = "001"
	KeyTypeTAK  = "003"
	KeyTypeBDK  = "009"
	KeyTypeZEK  = "00A"
	KeyTypeIPEK = "302"
	KeyTypeTPK  = "70D"
	KeyTypeTEK  = "70A"
	KeyTypeTMK  = "70B"
)

// KeyType describes a key type and the LMK variant that separates it.
type KeyType struct {
	Code      string
	Name      string
	VariantID int
}

func (kt KeyType) String() string {
	return fmt.Sprintf("%s (%s)", kt.Code, kt.Name)
}

// variantMap holds the byte XORed into the first LMK byte for each variant.
var variantMap = map[int]byte{
	1: 0xA6,
	2: 0x5A,
	3: 0x6A,
	4: 0xDE,
	5: 0x2B,
	6: 0x50,
	7: 0x74,
	8: 0x9C,
	9: 0xFA,
}

// schemeVariants are XORed into the first byte of the right LMK half, one per
// key half, for double length keys.
var schemeVariants = [2]byte{0xA6, 0x5A}

var keyTypes = map[string]KeyType{
	KeyTypeZPK:  {Code: KeyTypeZPK, Name: "ZPK", VariantID: 0},
	KeyTypeTAK:  {Code: KeyTypeTAK, Name: "TAK", VariantID: 1},
	KeyTypeBDK:  {Code: KeyTypeBDK, Name: "BDK", VariantID: 2},
	KeyTypeZEK:  {Code: KeyTypeZEK, Name: "ZEK", VariantID: 3},
	KeyTypeIPEK: {Code: KeyTypeIPEK, Name: "IPEK", VariantID: 4},
	KeyTypeTPK:  {Code: KeyTypeTPK, Name: "TPK (DUKPT PIN)", VariantID: 5},
	KeyTypeTEK:  {Code: KeyTypeTEK, Name: "TEK (DUKPT data)", VariantID: 6},
	KeyTypeTMK:  {Code: KeyTypeTMK, Name: "TMK (DUKPT MAC)", VariantID: 7},
}

// LookupKeyType returns the key type registered under code.
func LookupKeyType(code string) (KeyType, error) {
	kt, ok := keyTypes[strings.ToUpper(code)]
	if !ok {
		return KeyType{}, fmt.Errorf("%w: %s", ErrUnknownKeyType, code)
	}

	return kt, nil
}

// KeyTypes lists the supported key types ordered by code.
func KeyTypes() []KeyType {
	out := make([]KeyType, 0, len(keyTypes))
	for _, kt := range keyTypes {
		out = append(out, kt)
	}
	slices.SortFunc(out, func(a, b KeyType) int {
		switch {
		case a.Code < b.Code:
			return -1
		case a.Code > b.Code:
			return 1
		}

		return 0
	})

	return out
}

// KeyTypeForUsage returns the key type a derived DUKPT key is stored under.
func KeyTypeForUsage(usage dukpt.KeyUsage) string {
	switch usage {
	case dukpt.MACRequest, dukpt.MACResponse:
		return KeyTypeTMK
	case dukpt.DataRequest, dukpt.DataResponse:
		return KeyTypeTEK
	default:
		return KeyTypeTPK
	}
}
