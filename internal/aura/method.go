package aura

// Method is the single-byte payload discriminator.
type Method byte

const (
	// MethodBinarySemantic encodes a template ID plus slot values.
	MethodBinarySemantic Method = 0x00
	// MethodAuraLite encodes length-prefixed literal text. The 5-byte
	// header means an auralite payload is always 5 bytes larger than
	// the text it carries.
	MethodAuraLite Method = 0x01
	// MethodBrio is reserved for entropy-coded payloads.
	MethodBrio Method = 0x02
	// MethodAuraLiteV2 is reserved for the v2 literal framing.
	MethodAuraLiteV2 Method = 0x03
	// MethodUncompressed passes raw text through untouched.
	MethodUncompressed Method = 0xFF
)

// String returns the stable protocol name of the method.
func (m Method) String() string {
	switch m {
	case MethodBinarySemantic:
		return "binary_semantic"
	case MethodAuraLite:
		return "auralite"
	case MethodBrio:
		return "brio"
	case MethodAuraLiteV2:
		return "aura_lite"
	case MethodUncompressed:
		return "uncompressed"
	default:
		return "unknown"
	}
}

// Reserved reports whether the method is defined but not yet emitted.
func (m Method) Reserved() bool {
	return m == MethodBrio || m == MethodAuraLiteV2
}

// MethodFromByte maps a wire byte to its Method.
func MethodFromByte(b byte) (Method, error) {
	switch m := Method(b); m {
	case MethodBinarySemantic, MethodAuraLite, MethodBrio, MethodAuraLiteV2, MethodUncompressed:
		return m, nil
	default:
		return 0, &UnknownMethodError{Byte: b}
	}
}
