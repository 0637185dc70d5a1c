package aura

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// MaxWireTemplateID is the largest template ID the binary-semantic
// format can carry; it rides in a single byte.
const MaxWireTemplateID = 255

// Remaining wire format limits. Slot counts ride in single bytes, slot
// lengths in two.
const (
	maxWireSlots   = 255
	maxWireSlotLen = 65535
)

func encodeBinarySemantic(templateID uint16, slots []string) ([]byte, error) {
	if templateID > MaxWireTemplateID {
		return nil, &InvalidPayloadError{Reason: fmt.Sprintf("template id %d exceeds wire maximum %d", templateID, MaxWireTemplateID)}
	}
	if len(slots) > maxWireSlots {
		return nil, &InvalidPayloadError{Reason: fmt.Sprintf("slot count %d exceeds wire maximum %d", len(slots), maxWireSlots)}
	}

	size := 3
	for _, slot := range slots {
		if len(slot) > maxWireSlotLen {
			return nil, &InvalidPayloadError{Reason: fmt.Sprintf("slot length %d exceeds wire maximum %d", len(slot), maxWireSlotLen)}
		}
		size += 2 + len(slot)
	}

	payload := make([]byte, 0, size)
	payload = append(payload, byte(MethodBinarySemantic), byte(templateID), byte(len(slots)))
	for _, slot := range slots {
		payload = binary.BigEndian.AppendUint16(payload, uint16(len(slot)))
		payload = append(payload, slot...)
	}
	return payload, nil
}

func decodeBinarySemantic(payload []byte) (uint16, []string, error) {
	if len(payload) < 3 {
		return 0, nil, &DecompressionFailedError{Reason: "binary-semantic payload shorter than 3-byte header"}
	}

	templateID := uint16(payload[1])
	slotCount := int(payload[2])
	slots := make([]string, 0, slotCount)

	pos := 3
	for i := 0; i < slotCount; i++ {
		if pos+2 > len(payload) {
			return 0, nil, &DecompressionFailedError{Reason: fmt.Sprintf("truncated length prefix for slot %d", i)}
		}
		slotLen := int(binary.BigEndian.Uint16(payload[pos : pos+2]))
		pos += 2
		if pos+slotLen > len(payload) {
			return 0, nil, &DecompressionFailedError{Reason: fmt.Sprintf("slot %d declares %d bytes but only %d remain", i, slotLen, len(payload)-pos)}
		}
		slot := payload[pos : pos+slotLen]
		if !utf8.Valid(slot) {
			return 0, nil, &DecompressionFailedError{Reason: fmt.Sprintf("slot %d is not valid UTF-8", i)}
		}
		slots = append(slots, string(slot))
		pos += slotLen
	}

	if pos != len(payload) {
		return 0, nil, &DecompressionFailedError{Reason: fmt.Sprintf("%d trailing bytes after %d slots", len(payload)-pos, slotCount)}
	}
	return templateID, slots, nil
}

func encodeAuraLite(text string) []byte {
	payload := make([]byte, 0, 5+len(text))
	payload = append(payload, byte(MethodAuraLite))
	payload = binary.BigEndian.AppendUint32(payload, uint32(len(text)))
	return append(payload, text...)
}

func decodeAuraLite(payload []byte) (string, error) {
	if len(payload) < 5 {
		return "", &DecompressionFailedError{Reason: "auralite payload shorter than 5-byte header"}
	}

	declared := int(binary.BigEndian.Uint32(payload[1:5]))
	body := payload[5:]
	if declared != len(body) {
		return "", &DecompressionFailedError{Reason: fmt.Sprintf("auralite declares %d bytes but carries %d", declared, len(body))}
	}
	if !utf8.Valid(body) {
		return "", &DecompressionFailedError{Reason: "auralite body is not valid UTF-8"}
	}
	return string(body), nil
}

func encodeUncompressed(text string) []byte {
	payload := make([]byte, 0, 1+len(text))
	payload = append(payload, byte(MethodUncompressed))
	return append(payload, text...)
}

func decodeUncompressed(payload []byte) (string, error) {
	body := payload[1:]
	if !utf8.Valid(body) {
		return "", &DecompressionFailedError{Reason: "uncompressed body is not valid UTF-8"}
	}
	return string(body), nil
}
