package aura

import "fmt"

// UnknownMethodError reports a payload whose leading byte is not a
// defined compression method.
type UnknownMethodError struct {
	Byte byte
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("aura: unknown compression method 0x%02x", e.Byte)
}

// CompressionFailedError reports an input the encoder refused.
type CompressionFailedError struct {
	Reason string
}

func (e *CompressionFailedError) Error() string {
	return "aura: compression failed: " + e.Reason
}

// DecompressionFailedError reports a payload that is structurally
// invalid for its declared method.
type DecompressionFailedError struct {
	Reason string
}

func (e *DecompressionFailedError) Error() string {
	return "aura: decompression failed: " + e.Reason
}

// TemplateNotFoundError reports a binary-semantic payload referencing a
// template ID this node has not registered.
type TemplateNotFoundError struct {
	ID uint16
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("aura: template %d not registered", e.ID)
}

// InvalidPayloadError reports values the wire format cannot represent,
// such as template IDs or slot counts above 255.
type InvalidPayloadError struct {
	Reason string
}

func (e *InvalidPayloadError) Error() string {
	return "aura: invalid payload: " + e.Reason
}
