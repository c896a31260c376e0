package light

// PlainCodec is the flat state/color/brightness/transition schema.
// It has no flash support.
type PlainCodec struct{}

// Name returns "plain".
func (PlainCodec) Name() string { return SchemaPlain }

// EncodeCommand serialises cmd. Any flash request is dropped.
func (PlainCodec) EncodeCommand(cmd Command) ([]byte, error) {
	return encodeCommand(cmd, false)
}

// DecodeState parses an inbound state message.
func (PlainCodec) DecodeState(payload []byte, caps Capabilities) (Update, error) {
	return decodeState(payload, caps)
}
