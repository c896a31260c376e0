package light

// JSONCodec is the structured JSON schema. It adds the "flash" field to
// turn-on commands.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return SchemaJSON }

// EncodeCommand serialises cmd. Unrecognised flash kinds are omitted.
func (JSONCodec) EncodeCommand(cmd Command) ([]byte, error) {
	return encodeCommand(cmd, true)
}

// DecodeState parses an inbound state message, reading colour and
// brightness only for capabilities in caps.
func (JSONCodec) DecodeState(payload []byte, caps Capabilities) (Update, error) {
	return decodeState(payload, caps)
}
