package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecByName(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"plain", SchemaPlain, false},
		{"JSON", SchemaJSON, false},
		{"", SchemaJSON, false},
		{"template", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			codec, err := CodecByName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCodec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, codec.Name())
		})
	}
}

func TestDecodeLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{`128`, 128, true},
		{`0`, 0, true},
		{`255`, 255, true},
		{`99.9`, 99, true},
		{`"42"`, 42, true},
		{`" 7 "`, 7, true},
		{`"4.5"`, 0, false},
		{`256`, 0, false},
		{`-1`, 0, false},
		{`true`, 0, false},
		{`null`, 0, false},
		{`{"v":1}`, 0, false},
		{``, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := decodeLevel([]byte(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeState_AllFields(t *testing.T) {
	u, err := JSONCodec{}.DecodeState(
		[]byte(`{"state":"OFF","color":{"r":"1","g":2.7,"b":3},"brightness":50,"effect":"colorfade_slow"}`),
		CapBrightness|CapColor,
	)
	require.NoError(t, err)

	require.NotNil(t, u.On)
	assert.False(t, *u.On)
	require.NotNil(t, u.Color)
	assert.Equal(t, RGB{R: 1, G: 2, B: 3}, *u.Color)
	require.NotNil(t, u.Brightness)
	assert.Equal(t, 50, *u.Brightness)
}

func TestDecodeState_StateMustMatchExactly(t *testing.T) {
	for _, raw := range []string{`{"state":"on"}`, `{"state":true}`, `{"state":1}`, `{}`} {
		u, err := PlainCodec{}.DecodeState([]byte(raw), 0)
		require.NoError(t, err)
		assert.Nil(t, u.On, raw)
	}
}

func TestDecodeState_ColorOutOfRangeSkipped(t *testing.T) {
	u, err := PlainCodec{}.DecodeState([]byte(`{"color":{"r":300,"g":0,"b":0}}`), CapColor)
	require.NoError(t, err)
	assert.Nil(t, u.Color)
}

func TestEncodeCommand_FieldsOnlyWhenRequested(t *testing.T) {
	transition := 3
	level := 10
	cmd := Command{
		State:      PayloadOn,
		Color:      &RGB{R: 1, G: 2, B: 3},
		Transition: &transition,
		Brightness: &level,
		Flash:      FlashShort,
	}

	plain, err := PlainCodec{}.EncodeCommand(cmd)
	require.NoError(t, err)
	assert.Equal(t, `{"state":"ON","color":{"r":1,"g":2,"b":3},"transition":3,"brightness":10}`, string(plain))

	structured, err := JSONCodec{}.EncodeCommand(cmd)
	require.NoError(t, err)
	assert.Equal(t, `{"state":"ON","color":{"r":1,"g":2,"b":3},"transition":3,"brightness":10,"flash":"short"}`, string(structured))

	off, err := JSONCodec{}.EncodeCommand(Command{State: PayloadOff})
	require.NoError(t, err)
	assert.Equal(t, `{"state":"OFF"}`, string(off))
}

func TestCapabilities(t *testing.T) {
	caps := capabilitiesFor(Config{Brightness: true})
	assert.True(t, caps.Has(CapBrightness))
	assert.False(t, caps.Has(CapColor))
	assert.False(t, caps.Has(CapBrightness|CapColor))
	assert.False(t, caps.Has(0))
	assert.Equal(t, "brightness", caps.String())
	assert.Equal(t, "brightness,color", (CapBrightness | CapColor).String())
}
