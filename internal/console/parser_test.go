package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

func TestParse_Verbs(t *testing.T) {
	tests := []struct {
		line string
		verb string
		name string
	}{
		{"list", VerbList, ""},
		{"  LS  ", VerbList, ""},
		{"show porch", VerbShow, "porch"},
		{"get porch", VerbShow, "porch"},
		{"on porch", VerbOn, "porch"},
		{"off porch", VerbOff, "porch"},
		{"help", VerbHelp, ""},
		{"?", VerbHelp, ""},
		{"quit", VerbQuit, ""},
		{"exit", VerbQuit, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.verb, cmd.Verb)
			assert.Equal(t, tt.name, cmd.Name)
		})
	}
}

func TestParse_OnOptions(t *testing.T) {
	cmd, err := Parse("on porch brightness=128 color=255,120,0 transition=2.5 flash=LONG")
	require.NoError(t, err)

	require.NotNil(t, cmd.On.Brightness)
	assert.Equal(t, 128, *cmd.On.Brightness)
	require.NotNil(t, cmd.On.Color)
	assert.Equal(t, light.RGB{R: 255, G: 120, B: 0}, *cmd.On.Color)
	require.NotNil(t, cmd.On.Transition)
	assert.InDelta(t, 2.5, *cmd.On.Transition, 0.001)
	assert.Equal(t, light.FlashLong, cmd.On.Flash)
}

func TestParse_OffOptions(t *testing.T) {
	cmd, err := Parse("off porch transition=3")
	require.NoError(t, err)
	require.NotNil(t, cmd.Off.Transition)
	assert.InDelta(t, 3.0, *cmd.Off.Transition, 0.001)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		line string
		want error
	}{
		{"", ErrEmptyCommand},
		{"   ", ErrEmptyCommand},
		{"dance", ErrUnknownCommand},
		{"list all", ErrUsage},
		{"show", ErrUsage},
		{"show a b", ErrUsage},
		{"on", ErrUsage},
		{"off", ErrUsage},
		{"on porch brightness=256", ErrInvalidArgument},
		{"on porch brightness=high", ErrInvalidArgument},
		{"on porch color=1,2", ErrInvalidArgument},
		{"on porch color=1,2,300", ErrInvalidArgument},
		{"on porch transition=-1", ErrInvalidArgument},
		{"on porch transition=NaN", ErrInvalidArgument},
		{"on porch transition=1e300", ErrInvalidArgument},
		{"on porch transition=Inf", ErrInvalidArgument},
		{"off porch transition=2147483648", ErrInvalidArgument},
		{"on porch flash=strobe", ErrInvalidArgument},
		{"on porch effect=rainbow", ErrInvalidArgument},
		{"on porch brightness", ErrInvalidArgument},
		{"on porch =5", ErrInvalidArgument},
		{"off porch brightness=5", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, err := Parse(tt.line)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
