package console

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// Verbs understood by the console.
const (
	VerbList = "list"
	VerbShow = "show"
	VerbOn   = "on"
	VerbOff  = "off"
	VerbHelp = "help"
	VerbQuit = "quit"
)

// verbAliases maps shorthand to canonical verbs.
var verbAliases = map[string]string{
	"ls":   VerbList,
	"get":  VerbShow,
	"?":    VerbHelp,
	"exit": VerbQuit,
	"q":    VerbQuit,
}

// Command is one parsed console line.
type Command struct {
	Verb string
	Name string
	On   light.TurnOnOptions
	Off  light.TurnOffOptions
}

// Parse turns a console line into a Command.
//
//	on <name> [brightness=N] [color=R,G,B] [transition=S] [flash=short|long]
//	off <name> [transition=S]
//	list | show <name> | help | quit
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	verb := strings.ToLower(fields[0])
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}
	args := fields[1:]
	cmd := Command{Verb: verb}

	switch verb {
	case VerbList, VerbHelp, VerbQuit:
		if len(args) != 0 {
			return Command{}, fmt.Errorf("%w: %s takes no arguments", ErrUsage, verb)
		}
	case VerbShow:
		if len(args) != 1 {
			return Command{}, fmt.Errorf("%w: show <name>", ErrUsage)
		}
		cmd.Name = args[0]
	case VerbOn:
		if len(args) < 1 {
			return Command{}, fmt.Errorf("%w: on <name> [brightness=N] [color=R,G,B] [transition=S] [flash=short|long]", ErrUsage)
		}
		cmd.Name = args[0]
		opts, err := parseOnOptions(args[1:])
		if err != nil {
			return Command{}, err
		}
		cmd.On = opts
	case VerbOff:
		if len(args) < 1 {
			return Command{}, fmt.Errorf("%w: off <name> [transition=S]", ErrUsage)
		}
		cmd.Name = args[0]
		opts, err := parseOffOptions(args[1:])
		if err != nil {
			return Command{}, err
		}
		cmd.Off = opts
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}

	return cmd, nil
}

func parseOnOptions(args []string) (light.TurnOnOptions, error) {
	var opts light.TurnOnOptions
	for _, arg := range args {
		key, value, err := splitOption(arg)
		if err != nil {
			return opts, err
		}
		switch key {
		case "brightness":
			level, err := parseLevel(key, value)
			if err != nil {
				return opts, err
			}
			opts.Brightness = &level
		case "color", "colour":
			color, err := parseColor(value)
			if err != nil {
				return opts, err
			}
			opts.Color = &color
		case "transition":
			t, err := parseTransition(value)
			if err != nil {
				return opts, err
			}
			opts.Transition = &t
		case "flash":
			kind := light.FlashKind(strings.ToLower(value))
			if !kind.Valid() {
				return opts, fmt.Errorf("%w: flash must be %s or %s", ErrInvalidArgument, light.FlashShort, light.FlashLong)
			}
			opts.Flash = kind
		default:
			return opts, fmt.Errorf("%w: unknown option %q", ErrInvalidArgument, key)
		}
	}
	return opts, nil
}

func parseOffOptions(args []string) (light.TurnOffOptions, error) {
	var opts light.TurnOffOptions
	for _, arg := range args {
		key, value, err := splitOption(arg)
		if err != nil {
			return opts, err
		}
		if key != "transition" {
			return opts, fmt.Errorf("%w: unknown option %q", ErrInvalidArgument, key)
		}
		t, err := parseTransition(value)
		if err != nil {
			return opts, err
		}
		opts.Transition = &t
	}
	return opts, nil
}

func splitOption(arg string) (key, value string, err error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok || key == "" || value == "" {
		return "", "", fmt.Errorf("%w: expected key=value, got %q", ErrInvalidArgument, arg)
	}
	return strings.ToLower(key), value, nil
}

func parseLevel(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n < light.MinLevel || n > light.MaxLevel {
		return 0, fmt.Errorf("%w: %s must be %d-%d", ErrInvalidArgument, name, light.MinLevel, light.MaxLevel)
	}
	return n, nil
}

func parseColor(value string) (light.RGB, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return light.RGB{}, fmt.Errorf("%w: color must be R,G,B", ErrInvalidArgument)
	}
	var c [3]int
	for i, p := range parts {
		n, err := parseLevel("color", strings.TrimSpace(p))
		if err != nil {
			return light.RGB{}, err
		}
		c[i] = n
	}
	return light.RGB{R: c[0], G: c[1], B: c[2]}, nil
}

func parseTransition(value string) (float64, error) {
	t, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(t) || t < 0 || t > light.MaxTransition {
		return 0, fmt.Errorf("%w: transition must be between 0 and %d seconds", ErrInvalidArgument, light.MaxTransition)
	}
	return t, nil
}
