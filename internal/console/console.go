package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/nerrad567/gray-logic-lightbridge/internal/light"
)

// Lights is the part of the device registry the console drives.
type Lights interface {
	Get(name string) (*light.Controller, error)
	List() []*light.Controller
}

// LineReader supplies input lines. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// Console executes light commands typed by an operator.
type Console struct {
	lights Lights
	out    io.Writer
}

// New creates a console writing its output to out.
func New(lights Lights, out io.Writer) *Console {
	return &Console{lights: lights, out: out}
}

// NewReadline creates a readline instance with tab completion for verbs
// and light names.
func NewReadline(prompt string, lights Lights) (*readline.Instance, error) {
	names := func(string) []string {
		list := lights.List()
		out := make([]string, 0, len(list))
		for _, c := range list {
			out = append(out, c.Name())
		}
		return out
	}

	completer := readline.NewPrefixCompleter(
		readline.PcItem(VerbList),
		readline.PcItem(VerbShow, readline.PcItemDynamic(names)),
		readline.PcItem(VerbOn, readline.PcItemDynamic(names)),
		readline.PcItem(VerbOff, readline.PcItemDynamic(names)),
		readline.PcItem(VerbHelp),
		readline.PcItem(VerbQuit),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return rl, nil
}

// Run reads and executes lines until quit, end of input, or ctx is done.
func (c *Console) Run(ctx context.Context, in LineReader) {
	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := in.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			return
		}

		if quit := c.ExecuteLine(line); quit {
			fmt.Fprintln(c.out, "Exiting...")
			return
		}
	}
}

// ExecuteLine parses and runs one line, printing any error. It reports
// whether the operator asked to quit.
func (c *Console) ExecuteLine(line string) bool {
	cmd, err := Parse(line)
	if err != nil {
		if errors.Is(err, ErrEmptyCommand) {
			return false
		}
		fmt.Fprintf(c.out, "error: %v\n", err)
		if errors.Is(err, ErrUnknownCommand) {
			fmt.Fprintln(c.out, "type 'help' for commands")
		}
		return false
	}

	quit, err := c.Execute(cmd)
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	return quit
}

// Execute runs a parsed command.
func (c *Console) Execute(cmd Command) (quit bool, err error) {
	switch cmd.Verb {
	case VerbList:
		c.printList()
	case VerbShow:
		ctrl, err := c.lights.Get(cmd.Name)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(c.out, FormatState(ctrl.Snapshot()))
	case VerbOn:
		ctrl, err := c.lights.Get(cmd.Name)
		if err != nil {
			return false, err
		}
		ctrl.TurnOn(cmd.On)
		c.printSent(ctrl)
	case VerbOff:
		ctrl, err := c.lights.Get(cmd.Name)
		if err != nil {
			return false, err
		}
		ctrl.TurnOff(cmd.Off)
		c.printSent(ctrl)
	case VerbHelp:
		c.printHelp()
	case VerbQuit:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Verb)
	}
	return false, nil
}

func (c *Console) printSent(ctrl *light.Controller) {
	if ctrl.IsOptimistic() {
		fmt.Fprintf(c.out, "sent to %s (optimistic)\n", ctrl.Name())
		return
	}
	fmt.Fprintf(c.out, "sent to %s, waiting for device state\n", ctrl.Name())
}

func (c *Console) printList() {
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tBRIGHTNESS\tCOLOR\tMODE")
	for _, ctrl := range c.lights.List() {
		st := ctrl.Snapshot()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", st.Name, onOff(st.On), levelString(st.Brightness), colorString(st.Color), mode(st.Optimistic))
	}
	tw.Flush() //nolint:errcheck // Console output
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
Light Bridge Commands:
  list                          - List lights and their state
  show <name>                   - Show one light
  on <name> [options]           - Turn a light on
      brightness=0-255  color=R,G,B  transition=SECONDS  flash=short|long
  off <name> [transition=S]     - Turn a light off
  help                          - Show this help
  quit                          - Exit`)
}

// FormatState renders a state as one console line.
func FormatState(st light.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", st.Name, onOff(st.On))
	if st.Brightness != nil {
		fmt.Fprintf(&b, " brightness=%d", *st.Brightness)
	}
	if st.Color != nil {
		fmt.Fprintf(&b, " color=%s", colorString(st.Color))
	}
	fmt.Fprintf(&b, " (%s", mode(st.Optimistic))
	if st.Source != "" {
		fmt.Fprintf(&b, ", from %s", st.Source)
	}
	b.WriteString(")")
	return b.String()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func mode(optimistic bool) string {
	if optimistic {
		return "optimistic"
	}
	return "confirmed"
}

func levelString(level *int) string {
	if level == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *level)
}

func colorString(c *light.RGB) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B)
}
