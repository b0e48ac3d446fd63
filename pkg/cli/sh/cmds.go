package sh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/emeter.go/pkg/emeter"
	"github.com/robotalks/emeter.go/pkg/l0/line"
)

// Unescape converts \t, \r, \n and \\ in s.
func Unescape(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			out = append(out, s[i])
			continue
		}
		i++
		switch s[i] {
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'n':
			out = append(out, '\n')
		default:
			out = append(out, s[i])
		}
	}
	return out
}

// ParseLines feeds input through a line assembler and decodes each
// complete line into t. fn is called per line with the parse result. A
// trailing unterminated line is parsed as if terminated.
func ParseLines(input []byte, t *emeter.Telemetry, policy emeter.CommitPolicy, fn func(ln []byte, err error)) {
	var asm line.Assembler
	h := line.HandlerFuncs{
		Line: func(ln []byte) {
			fn(ln, t.ParseLine(ln, policy))
		},
		Error: func(err error) {
			fn(nil, err)
		},
	}
	asm.Feed(input, h)
	if asm.Len() > 0 {
		asm.Feed([]byte{'\n'}, h)
	}
}

var (
	// DecodeCmd decodes decimal tokens to milli-units.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "TOKEN...",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("token expected"))
				return
			}
			for _, tok := range c.Args {
				v, err := line.DecodeMilli([]byte(tok))
				if err != nil {
					c.Printf("%s: %v\n", tok, err)
					continue
				}
				c.Printf("%s: %d\n", tok, v)
			}
		},
	}

	// ParseCmd parses meter lines, \t \r \n escapes are accepted.
	ParseCmd = ishell.Cmd{
		Name:    "parse",
		Aliases: []string{"p"},
		Help:    "LINE",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var t emeter.Telemetry
			ParseLines(Unescape(strings.Join(c.Args, " ")), &t, s.Policy, func(ln []byte, err error) {
				if err != nil {
					c.Printf("%s: %v\n", strconv.Quote(string(ln)), err)
				}
			})
			out, err := s.FormatTelemetry(t)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}

	// LayoutsCmd lists frame mappings.
	LayoutsCmd = ishell.Cmd{
		Name: "layouts",
		Help: "",
		Func: func(c *ishell.Context) {
			for _, name := range emeter.MappingNames() {
				m := emeter.Mappings[name]
				c.Printf("%s:\n  full %v\n  half %v\n", name, m.Full, m.Half)
			}
		},
	}

	// MonitorCmd prints telemetry mirrored over MQTT.
	MonitorCmd = ishell.Cmd{
		Name:    "monitor",
		Aliases: []string{"mon"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			var deviceID string
			if len(c.Args) > 0 {
				deviceID = c.Args[0]
			}
			err := s.StartMonitor(deviceID, func(dev string, t emeter.Telemetry) {
				out, err := s.FormatTelemetry(t)
				if err != nil {
					c.Printf("%s: %v\n", dev, err)
					return
				}
				c.Printf("%s: %s\n", dev, out)
			})
			if err != nil {
				c.Err(err)
				return
			}
			if !s.Interactive {
				// eval only: keep printing until interrupted
				select {}
			}
		},
	}

	// UnmonitorCmd stops monitor.
	UnmonitorCmd = ishell.Cmd{
		Name: "unmonitor",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).StopMonitor()
		},
	}
)
