package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/fbrpc/pkg/link"
	"github.com/robotalks/fbrpc/pkg/rpc"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *Config
	Conn   *Conn
}

// Conn is a connected device.
type Conn struct {
	Name   string
	Client *rpc.Client
}

// ErrNotConnected is reported by commands requiring a device.
var ErrNotConnected = errors.New("not connected")

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Call is a request issued through the connected client.
type Call func(ctx context.Context, client *rpc.Client) (rpc.Response, error)

// Invoke runs call with the configured timeout and formats the response.
func (s *Shell) Invoke(call Call) (string, error) {
	if s.Conn == nil {
		return "", ErrNotConnected
	}
	ctx := context.Background()
	if s.Config != nil && s.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.Timeout)
		defer cancel()
	}
	resp, err := call(ctx, s.Conn.Client)
	if err != nil {
		return "", err
	}
	return s.FormatResponse(resp)
}

// FormatResponse prints resp as text or JSON.
func (s *Shell) FormatResponse(resp rpc.Response) (string, error) {
	if !s.OutputJSON {
		return resp.String(), nil
	}
	out, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DoCall runs call and prints the result in an ishell command.
func DoCall(c *ishell.Context, call Call) error {
	out, err := ShellFrom(c).Invoke(call)
	if err != nil {
		c.Err(err)
		return err
	}
	c.Println(out)
	return nil
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect dials the device at linkURL.
func (s *Shell) Connect(linkURL string) error {
	ctx := context.Background()
	if s.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Config.Timeout)
		defer cancel()
	}
	stream, err := link.Dial(ctx, linkURL, link.Options{DeviceID: s.Config.DeviceID})
	if err != nil {
		return err
	}
	s.Attach(linkURL, stream)
	return nil
}

// Attach uses an established stream as the device connection.
func (s *Shell) Attach(name string, stream io.ReadWriter) {
	s.Disconnect()
	s.Conn = &Conn{Name: name, Client: rpc.NewClient(stream)}
	if s.Shell != nil {
		s.Shell.SetPrompt(fmt.Sprintf("%s > ", name))
	}
	glog.V(2).Infof("connected %s", name)
}

// Disconnect disconnects current device.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Client.Close()
		s.Conn = nil
		if s.Shell != nil {
			s.Shell.SetPrompt(unconnectedPrompt)
		}
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.Link != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.Link)
		}
		if err := s.Connect(s.Config.Link); err != nil {
			log.Fatalf("connect %q failed: %v", s.Config.Link, err)
		}
	}
	defer s.Disconnect()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd connects a device.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[URL]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			linkURL := s.Config.Link
			if len(c.Args) > 0 {
				linkURL = c.Args[0]
			}
			if err := s.Connect(linkURL); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current device.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
