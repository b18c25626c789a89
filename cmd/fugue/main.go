package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"fugue/builtins"
	"fugue/config"
	"fugue/server"
	"fugue/textio"
	"fugue/trace"
	"fugue/types"
	"fugue/vm"
)

const historyFile = ".fugue_history"

var log = commonlog.GetLogger("fugue.client")

type arrayFlags []string

func (a *arrayFlags) String() string {
	return strings.Join(*a, ", ")
}

func (a *arrayFlags) Set(value string) error {
	*a = append(*a, value)
	return nil
}

type options struct {
	configPath  string
	host        string
	port        int
	charset     string
	loads       arrayFlags
	commands    arrayFlags
	verbosity   int
	logFile     string
	trace       bool
	traceFilter string
	batch       bool
	timeout     int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Configuration file (default: fugue/fugue.toml in the user config directory)")
	flag.StringVar(&opts.host, "host", "", "MUD server host")
	flag.IntVar(&opts.port, "port", 23, "MUD server port")
	flag.StringVar(&opts.charset, "charset", "utf-8", "Server character set")
	flag.Var(&opts.loads, "load", "Macro file to load at startup (can be specified multiple times)")
	flag.Var(&opts.commands, "cmd", "Command line to run after startup (can be specified multiple times)")
	flag.IntVar(&opts.verbosity, "v", 0, "Log verbosity")
	flag.StringVar(&opts.logFile, "log", "", "Log file (default: stderr)")
	flag.BoolVar(&opts.trace, "trace", false, "Enable macro call tracing")
	flag.StringVar(&opts.traceFilter, "trace-filter", "", "Trace filter pattern (glob, e.g., 'on_*')")
	flag.BoolVar(&opts.batch, "batch", false, "Run -cmd lines and exit instead of prompting")
	flag.IntVar(&opts.timeout, "timeout", 3, "Seconds to wait for server output in batch mode")
	flag.Parse()

	os.Exit(run(opts))
}

// loadConfig reads the configuration file and lets explicitly set flags
// override it
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Server.Host = opts.host
		case "port":
			cfg.Server.Port = opts.port
		case "charset":
			cfg.Server.Charset = opts.charset
		case "v":
			cfg.Log.Verbosity = opts.verbosity
		case "log":
			cfg.Log.File = opts.logFile
		}
	})
	cfg.Startup.Load = append(cfg.Startup.Load, opts.loads...)
	return cfg, nil
}

// client ties the interpreter to the terminal and the server connection.
// The interpreter is only touched from the prompt goroutine; server output
// goes straight to the terminal writer.
type client struct {
	interp  *vm.Interp
	out     *textio.Writer
	cfg     *config.Config
	conn    *server.Connection
	cancel  context.CancelFunc
	done    chan struct{}
	quit    bool
	charset string
}

func run(opts options) (code int) {
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	ansi := liner.TerminalSupported()
	out := textio.NewWriter(os.Stdout, ansi)
	errs := textio.NewWriter(os.Stderr, ansi)
	it := vm.New(out, errs)

	if err := cfg.Apply(it.Globals()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.trace {
		var filters []string
		if opts.traceFilter != "" {
			filters = strings.Split(opts.traceFilter, ",")
			for i := range filters {
				filters[i] = strings.TrimSpace(filters[i])
			}
		}
		it.SetTracer(trace.New(true, filters, os.Stderr))
		log.Infof("tracing enabled (filters: %v)", filters)
	}

	c := &client{interp: it, out: out, cfg: cfg, charset: cfg.Server.Charset}
	c.registerCommands()
	defer c.disconnect()

	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*vm.InternalError)
			if !ok {
				panic(r)
			}
			log.Errorf("%s", ie)
			fmt.Fprintf(os.Stderr, "%% Internal error: %s\n", ie.Msg)
			code = 2
		}
	}()

	for _, path := range cfg.Startup.Load {
		if r := it.Load(expandHome(path)); r.IsError() {
			it.Report(r.Error, r.Msg)
		}
	}
	for _, line := range cfg.Startup.Commands {
		if c.exec(line) {
			return 0
		}
	}
	if cfg.Server.Host != "" {
		if err := c.connect(cfg.Server.Host, cfg.Server.Port); err != nil {
			it.Report(types.E_IO, err.Error())
		}
	}
	for _, line := range opts.commands {
		if c.exec(line) {
			return 0
		}
	}

	if opts.batch {
		c.wait(time.Duration(opts.timeout) * time.Second)
		return 0
	}
	return c.prompt()
}

// exec runs one command line and reports whether the client should quit
func (c *client) exec(line string) bool {
	c.interp.ExecLine(line)
	return c.quit
}

// prompt reads command lines until EOF or /quit
func (c *client) prompt() int {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt("")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				continue
			}
			if !errors.Is(err, io.EOF) {
				log.Errorf("prompt: %s", err)
			}
			break
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if c.exec(line) {
			break
		}
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// registerCommands adds the builtins that only make sense in the
// interactive client
func (c *client) registerCommands() {
	cmds := c.interp.Commands()
	cmds.Register("quit", func(builtins.Env, string, int) types.Result {
		c.quit = true
		return types.Exit(0)
	})
	cmds.Register("connect", func(env builtins.Env, line string, offset int) types.Result {
		host, port := c.cfg.Server.Host, c.cfg.Server.Port
		args := strings.Fields(line[offset:])
		if len(args) > 0 {
			host = args[0]
		}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return types.Errf(types.E_ARGS, "connect: invalid port %q", args[1])
			}
			port = n
		}
		if host == "" {
			return types.Errf(types.E_ARGS, "connect: usage: /connect host [port]")
		}
		if err := c.connect(host, port); err != nil {
			return types.Errf(types.E_IO, "connect: %v", err)
		}
		return types.Ok(types.True)
	})
	cmds.Register("dc", func(builtins.Env, string, int) types.Result {
		if c.conn == nil {
			return types.Errf(types.E_IO, "dc: not connected")
		}
		c.disconnect()
		return types.Ok(types.True)
	})
}

// connect opens a server connection and starts copying its output to the
// terminal
func (c *client) connect(host string, port int) error {
	c.disconnect()

	ctx, cancel := context.WithCancel(context.Background())
	dialCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	conn, err := server.Dial(dialCtx, host, port, c.charset)
	stop()
	if err != nil {
		cancel()
		return err
	}

	c.conn, c.cancel, c.done = conn, cancel, make(chan struct{})
	c.interp.SetSender(conn)
	c.out.WriteLine(textio.Line{Text: fmt.Sprintf("%% Connected to %s.", conn.RemoteAddr())})

	done := c.done
	go func() {
		defer close(done)
		err := conn.Run(ctx, func(line string) {
			c.out.WriteLine(textio.Line{Text: line})
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.out.WriteLine(textio.Line{Text: fmt.Sprintf("%% Connection to %s lost: %v", conn.RemoteAddr(), err)})
			return
		}
		c.out.WriteLine(textio.Line{Text: fmt.Sprintf("%% Connection to %s closed.", conn.RemoteAddr())})
	}()
	return nil
}

// disconnect closes the current connection, if any, and waits for its
// reader to finish
func (c *client) disconnect() {
	if c.conn == nil {
		return
	}
	c.cancel()
	<-c.done
	c.interp.SetSender(nil)
	c.conn, c.cancel, c.done = nil, nil, nil
}

// wait lets server output arrive for up to d, or until the server closes
func (c *client) wait(d time.Duration) {
	if c.conn == nil {
		return
	}
	select {
	case <-c.done:
	case <-time.After(d):
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
