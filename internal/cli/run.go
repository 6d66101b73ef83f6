package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/pcd"
	"github.com/input-output-hk/catalyst-forge-libs/pcd/devfs"
)

// opKind names a scripted session operation.
type opKind string

const (
	opWrite  opKind = "write"
	opRead   opKind = "read"
	opSeek   opKind = "seek"
	opStat   opKind = "stat"
	opReopen opKind = "reopen"
)

// op is one parsed script step.
type op struct {
	kind   opKind
	text   string // write payload
	count  int    // read length
	offset int64  // seek offset
	whence int    // seek origin
}

// parseOp parses write:<text>, read:<n>, seek:<off>[:set|cur|end], stat or
// reopen.
func parseOp(s string) (op, error) {
	name, arg, hasArg := strings.Cut(s, ":")

	switch opKind(name) {
	case opWrite:
		if !hasArg {
			return op{}, fmt.Errorf("%q: write needs a payload", s)
		}
		return op{kind: opWrite, text: arg}, nil

	case opRead:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 {
			return op{}, fmt.Errorf("%q: read needs a non-negative count", s)
		}
		return op{kind: opRead, count: n}, nil

	case opSeek:
		off, origin, _ := strings.Cut(arg, ":")
		offset, err := strconv.ParseInt(off, 10, 64)
		if err != nil {
			return op{}, fmt.Errorf("%q: invalid seek offset: %w", s, err)
		}
		whence, err := parseWhence(origin)
		if err != nil {
			return op{}, fmt.Errorf("%q: %w", s, err)
		}
		return op{kind: opSeek, offset: offset, whence: whence}, nil

	case opStat, opReopen:
		if hasArg {
			return op{}, fmt.Errorf("%q: %s takes no argument", s, name)
		}
		return op{kind: opKind(name)}, nil

	default:
		return op{}, fmt.Errorf("%q: unknown operation %q", s, name)
	}
}

func parseWhence(origin string) (int, error) {
	switch origin {
	case "", "set":
		return io.SeekStart, nil
	case "cur":
		return io.SeekCurrent, nil
	case "end":
		return io.SeekEnd, nil
	default:
		return 0, fmt.Errorf("invalid seek origin %q (must be set, cur or end)", origin)
	}
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var showMetrics bool

	cmd := &cobra.Command{
		Use:   "run OP...",
		Short: "Run a scripted session against the device node",
		Long: `Load the driver, open its /dev node and run each operation in order,
printing one line per operation. Device errors are reported and the script
continues.

Operations:
  write:<text>              write text at the current position
  read:<n>                  read up to n bytes
  seek:<off>[:set|cur|end]  move the position (default origin: set)
  stat                      show the node and a digest of the region
  reopen                    close the session and open a new one`,
		Example: `  pcdctl run write:HelloWorld seek:0 read:5
  pcdctl run seek:510 write:Hello seek:0:end write:x`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, flags, args, showMetrics)
		},
	}

	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "print session metrics after the script")

	return cmd
}

func runScript(cmd *cobra.Command, flags *rootFlags, args []string, showMetrics bool) (err error) {
	ops := make([]op, 0, len(args))
	for _, arg := range args {
		o, err := parseOp(arg)
		if err != nil {
			return err
		}
		ops = append(ops, o)
	}

	env, err := flags.load(cmd)
	if err != nil {
		return err
	}
	defer func() { err = env.unload(err) }()

	f, err := env.host.OpenNode(env.reg.NodePath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	out := cmd.OutOrStdout()
	for _, o := range ops {
		f, err = env.exec(out, f, o)
		if err != nil {
			return err
		}
	}

	if showMetrics {
		return env.metrics.WriteText(out)
	}
	return nil
}

// exec runs o against f and prints its result. Device errors are printed;
// only failures to reopen the node are returned. The returned file replaces f.
func (e *environment) exec(out io.Writer, f devfs.File, o op) (devfs.File, error) {
	switch o.kind {
	case opWrite:
		n, err := f.Write([]byte(o.text))
		if err != nil {
			fmt.Fprintf(out, "write: %s (pos %d)\n", pcd.CodeOf(err), position(f))
			return f, nil
		}
		fmt.Fprintf(out, "write: %d bytes (pos %d)\n", n, position(f))

	case opRead:
		buf := make([]byte, o.count)
		n, err := f.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(out, "read: %s (pos %d)\n", pcd.CodeOf(err), position(f))
			return f, nil
		}
		fmt.Fprintf(out, "read: %d bytes %q (pos %d)\n", n, buf[:n], position(f))

	case opSeek:
		pos, err := f.Seek(o.offset, o.whence)
		if err != nil {
			fmt.Fprintf(out, "seek: %s (pos %d)\n", pcd.CodeOf(err), pos)
			return f, nil
		}
		fmt.Fprintf(out, "seek: pos %d\n", pos)

	case opStat:
		info, err := f.Stat()
		if err != nil {
			fmt.Fprintf(out, "stat: %s\n", pcd.CodeOf(err))
			return f, nil
		}
		fmt.Fprintf(out, "stat: %s %s size=%d checksum=%016x\n",
			info.Name(), info.Mode(), info.Size(), e.reg.Device().Checksum())

	case opReopen:
		if err := f.Close(); err != nil {
			return f, err
		}
		nf, err := e.host.OpenNode(e.reg.NodePath())
		if err != nil {
			return f, err
		}
		fmt.Fprintf(out, "reopen: pos %d\n", position(nf))
		return nf, nil
	}
	return f, nil
}

// position reports the current offset of f.
func position(f devfs.File) int64 {
	if p, ok := f.(interface{ Position() int64 }); ok {
		return p.Position()
	}
	pos, _ := f.Seek(0, io.SeekCurrent)
	return pos
}
