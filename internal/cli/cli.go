// Package cli implements spartactl, the offline companion of the results
// gateway: time conversion, result validation, preview ranking and fetching
// standings from a live backend.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/spartakiad/internal/adapters/backend"
	service "github.com/okian/spartakiad/internal/app"
	"github.com/okian/spartakiad/internal/domain/model"
	"github.com/okian/spartakiad/internal/domain/resultvalue"
	"github.com/okian/spartakiad/internal/domain/scoring"
	"github.com/okian/spartakiad/internal/domain/standings"
	"github.com/okian/spartakiad/internal/domain/types"
	"github.com/okian/spartakiad/pkg/logger"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Exit codes.
const (
	ExitInvalid = 1 // a value failed validation
	ExitUsage   = 2 // bad flags or arguments
	ExitIO      = 3 // input or output could not be read or written
	ExitBackend = 4 // the backend failed
)

const (
	verboseFlag = "verbose"
	timeFlag    = "time"
	teamsFlag   = "teams"
	inputFlag   = "input"
	outputFlag  = "output"
	backendFlag = "backend"
	sportFlag   = "sport"
	genderFlag  = "gender"
	timeoutFlag = "timeout"
	maxFlag     = "max-place-points"
	minFlag     = "min-place-points"

	defaultBackendTimeout = 10 * time.Second
)

var build string
var semanticVersion = "v1.0.0" + build

// New builds the spartactl application. Exit codes are not applied by the
// app itself; callers pass Run's error to ExitCode.
func New(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "spartactl",
		Usage:     "Validate, convert and rank Spartakiad results",
		Version:   semanticVersion,
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    verboseFlag,
				Aliases: []string{"v"},
				Usage:   "Log debug output to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool(verboseFlag) {
				return nil
			}
			if err := logger.Init(logger.WithOutput(c.App.ErrWriter)); err != nil {
				return err
			}
			return logger.SetLevelString("debug")
		},
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			timeCommand(),
			validateCommand(),
			rankCommand(),
			fetchCommand(),
		},
	}
}

// Run executes spartactl with args, reports a failure on stderr and returns
// the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := New(stdin, stdout, stderr).RunContext(ctx, args)
	if err == nil {
		return 0
	}
	if msg := err.Error(); msg != "" {
		_, _ = fmt.Fprintln(stderr, msg)
	}
	return ExitCode(err)
}

// ExitCode maps an error returned by the app to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitUsage
}

func commandLogger(c *cli.Context) logger.Logger {
	if c.Bool(verboseFlag) {
		return logger.Named("spartactl")
	}
	return logger.Nop()
}

func timeCommand() *cli.Command {
	return &cli.Command{
		Name:  "time",
		Usage: "Convert typed-in times",
		Subcommands: []*cli.Command{
			{
				Name:      "parse",
				Usage:     "Print the number of seconds of a time such as 1:23.45",
				ArgsUsage: "<time>",
				Action: func(c *cli.Context) error {
					seconds, err := resultvalue.ParseTimeToSeconds(c.Args().First())
					if err != nil {
						return valueExit(err)
					}
					_, err = fmt.Fprintln(c.App.Writer, strconv.FormatFloat(seconds, 'f', -1, 64))
					return err
				},
			},
			{
				Name:      "format",
				Usage:     "Print a time or a number of seconds as H:MM:SS.ss",
				ArgsUsage: "<time|seconds>",
				Action: func(c *cli.Context) error {
					seconds, err := resultvalue.ParseTimeToSeconds(c.Args().First())
					if err != nil {
						return valueExit(err)
					}
					_, err = fmt.Fprintln(c.App.Writer, resultvalue.FormatSeconds(seconds))
					return err
				},
			},
		},
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate a result for a points event, or a time event with --time",
		ArgsUsage: "<value>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: timeFlag, Aliases: []string{"t"}, Usage: "The event is time-based"},
		},
		Action: func(c *cli.Context) error {
			n, err := resultvalue.Normalize(c.Args().First(), c.Bool(timeFlag))
			if err != nil {
				return valueExit(err)
			}
			out := n.TimeResult
			if out == "" {
				out = strconv.FormatFloat(n.OriginalResult, 'f', -1, 64)
			}
			_, err = fmt.Fprintln(c.App.Writer, "ok", out)
			return err
		},
	}
}

func rankCommand() *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "Rank typed-in results from a YAML or JSON file and print standings as YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     inputFlag,
				Aliases:  []string{"i"},
				Usage:    "Path to the entries, or \"-\" for stdin. Either a list of {name, faculty, value} or an object with entries, time_based and team.",
				Required: true,
			},
			&cli.StringFlag{
				Name:    outputFlag,
				Aliases: []string{"o"},
				Usage:   "Where to write the YAML standings. Can be a file path or \"-\" (for stdout).",
				Value:   StdioName,
			},
			&cli.BoolFlag{Name: timeFlag, Aliases: []string{"t"}, Usage: "The event is time-based (lower is better)"},
			&cli.BoolFlag{Name: teamsFlag, Usage: "Also rank faculty teams"},
			&cli.IntFlag{Name: maxFlag, Usage: "Points for first place", Value: 10},
			&cli.IntFlag{Name: minFlag, Usage: "Points for every place past the scored ones", Value: 1},
		},
		Action: func(c *cli.Context) error {
			req, err := readPreviewRequest(c.String(inputFlag), c.App.Reader)
			if err != nil {
				return cli.Exit(fmt.Sprintf("read input: %v", err), ExitIO)
			}
			if c.IsSet(timeFlag) {
				req.TimeBased = c.Bool(timeFlag)
			}
			if c.IsSet(teamsFlag) {
				req.Team = c.Bool(teamsFlag)
			}

			points := scoring.NewPlacePoints(
				scoring.WithMaxPlacePoints(c.Int(maxFlag)),
				scoring.WithMinPlacePoints(c.Int(minFlag)),
			)
			preview := standings.Preview(req, points)
			commandLogger(c).Debug(c.Context, "entries ranked",
				logger.Int("ranked", len(preview.Rows)),
				logger.Int("rejected", len(preview.Errors)),
			)
			return writeYAML(openOutput(c.String(outputFlag), c.App.Writer), preview)
		},
	}
}

func fetchCommand() *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Fetch the standings of one sport from the backend and print them as YAML",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    backendFlag,
				Aliases: []string{"b"},
				Usage:   "Backend API root",
				EnvVars: []string{"SPARTAKIAD_BACKEND_URL"},
				Value:   "http://localhost:8000/api",
			},
			&cli.Int64Flag{Name: sportFlag, Aliases: []string{"s"}, Usage: "Sport type id", Required: true},
			&cli.StringFlag{Name: genderFlag, Aliases: []string{"g"}, Usage: "Gender filter: М or Ж"},
			&cli.DurationFlag{Name: timeoutFlag, Usage: "Backend request timeout", Value: defaultBackendTimeout},
			&cli.StringFlag{
				Name:    outputFlag,
				Aliases: []string{"o"},
				Usage:   "Where to write the YAML standings. Can be a file path or \"-\" (for stdout).",
				Value:   StdioName,
			},
		},
		Action: func(c *cli.Context) error {
			gender, ok := model.ParseGender(c.String(genderFlag))
			if !ok {
				return cli.Exit("invalid gender; must be М or Ж", ExitInvalid)
			}
			log := commandLogger(c)
			client := backend.New(
				backend.WithBaseURL(c.String(backendFlag)),
				backend.WithTimeout(c.Duration(timeoutFlag)),
				backend.WithLogger(log),
			)
			svc := service.New(service.WithBackend(client), service.WithLogger(log))
			ctx := c.Context
			if err := svc.Start(ctx); err != nil {
				return cli.Exit(err.Error(), ExitBackend)
			}
			defer svc.Stop()

			st, err := svc.Standings(ctx, model.ResultsQuery{SportTypeID: c.Int64(sportFlag), Gender: gender})
			if err != nil {
				return cli.Exit(err.Error(), ExitBackend)
			}
			return writeYAML(openOutput(c.String(outputFlag), c.App.Writer), st)
		},
	}
}

// readPreviewRequest decodes entries from YAML or JSON. A top-level list is
// taken as the entries themselves.
func readPreviewRequest(path string, stdin io.Reader) (types.PreviewRequest, error) {
	in, err := openInput(path, stdin)
	if err != nil {
		return types.PreviewRequest{}, err
	}
	defer func() { _ = in.Close() }()

	var node yaml.Node
	if err := yaml.NewDecoder(in).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return types.PreviewRequest{}, errors.New("no entries")
		}
		return types.PreviewRequest{}, err
	}

	var req types.PreviewRequest
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&req.Entries)
	} else {
		err = root.Decode(&req)
	}
	return req, err
}

func writeYAML(w io.WriteCloser, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = w.Close()
		return cli.Exit(fmt.Sprintf("encoding to YAML failed: %v", err), ExitIO)
	}
	if err := enc.Close(); err != nil {
		_ = w.Close()
		return cli.Exit(fmt.Sprintf("encoding to YAML failed on close: %v", err), ExitIO)
	}
	if err := w.Close(); err != nil {
		return cli.Exit(err.Error(), ExitIO)
	}
	return nil
}

func valueExit(err error) error {
	return cli.Exit(fmt.Sprintf("%s: %v", resultvalue.Code(err), err), ExitInvalid)
}
