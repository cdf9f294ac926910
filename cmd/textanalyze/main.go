// Command textanalyze runs text analyzers from the command line.
//
//	textanalyze tokens --type text --config '{"locale":"en","caseConvert":"lower","stopwords":["the"]}' "The quick foxes"
//	textanalyze normalize --type delimiter --format text --config ,
//	textanalyze -C textanalyze.toml index --analyzer english docs/*.txt
//	textanalyze stopwords export --dir ./stopwords --lang en
package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/wizenheimer/textanalysis"
	"github.com/wizenheimer/textanalysis/internal/jsonx"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const envLogLevel = "TEXTANALYZE_LOG_LEVEL"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "textanalyze: %v\n", err)
		os.Exit(1)
	}
}

// env carries what every command needs once flags are parsed.
type env struct {
	cfg      *Config
	logger   *slog.Logger
	registry *textanalysis.Registry
	out      io.Writer
}

func newApp(out io.Writer) *cli.App {
	e := &env{out: out}
	return &cli.App{
		Name:    "textanalyze",
		Usage:   "run text analyzers over input",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-file", Aliases: []string{"C"}, Usage: "path to TOML config file"},
			&cli.StringFlag{Name: "log-level", EnvVars: []string{envLogLevel}, Usage: "debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		},
		Before: e.setup,
		Writer: out,
		Commands: []*cli.Command{
			tokensCommand(e),
			normalizeCommand(e),
			indexCommand(e),
			stopwordsCommand(e),
			versionCommand(e),
		},
	}
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := LoadConfig(c.String("config-file"))
	if err != nil {
		return err
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if err := cfg.Log.adjust(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	e.cfg = cfg
	e.logger = logger
	e.registry = textanalysis.NewRegistry(
		textanalysis.NewResourceCache(cfg.Resolver(logger), logger), logger)
	return nil
}

func analyzerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "analyzer kind", Required: true},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(textanalysis.FormatJSON), Usage: "config format: json or text"},
		&cli.StringFlag{Name: "config", Usage: "analyzer config string"},
	}
}

func analyzerFromFlags(e *env, c *cli.Context) (textanalysis.TokenStream, error) {
	format, err := textanalysis.ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	return e.registry.Get(c.String("type"), format, c.String("config"))
}

// tokenJSON is one line of `tokens` output.
type tokenJSON struct {
	Term      string `json:"term"`
	Start     uint32 `json:"start"`
	End       uint32 `json:"end"`
	Increment uint32 `json:"inc"`
	Payload   string `json:"payload,omitempty"`
}

func tokensCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "print the tokens an analyzer produces",
		ArgsUsage: "[TEXT|-]",
		Flags:     analyzerFlags(),
		Action: func(c *cli.Context) error {
			ts, err := analyzerFromFlags(e, c)
			if err != nil {
				return err
			}

			var data []byte
			if text := c.Args().First(); text != "" && text != "-" {
				data = []byte(text)
			} else if data, err = io.ReadAll(c.App.Reader); err != nil {
				return err
			}
			return writeTokens(e.out, ts, data)
		},
	}
}

func writeTokens(w io.Writer, ts textanalysis.TokenStream, data []byte) error {
	if !ts.Reset(data) {
		return fmt.Errorf("%w (%s)", textanalysis.ErrResetFailed, ts.Kind())
	}
	bw := bufio.NewWriter(w)
	for ts.Next() {
		tok := ts.Token()
		line, err := jsonx.Marshal(tokenJSON{
			Term:      string(tok.Term),
			Start:     tok.Start,
			End:       tok.End,
			Increment: tok.Increment,
			Payload:   string(tok.Payload),
		})
		if err != nil {
			return err
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func normalizeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "normalize",
		Usage: "print the canonical form of an analyzer config",
		Flags: analyzerFlags(),
		Action: func(c *cli.Context) error {
			format, err := textanalysis.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}
			out, err := e.registry.Normalize(c.String("type"), format, c.String("config"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(e.out, out)
			return err
		},
	}
}

func indexCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "index",
		Usage:     "index files with a configured analyzer and print document frequencies",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "analyzer", Aliases: []string{"a"}, Usage: "analyzer name from the config file", Required: true},
			&cli.StringFlag{Name: "field", Value: "body", Usage: "field name recorded in postings"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the encoded index to this file"},
		},
		Action: func(c *cli.Context) error {
			name := c.String("analyzer")
			def, ok := e.cfg.Analyzers[name]
			if !ok {
				return fmt.Errorf("%w: no analyzer %q in config (have %v)",
					textanalysis.ErrUnknownAnalyzer, name, e.cfg.AnalyzerNames())
			}
			ts, err := e.registry.Get(def.Type, textanalysis.Format(def.Format), def.Args)
			if err != nil {
				return err
			}

			idx := textanalysis.NewInvertedIndex(e.logger)
			for i, path := range c.Args().Slice() {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				if err := idx.Add(uint32(i), c.String("field"), ts, data); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			for _, term := range idx.Terms() {
				fmt.Fprintf(e.out, "%s\t%d\n", term, idx.DocFreq(term))
			}

			if path := c.String("output"); path != "" {
				encoded, err := idx.Encode()
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, encoded, 0o644); err != nil {
					return err
				}
				e.logger.Info("index written",
					slog.String("path", path),
					slog.Int("docs", idx.TotalDocs),
					slog.Int("bytes", len(encoded)))
			}
			return nil
		},
	}
}

func stopwordsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "stopwords",
		Usage: "manage stopword directories",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "write the built-in stopword list as <dir>/<lang>/stopwords.txt",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "stopword root", Required: true},
					&cli.StringFlag{Name: "lang", Value: "en", Usage: "language subtag"},
				},
				Action: func(c *cli.Context) error {
					lang := c.String("lang")
					if lang != "en" {
						return fmt.Errorf("%w: no built-in stopwords for %q", textanalysis.ErrStopwords, lang)
					}
					path, err := textanalysis.WriteStopwordFile(c.String("dir"), lang, textanalysis.EnglishStopwords())
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(e.out, path)
					return err
				},
			},
		},
	}
}

func versionCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:        "version",
		Usage:       "print the version",
		Description: "Prints out build version information",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintln(e.out, Version)
			return err
		},
	}
}
