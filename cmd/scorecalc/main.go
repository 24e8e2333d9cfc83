package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Dosada05/fantasy-marathon/middleware"
	"github.com/Dosada05/fantasy-marathon/models"
	"github.com/Dosada05/fantasy-marathon/scoring"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	gameFlag     = "game"
	rulesetsFlag = "rulesets"
	formatFlag   = "format"
	outputFlag   = "output"
	stdoutName   = "-"
)

var version = "v0.1.0-dev"

type scoreReport struct {
	Standings  *models.StandingsResponse `json:"standings" yaml:"standings"`
	Breakdowns []models.ScoreBreakdown   `json:"breakdowns" yaml:"breakdowns"`
}

func scoreGame(gamePath, rulesetsDir string) (*scoreReport, error) {
	f, err := os.Open(gamePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gf, err := decodeGameFile(f)
	if err != nil {
		return nil, err
	}
	rules, err := gf.rules(filepath.Dir(gamePath), rulesetsDir)
	if err != nil {
		return nil, err
	}
	in, rosters, err := gf.input()
	if err != nil {
		return nil, err
	}

	engine, err := scoring.NewEngine(rules)
	if err != nil {
		return nil, err
	}
	standings, breakdowns, err := engine.Standings(in, rosters)
	if err != nil {
		return nil, err
	}

	report := &scoreReport{Standings: standings}
	for _, r := range in.Results {
		report.Breakdowns = append(report.Breakdowns, breakdowns[r.AthleteID])
	}
	return report, nil
}

func writeReport(w io.Writer, report *scoreReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func main() {
	app := &cli.App{
		Name:    "scorecalc",
		Usage:   "Offline scoring of fantasy marathon games",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "score",
				Usage: "Compute standings for a game described in a YAML file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     gameFlag,
						Aliases:  []string{"g"},
						Usage:    "Path to the game file",
						Required: true,
					},
					&cli.StringFlag{
						Name:    rulesetsFlag,
						Usage:   "Directory with versioned scoring rule sets",
						Value:   "./rulesets",
						EnvVars: []string{"RULESETS_DIR"},
					},
					&cli.StringFlag{
						Name:  formatFlag,
						Usage: "Output format: yaml or json",
						Value: "yaml",
					},
					&cli.StringFlag{
						Name:    outputFlag,
						Aliases: []string{"o"},
						Usage:   "Where to write the report. A file path or \"-\" for stdout.",
						Value:   stdoutName,
					},
				},
				Action: func(cCtx *cli.Context) error {
					report, err := scoreGame(cCtx.String(gameFlag), cCtx.String(rulesetsFlag))
					if err != nil {
						return err
					}
					var out io.Writer = os.Stdout
					if path := cCtx.String(outputFlag); path != stdoutName {
						f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
						if err != nil {
							return err
						}
						defer f.Close()
						out = f
					}
					return writeReport(out, report, cCtx.String(formatFlag))
				},
			},
			{
				Name:  "token",
				Usage: "Issue a commissioner token for the write endpoints",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "secret",
						Usage:    "JWT signing secret",
						EnvVars:  []string{"JWT_SECRET_KEY"},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "subject",
						Usage: "Commissioner name recorded in the audit trail",
						Value: "commissioner",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime",
						Value: 12 * time.Hour,
					},
				},
				Action: func(cCtx *cli.Context) error {
					token, err := middleware.GenerateToken(
						[]byte(cCtx.String("secret")),
						cCtx.String("subject"),
						middleware.RoleCommissioner,
						cCtx.Duration("ttl"),
					)
					if err != nil {
						return err
					}
					fmt.Fprintln(cCtx.App.Writer, token)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
