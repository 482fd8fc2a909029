package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	flagConfig = "config"
	flagLimit  = "limit"
	flagOutput = "output"

	defaultConfigPath = "~/.spider-trigger/config.yaml"
)

var cliFlagOutput = &cli.StringFlag{
	Name:    flagOutput,
	Aliases: []string{"o"},
	Usage:   "Return output in another format. Supported formats: table, json",
	Value:   "table",
}

func validateOutputFormat(outputFormat string) error {
	switch strings.ToLower(outputFormat) {
	case "table":
	case "json":
	default:
		return errors.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}
