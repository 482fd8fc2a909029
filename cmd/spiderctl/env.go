package main

import (
	"encoding/json"
	"fmt"
	"spidertrigger/internal/config"
	"spidertrigger/internal/store"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// runtimeConfig loads the Docker settings from the --config file, if present,
// with DOCKER_* environment overrides applied.
func runtimeConfig(c *cli.Context) (config.RuntimeConfig, error) {
	path, err := homedir.Expand(c.String(flagConfig))
	if err != nil {
		return config.RuntimeConfig{}, errors.Wrap(err, "error locating configuration file")
	}
	cfg, err := config.LoadRuntimeConfig(path)
	if err != nil {
		return config.RuntimeConfig{}, errors.Wrap(err, "error loading runtime configuration")
	}
	return cfg, nil
}

// openStore connects to the spider database described by DATABASE_*.
func openStore(c *cli.Context) (*store.Store, error) {
	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(c.Context, dbCfg)
	if err != nil {
		return nil, errors.Wrap(err, "error opening spider database")
	}
	return st, nil
}

// spiderIDArg reads the single SPIDER_ID argument. Flag parsing stops at the
// first positional argument, so flags given after the ID arrive here as args.
func spiderIDArg(c *cli.Context) (int64, error) {
	for _, arg := range c.Args().Tail() {
		if strings.HasPrefix(arg, "-") {
			return 0, errors.Errorf(
				"%s: flags must precede SPIDER_ID (got %q after the ID)",
				c.Command.Name,
				arg,
			)
		}
	}
	if c.Args().Len() != 1 {
		return 0, errors.Errorf(
			"%s requires one argument-- a spider ID",
			c.Command.Name,
		)
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid spider ID %q", c.Args().First())
	}
	return id, nil
}

func printJSON(c *cli.Context, v any) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "error formatting output")
	}
	fmt.Fprintln(c.App.Writer, string(prettyJSON))
	return nil
}
