package main

import (
	"fmt"
	"os"
	"spidertrigger/internal/spider"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// spiderFile is the YAML layout accepted by `spider create`.
type spiderFile struct {
	Spiders []spiderDefinition `yaml:"spiders"`
}

type spiderDefinition struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Enabled     *bool    `yaml:"enabled"`
	Registry    string   `yaml:"registry"`
	Repository  string   `yaml:"repository"`
	Tag         string   `yaml:"tag"`
	Environment []string `yaml:"environment"`
	Cron        string   `yaml:"cron"`
}

func (d spiderDefinition) toSpider() *spider.Spider {
	enabled := true
	if d.Enabled != nil {
		enabled = *d.Enabled
	}
	return &spider.Spider{
		Name:        d.Name,
		Type:        d.Type,
		Enabled:     enabled,
		Registry:    d.Registry,
		Repository:  d.Repository,
		Tag:         d.Tag,
		Environment: d.Environment,
		Cron:        d.Cron,
	}
}

func spiderCreate(c *cli.Context) error {
	// Args
	if c.Args().Len() != 1 {
		return errors.New(
			"spider create requires one argument-- a path to a file containing " +
				"spider definitions",
		)
	}
	filename := c.Args().First()

	// Read and parse the file
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "error reading spider file %s", filename)
	}
	var file spiderFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrapf(err, "error unmarshaling spider file %s", filename)
	}
	if len(file.Spiders) == 0 {
		return errors.Errorf("no spiders defined in %s", filename)
	}

	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, def := range file.Spiders {
		sp := def.toSpider()
		if err := st.CreateSpider(c.Context, sp); err != nil {
			return errors.Wrapf(err, "error creating spider %q", def.Name)
		}
		fmt.Fprintf(c.App.Writer, "Created spider %q with ID %d.\n", sp.Name, sp.ID)
	}
	return nil
}

func spiderEnable(c *cli.Context) error {
	return setSpiderEnabled(c, true)
}

func spiderDisable(c *cli.Context) error {
	return setSpiderEnabled(c, false)
}

func setSpiderEnabled(c *cli.Context, enabled bool) error {
	id, err := spiderIDArg(c)
	if err != nil {
		return err
	}

	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetEnabled(c.Context, id, enabled); err != nil {
		return errors.Wrapf(err, "error updating spider %d", id)
	}

	state := "Disabled"
	if enabled {
		state = "Enabled"
	}
	fmt.Fprintf(c.App.Writer, "%s spider %d.\n", state, id)
	return nil
}

func spiderList(c *cli.Context) error {
	// Args
	if c.Args().Len() != 0 {
		return errors.New("spider list requires no arguments")
	}

	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	spiders, err := st.ListSpiders(c.Context)
	if err != nil {
		return err
	}

	if len(spiders) == 0 {
		fmt.Fprintln(c.App.Writer, "No spiders found.")
		return nil
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("ID", "NAME", "IMAGE", "ENABLED", "CRON")
		for i := range spiders {
			sp := &spiders[i]
			table.AddRow(
				sp.ID,
				sp.Name,
				spider.ImageReference(sp.Registry, sp.Repository, sp.Tag),
				sp.Enabled,
				sp.Cron,
			)
		}
		fmt.Fprintln(c.App.Writer, table)

	case "json":
		return printJSON(c, spiders)
	}

	return nil
}
