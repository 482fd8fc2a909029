package main

import (
	"fmt"
	"spidertrigger/internal/runtime/docker"
	"spidertrigger/internal/trigger"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func triggerSpider(c *cli.Context) error {
	id, err := spiderIDArg(c)
	if err != nil {
		return err
	}

	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	rtCfg, err := runtimeConfig(c)
	if err != nil {
		return err
	}

	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	orchestrator, err := trigger.New(trigger.Config{
		Repositories: st,
		Runtimes:     docker.NewDialer(rtCfg),
		Volumes:      rtCfg.Volumes,
	})
	if err != nil {
		return err
	}

	report := orchestrator.Trigger(c.Context, id)

	switch strings.ToLower(output) {
	case "table":
		fmt.Fprintln(c.App.Writer, reportTable(report))
	case "json":
		if err := printJSON(c, report); err != nil {
			return err
		}
	}

	if !report.OK() {
		return errors.Errorf("spider %d trigger failed: %s", id, report.Failure)
	}
	return nil
}

func reportTable(r *trigger.Report) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	table.AddRow("SPIDER:", r.SpiderID)
	if r.Batch != "" {
		table.AddRow("BATCH:", r.Batch)
	}
	if r.Image != "" {
		table.AddRow("IMAGE:", r.Image)
	}
	if r.ContainerID != "" {
		table.AddRow("CONTAINER:", r.ContainerID)
	}
	if r.Status != "" {
		table.AddRow("STATUS:", r.Status)
	}
	if len(r.Warnings) > 0 {
		table.AddRow("WARNINGS:", strings.Join(r.Warnings, "; "))
	}
	if !r.OK() {
		table.AddRow("FAILURE:", r.Failure)
		table.AddRow("ERROR:", r.Error)
	}
	table.AddRow("DURATION:", r.Duration())
	return table
}
