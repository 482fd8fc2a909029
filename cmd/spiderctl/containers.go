package main

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func containersList(c *cli.Context) error {
	id, err := spiderIDArg(c)
	if err != nil {
		return err
	}

	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}
	limit := c.Int(flagLimit)
	if limit < 0 {
		return errors.Errorf("invalid limit %d", limit)
	}

	st, err := openStore(c)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListContainers(c.Context, id, limit)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintf(c.App.Writer, "No containers found for spider %d.\n", id)
		return nil
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("ID", "CONTAINER", "BATCH", "STATUS", "CREATED")
		for _, rec := range records {
			table.AddRow(
				rec.ID,
				shortID(rec.ContainerID),
				rec.Batch,
				rec.Status,
				rec.CreationTime.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Fprintln(c.App.Writer, table)

	case "json":
		return printJSON(c, records)
	}

	return nil
}

// shortID truncates a Docker container ID the way `docker ps` does.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
