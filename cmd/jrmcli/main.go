// Command jrmcli is a thin operational front end over the jrm façade:
// run a query and render it, execute a script file against a configured
// connection, or bulk-load a CSV. Grounded on johndauphine-dmt's
// cmd/migrate/main.go urfave/cli/v2 shape (one *cli.App, one subcommand
// per operation, a shared --config flag) and its internal/progress
// tracker for the bulk-load command's progress bar.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/jrm-go/jrm"
	"github.com/jrm-go/jrm/drivers/config"
	_ "github.com/jrm-go/jrm/drivers/db/db2"
	_ "github.com/jrm-go/jrm/drivers/db/generic"
	_ "github.com/jrm-go/jrm/drivers/db/mysql"
	_ "github.com/jrm-go/jrm/drivers/db/oracle"
	_ "github.com/jrm-go/jrm/drivers/db/postgres"
	_ "github.com/jrm-go/jrm/drivers/db/spark"
	_ "github.com/jrm-go/jrm/drivers/db/sqlite"
	_ "github.com/jrm-go/jrm/drivers/db/sqlserver"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "jrmcli",
		Usage:   "operational front end for a jrm-configured database",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: "jrm.yaml", Usage: "path to the connections config file"},
			&cli.StringFlag{Name: "conn", Usage: "connection name (defaults to the config's default)"},
		},
		Commands: []*cli.Command{
			{
				Name:      "query",
				Usage:     "run a SELECT and render the result as a table",
				ArgsUsage: "<sql>",
				Action:    runQuery,
			},
			{
				Name:      "script",
				Usage:     "run a SQL script file",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "transaction", Usage: "wrap the whole script in one transaction"},
					&cli.BoolFlag{Name: "continue-on-error", Usage: "keep running after a failing statement (autocommit mode only)"},
				},
				Action: runScript,
			},
			{
				Name:      "load-csv",
				Usage:     "bulk-load a CSV file into a table via generic batched INSERT",
				ArgsUsage: "<table> <path>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "bulk-size", Value: jrm.DefaultBulkSize, Usage: "rows per INSERT statement"},
				},
				Action: runLoadCSV,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "jrmcli:", err)
		os.Exit(1)
	}
}

func openClient(c *cli.Context) (*jrm.Db, func(), error) {
	provider, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	name := c.String("conn")
	if name == "" {
		name = provider.DefaultName()
	}
	desc, err := provider.ConnDescriptor(name)
	if err != nil {
		return nil, nil, err
	}

	pool, err := jrm.NewPoolForBackend(context.Background(), desc, provider)
	if err != nil {
		return nil, nil, err
	}
	pc, err := pool.Acquire(context.Background())
	if err != nil {
		pool.Dispose()
		return nil, nil, err
	}
	cleanup := func() {
		pc.Close()
		pool.Dispose()
	}
	return jrm.NewDb(pc.Client, provider), cleanup, nil
}

func runQuery(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("query requires a SQL statement argument", 1)
	}
	db, cleanup, err := openClient(c)
	if err != nil {
		return err
	}
	defer cleanup()

	res := db.Query(context.Background(), c.Args().First(), nil)
	if res.Status != 0 {
		return cli.Exit(res.Message, 1)
	}
	renderTable(res)
	return nil
}

func renderTable(res *jrm.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, rec := range res.Data {
		row := make(table.Row, len(res.Columns))
		for i, c := range res.Columns {
			row[i], _ = rec.Get(c)
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Printf("(%d rows)\n", len(res.Data))
}

func runScript(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("script requires a file path argument", 1)
	}
	db, cleanup, err := openClient(c)
	if err != nil {
		return err
	}
	defer cleanup()

	res := db.RunScriptFromFile(context.Background(), c.Args().First(), jrm.ScriptOptions{
		Transaction:     c.Bool("transaction"),
		ContinueOnError: c.Bool("continue-on-error"),
	})
	fmt.Println(res.Message)
	if res.Status != 0 {
		return cli.Exit("script failed", 1)
	}
	return nil
}

func runLoadCSV(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("load-csv requires <table> <path> arguments", 1)
	}
	table, path := c.Args().Get(0), c.Args().Get(1)

	db, cleanup, err := openClient(c)
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := readCSVRecords(path)
	if err != nil {
		return err
	}

	tracker := newProgressTracker(int64(len(records)))
	bulkSize := c.Int("bulk-size")
	res := db.Insert(context.Background(), table, records, nil, bulkSize)
	tracker.finish(res.Count)
	if res.Status != 0 {
		return cli.Exit(res.Message, 1)
	}
	return nil
}
