package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"

	"github.com/bondar-aleksandr/netinspect/internal/app"
	"github.com/bondar-aleksandr/netinspect/internal/broker"
	"github.com/bondar-aleksandr/netinspect/internal/device"
	"github.com/bondar-aleksandr/netinspect/internal/inspect"
	"github.com/bondar-aleksandr/netinspect/internal/testbed"
	"github.com/bondar-aleksandr/netinspect/internal/worker"
)

// inventoryRow is one line of the devices CSV. The canonical platform column
// is "platform"; the older "osType" header is still accepted and loses when
// both are filled.
type inventoryRow struct {
	Platform string `csv:"platform"`
	OsType   string `csv:"osType"`
	IP       string `csv:"ip"`
	Username string `csv:"username"`
	Password string `csv:"password"`
	Secret   string `csv:"secret"`
	Port     int    `csv:"port"`
	CmdFile  string `csv:"cmdFile"`
}

func canonicalPlatform(row *inventoryRow) string {
	if row.Platform != "" {
		return row.Platform
	}
	return row.OsType
}

func main() {
	start := time.Now()
	a, err := app.NewApp("./config/config.yml")
	if err != nil {
		os.Exit(1)
	}

	//graceful shutdown setup
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		a.Logger.Errorf("Caught signal: %q, exiting...", s.String())
		cancel()
	}()

	//Parse CSV with devices info to memory
	a.Logger.Info("Decoding devices data...")
	deviceFile, err := os.Open(filepath.Join(a.Config.Data.InputFolder, a.Config.Data.DevicesData))
	if err != nil {
		a.Logger.Error(err)
		os.Exit(1)
	}
	defer deviceFile.Close()

	var rows []*inventoryRow
	if err := gocsv.UnmarshalFile(deviceFile, &rows); err != nil {
		a.Logger.Errorf("Cannot unmarshal CSV from file because of: %s", err)
		os.Exit(1)
	}
	a.Logger.Info("Decoding devices data done")

	//build command files cache
	cmdFiles := make([]string, 0, len(rows))
	for _, row := range rows {
		cmdFiles = append(cmdFiles, row.CmdFile)
	}
	if err := a.BuildCmdCache(cmdFiles); err != nil {
		os.Exit(1)
	}

	entries := make([]*worker.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &worker.Entry{
			Descriptor: device.Descriptor{
				Platform: canonicalPlatform(row),
				IP:       row.IP,
				Username: row.Username,
				Password: row.Password,
				Secret:   row.Secret,
				Port:     row.Port,
			},
			Commands: a.CmdCache[row.CmdFile],
		})
	}

	// one inspection pipeline shared by all workers; it holds no per-request
	// state, sessions live inside a single Execute call
	insp := inspect.New(a.Logger,
		inspect.WithBuilder(testbed.New(
			testbed.WithGenericTimeout(time.Duration(a.Config.Client.SSHTimeout)*time.Second),
			testbed.WithVerbose(a.Config.Client.Verbose),
		)),
		inspect.WithBroker(broker.New(a.Logger,
			broker.WithTranscriptSink(broker.DirSink{Dir: a.Config.Data.TranscriptFolder}),
		)),
	)

	// initialize cmdWg to sync worker goroutines
	var cmdWg sync.WaitGroup
	cmdWg.Add(len(entries))

	for _, e := range entries {
		w := worker.NewWorker(ctx, e, &cmdWg, a, insp)
		go w.Run()
	}
	cmdWg.Wait()

	//write summary output
	a.Logger.Info("Writing app summary output...")
	resultsFile, err := os.OpenFile(filepath.Join(a.Config.Data.OutputFolder, a.Config.Data.ResultsData), os.O_CREATE|os.O_APPEND|os.O_RDWR, os.ModePerm)
	if err != nil {
		a.Logger.Errorf("Unable to create app summary output file because of: %q", err)
	}
	defer resultsFile.Close()

	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetHeader([]string{"Device", "Platform", "Family", "Commands", "Run Status"})

	for _, e := range entries {
		table.Append([]string{
			e.Descriptor.IP,
			e.Descriptor.Platform,
			string(e.Descriptor.Family()),
			strconv.Itoa(len(e.Commands)),
			e.State,
		})
	}
	table.SetFooter([]string{"", "", "", "", time.Now().Format(time.RFC822)})
	table.Render()
	if _, err = resultsFile.WriteString(tableString.String()); err != nil {
		a.Logger.Errorf("Unable to write app summary because of: %q", err)
	}
	a.Logger.Info("Writing app summary output done")
	fmt.Println(tableString.String())

	a.Logger.Infof("Finished! Time taken: %s", time.Since(start))
}
