package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/quiettype/evernote2obsidian/internal/app/converter"
	"github.com/quiettype/evernote2obsidian/internal/app/exporter"
	"github.com/quiettype/evernote2obsidian/internal/app/vaultscan"
	"github.com/quiettype/evernote2obsidian/internal/config"
	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
	"github.com/quiettype/evernote2obsidian/internal/infra/backupdb"
	"github.com/quiettype/evernote2obsidian/internal/tui/picker"
)

func main() {
	cmd := &cli.Command{
		Name:  "evernote2obsidian",
		Usage: "Convert an evernote-backup archive into an Obsidian vault",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "evernote2obsidian.yaml",
				Sources: cli.EnvVars("EVERNOTE2OBSIDIAN_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "notebooks",
				Usage:  "Pick the notebooks to export and save the selection",
				Action: runNotebooks,
			},
			{
				Name:   "list",
				Usage:  "List notebooks and note counts in the archive",
				Action: runList,
			},
			{
				Name:   "scan",
				Usage:  "Report conversion problems without writing anything",
				Action: runScan,
			},
			{
				Name:   "export",
				Usage:  "Convert the selected notebooks into the vault",
				Action: runExport,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "overwrite", Usage: "Replace files already in the vault"},
					&cli.IntFlag{Name: "jobs", Usage: "Concurrent conversion workers", Value: 0},
				},
			},
			{
				Name:   "scan-vault",
				Usage:  "Check the written vault for broken and ambiguous links",
				Action: runScanVault,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func setup(cmd *cli.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return cfg, nil, err
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cfg, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)
	return cfg, log, nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	db, err := backupdb.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	notebooks, err := db.Notebooks(ctx)
	if err != nil {
		return err
	}
	counts, err := db.NoteCounts(ctx)
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(cfg.Notebooks))
	for _, g := range cfg.Notebooks {
		selected[g] = true
	}
	for _, nb := range notebooks {
		mark := " "
		if selected[nb.GUID] {
			mark = "*"
		}
		name := nb.Name
		if nb.Stack != "" {
			name = nb.Stack + " / " + name
		}
		fmt.Printf("%s %-40s %5d notes  %s\n", mark, name, counts[nb.GUID], nb.GUID)
	}
	return nil
}

func runNotebooks(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	db, err := backupdb.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	notebooks, err := db.Notebooks(ctx)
	if err != nil {
		return err
	}
	counts, err := db.NoteCounts(ctx)
	if err != nil {
		return err
	}

	items := make([]picker.Item, 0, len(notebooks))
	for _, nb := range notebooks {
		items = append(items, picker.Item{
			GUID:  nb.GUID,
			Name:  nb.Name,
			Stack: nb.Stack,
			Notes: counts[nb.GUID],
		})
	}

	selection, ok, err := picker.Run(items, cfg.Notebooks)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("selection unchanged")
		return nil
	}

	cfg.Notebooks = selection
	if err := cfg.Save(cmd.String("config")); err != nil {
		return err
	}
	fmt.Printf("saved %d selected notebooks to %s\n", len(selection), cmd.String("config"))
	return nil
}

func runScan(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	db, err := backupdb.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	notebooks, err := db.Notebooks(ctx)
	if err != nil {
		return err
	}
	selected := make(map[string]bool, len(cfg.Notebooks))
	for _, g := range cfg.Notebooks {
		selected[g] = true
	}

	scanner := converter.NewScanner(cfg.ScanLimits())
	type pending struct {
		folder string
		name   string
		notes  []evernote.Note
	}
	var order []pending
	for _, nb := range notebooks {
		if len(selected) > 0 && !selected[nb.GUID] {
			continue
		}
		notes, err := db.NotesByNotebook(ctx, nb.GUID, cfg.ExportTrash)
		if err != nil {
			return err
		}
		for _, n := range notes {
			scanner.AddKnownNote(n.GUID)
		}
		order = append(order, pending{folder: converter.NotebookFolder(nb), name: nb.Name, notes: notes})
	}

	total := 0
	for _, p := range order {
		for i := range p.notes {
			issues := scanner.ScanNote(p.folder, &p.notes[i])
			if len(issues) == 0 {
				continue
			}
			total += len(issues)
			fmt.Printf("%s / %s\n", p.name, p.notes[i].Title)
			for _, issue := range issues {
				fmt.Printf("  - %s\n", issue)
			}
		}
	}

	collisions := scanner.TitleCollisions()
	titles := make([]string, 0, len(collisions))
	for t := range collisions {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	for _, t := range titles {
		total++
		fmt.Printf("title %q used by %d notes, duplicates will be numbered\n", t, len(collisions[t]))
	}

	fmt.Printf("%d findings\n", total)
	return nil
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	db, err := backupdb.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	jobs := cfg.Jobs
	if n := cmd.Int("jobs"); n > 0 {
		jobs = int(n)
	}

	log.Info("starting export",
		"database", cfg.Database,
		"output", cfg.OutputFolder,
		"notebooks", len(cfg.Notebooks),
		"dialect", string(cfg.Convert.Dialect),
		"jobs", jobs,
		"overwrite", cfg.Overwrite || cmd.Bool("overwrite"))

	exp := exporter.Exporter{
		DB:               db,
		OutputDir:        cfg.OutputFolder,
		NotebookGUIDs:    cfg.Notebooks,
		Overwrite:        cfg.Overwrite || cmd.Bool("overwrite"),
		ExportTrash:      cfg.ExportTrash,
		ExportEmptyNotes: cfg.ExportEmptyNotes,
		PreserveTimes:    cfg.PreserveTimes,
		Jobs:             jobs,
		Options:          cfg.Convert,
		Log:              log,
	}
	stats, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("exported %d notes and %d attachments, skipped %d, %d conversion issues\n",
		stats.Notes, stats.Attachments, stats.Skipped, stats.Issues)
	return nil
}

func runScanVault(ctx context.Context, cmd *cli.Command) error {
	cfg, _, err := setup(cmd)
	if err != nil {
		return err
	}
	rep, err := vaultscan.New().ScanVault(cfg.OutputFolder)
	if err != nil {
		return err
	}

	fmt.Printf("%d notes, %d internal links, %d external links\n",
		rep.Files, rep.InternalLinks, rep.ExternalLinks)
	for _, rel := range rep.EmptyNotes {
		fmt.Printf("empty note: %s\n", rel)
	}
	targets := make([]string, 0, len(rep.NotFound))
	for t := range rep.NotFound {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, t := range targets {
		fmt.Printf("broken link to %q from %v\n", t, rep.NotFound[t])
	}
	for t, matches := range rep.Ambiguous {
		fmt.Printf("ambiguous link %q could be any of %v\n", t, matches)
	}
	return nil
}
