package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkrank/internal/corpus"
	"github.com/nao1215/linkrank/internal/database"
	"github.com/nao1215/linkrank/internal/graph"
)

// errUnknownURL is returned when the inspected URL is not in the link graph.
var errUnknownURL = errors.New("URL is not part of the link graph")

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Show the links and score of one URL",
		Long: `Inspect shows where a URL sits in the link graph of a corpus: whether it
was crawled, which pages it links to, which pages link to it and its score
in the latest saved ranking run.

Examples:
  # Inspect a URL of the imported documents
  linkrank inspect https://example.com/

  # Inspect a URL of a crawl directory as JSON
  linkrank inspect --corpus ./crawl --json https://example.com/about`,
		Args: cobra.ExactArgs(1),
		RunE: runInspectCmd,
	}

	cmd.Flags().String("corpus", dbCorpusName,
		"Corpus holding the URL: a crawl directory, a configured corpus name or \"db\"")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkrank in current or home directory)")
	cmd.Flags().String("db-dir", "",
		"Directory of the SQLite store (default: XDG data directory)")

	return cmd
}

// URLInfo describes one URL of a corpus.
type URLInfo struct {
	URL      string   `json:"url"`
	Corpus   string   `json:"corpus"`
	Title    string   `json:"title,omitempty"`
	Crawled  bool     `json:"crawled"`
	Dangling bool     `json:"dangling"`
	Outbound []string `json:"outbound"`
	Inbound  []string `json:"inbound"`

	// Score is the URL's score in the latest saved run, nil if none.
	Score *float64 `json:"score,omitempty"`
}

// runInspectCmd executes the inspect command.
func runInspectCmd(cmd *cobra.Command, args []string) error {
	name, err := cmd.Flags().GetString("corpus")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	cf, err := loadConfigFile(cmd)
	if err != nil {
		return err
	}
	cfg, source, err := resolveConfig(cmd, cf, name)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd, cfg.Verbose)
	ctx := commandContext(cmd)

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(cfg.DBDir, opts)
	switch {
	case err == nil:
		defer db.Close()
	case errors.Is(err, database.ErrNotFound) && source != dbCorpusName:
		db = nil
	default:
		return fmt.Errorf("failed to open database: %w", err)
	}

	var info *URLInfo
	if source == dbCorpusName {
		info, err = inspectStored(ctx, db, args[0])
	} else {
		info, err = inspectDir(ctx, source, name, args[0], logger)
	}
	if err != nil {
		return err
	}
	info.Corpus = name

	if db != nil {
		score, ok, err := db.GetScore(ctx, name, info.URL)
		if err != nil {
			return err
		}
		if ok {
			info.Score = &score
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	}
	writeURLInfo(out, info)
	return nil
}

// inspectStored looks url up in the imported documents.
func inspectStored(ctx context.Context, db *database.RankDB, url string) (*URLInfo, error) {
	doc, err := db.GetDocument(ctx, url)
	if err != nil {
		return nil, err
	}
	inbound, err := db.InboundLinks(ctx, url)
	if err != nil {
		return nil, err
	}
	if doc == nil && len(inbound) == 0 {
		return nil, fmt.Errorf("%w: %s", errUnknownURL, url)
	}

	info := &URLInfo{URL: url, Inbound: inbound}
	if doc != nil {
		info.Crawled = true
		info.Title = doc.Title
		info.Outbound = doc.UniqueLinks()
		sort.Strings(info.Outbound)
	}
	info.Dangling = len(info.Outbound) == 0
	return info, nil
}

// inspectDir builds the link graph of a crawl directory and looks url up.
func inspectDir(ctx context.Context, dir, name, url string, logger *slog.Logger) (*URLInfo, error) {
	docs, err := corpus.NewDirSource(dir, corpus.WithName(name), corpus.WithLogger(logger)).Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", name, err)
	}
	g, err := graph.Build(docs)
	if err != nil {
		return nil, err
	}
	if !g.HasVertex(url) {
		return nil, fmt.Errorf("%w: %s", errUnknownURL, url)
	}

	info := &URLInfo{
		URL:      url,
		Crawled:  g.IsCrawled(url),
		Dangling: g.IsDangling(url),
		Outbound: g.OutboundLinks(url),
		Inbound:  inboundLinks(g, url),
	}
	for _, d := range docs {
		if d.URL == url && d.Title != "" {
			info.Title = d.Title
			break
		}
	}
	return info, nil
}

// inboundLinks returns the crawled sources that link to url, sorted.
func inboundLinks(g *graph.LinkGraph, url string) []string {
	var inbound []string
	for _, src := range g.Sources() {
		targets := g.OutboundLinks(src)
		if i := sort.SearchStrings(targets, url); i < len(targets) && targets[i] == url {
			inbound = append(inbound, src)
		}
	}
	return inbound
}

// writeURLInfo prints info in human-readable text format.
func writeURLInfo(out io.Writer, info *URLInfo) {
	fmt.Fprintf(out, "URL:      %s\n", info.URL)
	fmt.Fprintf(out, "Corpus:   %s\n", info.Corpus)
	if info.Title != "" {
		fmt.Fprintf(out, "Title:    %s\n", info.Title)
	}

	status := "crawled"
	if !info.Crawled {
		status = "link target only"
	}
	if info.Dangling {
		status += ", dangling"
	}
	fmt.Fprintf(out, "Status:   %s\n", status)

	if info.Score != nil {
		fmt.Fprintf(out, "Score:    %.8f\n", *info.Score)
	} else {
		fmt.Fprintln(out, "Score:    not ranked (use 'linkrank rank --save')")
	}

	fmt.Fprintf(out, "\nOutbound links (%d):\n", len(info.Outbound))
	for _, u := range info.Outbound {
		fmt.Fprintf(out, "  -> %s\n", u)
	}
	fmt.Fprintf(out, "\nInbound links (%d):\n", len(info.Inbound))
	for _, u := range info.Inbound {
		fmt.Fprintf(out, "  <- %s\n", u)
	}
}
