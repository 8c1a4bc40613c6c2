// videoman is the operator's tool for the local video library: list,
// inspect, export and prune files without going through the API.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shortssprint/shortssprint/internal/video"
)

func main() {
	dir := flag.String("dir", envOr("VIDEO_STORAGE_DIR", "uploaded_videos"), "video storage directory")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	store, err := video.NewStore(*dir, logger)
	if err != nil {
		fatal("open store: %v", err)
	}

	args := flag.Args()
	switch args[0] {
	case "list":
		cmdList(store)
	case "stats":
		cmdStats(store)
	case "find":
		if len(args) < 2 {
			fatal("usage: videoman find <term>")
		}
		cmdFind(store, args[1])
	case "delete":
		if len(args) < 2 {
			fatal("usage: videoman delete <filename>")
		}
		cmdDelete(store, args[1])
	case "manifest":
		cmdManifest(store)
	case "cleanup":
		fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
		days := fs.Int("days", 30, "delete videos older than this many days")
		execute := fs.Bool("execute", false, "actually delete; default is a dry run")
		_ = fs.Parse(args[1:])
		cmdCleanup(store, *days, *execute)
	default:
		usage()
		os.Exit(2)
	}
}

func cmdList(store *video.Store) {
	files, err := store.List()
	if err != nil {
		fatal("list: %v", err)
	}
	if len(files) == 0 {
		fmt.Println("no videos stored")
		return
	}
	for _, f := range files {
		fmt.Printf("%-60s %10s  %s\n", f.Filename, humanSize(f.Size), f.ModTime.Format("2006-01-02 15:04:05"))
	}
}

func cmdStats(store *video.Store) {
	stats, err := store.Stats()
	if err != nil {
		fatal("stats: %v", err)
	}
	fmt.Printf("videos: %d\ntotal size: %s\n", stats.Files, humanSize(stats.TotalBytes))
}

func cmdFind(store *video.Store, term string) {
	files, err := store.List()
	if err != nil {
		fatal("find: %v", err)
	}
	matches := 0
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Filename), strings.ToLower(term)) {
			fmt.Printf("%-60s %10s\n", f.Filename, humanSize(f.Size))
			matches++
		}
	}
	if matches == 0 {
		fmt.Printf("no videos matching %q\n", term)
	}
}

func cmdDelete(store *video.Store, name string) {
	if err := store.Remove(name); err != nil {
		fatal("delete: %v", err)
	}
	fmt.Printf("deleted %s\n", name)
}

func cmdManifest(store *video.Store) {
	files, err := store.List()
	if err != nil {
		fatal("manifest: %v", err)
	}
	var total int64
	for _, f := range files {
		total += f.Size
	}
	manifest := map[string]any{
		"generated":        time.Now().Format(time.RFC3339),
		"total_videos":     len(files),
		"total_size_bytes": total,
		"videos":           files,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		fatal("manifest: %v", err)
	}
}

func cmdCleanup(store *video.Store, days int, execute bool) {
	cutoff := time.Now().AddDate(0, 0, -days)
	old, err := store.ListOlderThan(cutoff)
	if err != nil {
		fatal("cleanup: %v", err)
	}
	if len(old) == 0 {
		fmt.Printf("no videos older than %d days\n", days)
		return
	}

	var total int64
	for _, f := range old {
		fmt.Printf("%-60s %10s  %s\n", f.Filename, humanSize(f.Size), f.ModTime.Format("2006-01-02"))
		total += f.Size
	}
	fmt.Printf("%d videos, %s total\n", len(old), humanSize(total))

	if !execute {
		fmt.Println("dry run; pass -execute to delete")
		return
	}
	for _, f := range old {
		if err := store.Remove(f.Filename); err != nil {
			fmt.Fprintf(os.Stderr, "delete %s: %v\n", f.Filename, err)
			continue
		}
		fmt.Printf("deleted %s\n", f.Filename)
	}
}

func humanSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: videoman [-dir path] <command>

commands:
  list                 list stored videos, newest first
  stats                show file count and total size
  find <term>          search filenames
  delete <filename>    remove one video
  manifest             print a JSON manifest to stdout
  cleanup [-days n] [-execute]
                       prune videos older than n days (default 30, dry run)
`)
}
