package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"

	detectdupes "github.com/mattkeenan/detectdupes/pkg"
)

var (
	pathColor    = color.New(color.FgCyan).SprintFunc()
	deletedColor = color.New(color.FgRed).SprintFunc()
	warnColor    = color.New(color.FgYellow).SprintFunc()
	headerColor  = color.New(color.Bold).SprintFunc()
)

// configureColor applies the auto/always/never color mode
func configureColor(mode string) {
	switch strings.ToLower(mode) {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	}
}

// console prints duplicates as they are found when live is set
type console struct {
	w    io.Writer
	live bool
}

func newConsole(w io.Writer, live bool) *console {
	return &console{w: w, live: live}
}

func (c *console) duplicate(match detectdupes.DuplicateMatch) {
	if !c.live {
		return
	}
	line := fmt.Sprintf("%s already exists as %s [%d bytes]", pathColor(match.Path), match.Canonical, match.Size)
	if match.Deleted {
		line += " " + deletedColor("(deleted)")
	}
	fmt.Fprintln(c.w, line)
}

func (c *console) warning(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", warnColor("Warning,"), msg)
}

// confirmDelete asks on the terminal whether a duplicate may be deleted
func confirmDelete(match detectdupes.DuplicateMatch) bool {
	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("Delete %s (same as %s)", match.Path, match.Canonical),
		IsConfirm: true,
	}

	_, err := prompt.Run()
	if err != nil {
		if err != promptui.ErrAbort {
			fmt.Fprintf(os.Stderr, "confirmation failed: %v\n", err)
		}
		return false
	}
	return true
}

// printSummary prints the closing statistics of a run
func printSummary(w io.Writer, result *detectdupes.Result, hashName string) {
	stats := result.Stats

	fmt.Fprintln(w, strings.Repeat("_", 84))
	fmt.Fprintf(w, "%s %v\n", headerColor("DetectDuplicates finished after"), result.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Checked a total of %d files using %s, calculating %d %s hashes.\n",
		stats.FilesChecked, detectdupes.FormatBytes(stats.BytesChecked), stats.HashesComputed, hashName)
	fmt.Fprintf(w, "Of these, %d files [%.2f%%] using %s [%.2f%%] were duplicates.\n",
		stats.FilesDetected,
		detectdupes.Percent(stats.FilesDetected, stats.FilesChecked),
		detectdupes.FormatBytes(stats.BytesDetected),
		detectdupes.Percent(stats.BytesDetected, stats.BytesChecked))

	if stats.CacheHits > 0 || result.CacheLoaded > 0 {
		fmt.Fprintf(w, "Hash cache: %d loaded, %d hits.\n", result.CacheLoaded, stats.CacheHits)
	}
	if stats.FilesDeleted > 0 || stats.DeleteErrors > 0 {
		fmt.Fprintf(w, "Deleted %d files, %d could not be deleted.\n", stats.FilesDeleted, stats.DeleteErrors)
	}
	if stats.FilesSkipped > 0 || stats.DroppedPlaceholders > 0 {
		fmt.Fprintf(w, "Skipped %d unreadable files, dropped %d from comparison.\n", stats.FilesSkipped, stats.DroppedPlaceholders)
	}
	if result.Interrupted {
		fmt.Fprintln(w, warnColor("The scan was interrupted; results are incomplete."))
	}
}
