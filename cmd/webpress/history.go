package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vmunix/webpress/internal/events"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent compression events",
	Args:  cobra.NoArgs,
	RunE:  runHistoryCmd,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune <age>",
	Short: "Delete events older than age (e.g. 720h)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyPruneCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	historyCmd.Flags().Duration("since", 0, "Only events newer than this (e.g. 1h)")
	historyCmd.Flags().String("type", "", "Only events of this type (e.g. image.failed)")
}

var errHistoryDisabled = errors.New("event history is disabled (history.enabled = false)")

func openEventLog() (*env, *events.EventLog, error) {
	e, err := loadEnv()
	if err != nil {
		return nil, nil, err
	}
	if !e.cfg.History.IsEnabled() {
		return nil, nil, errHistoryDisabled
	}
	db, err := openHistory(e.cfg.History.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open history %s: %w", e.cfg.History.Path, err)
	}
	e.db = db
	return e, events.NewEventLog(db), nil
}

// historyEntry is one decoded event as printed by history.
type historyEntry struct {
	events.RawEvent
	Event events.Event `json:"event,omitempty"`
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	since, _ := cmd.Flags().GetDuration("since")
	eventType, _ := cmd.Flags().GetString("type")

	registry := events.DefaultRegistry()
	if eventType != "" && !slices.Contains(registry.Types(), eventType) {
		return unknownEventTypeError(eventType, registry.Types())
	}

	e, log, err := openEventLog()
	if err != nil {
		return err
	}
	defer e.Close()

	var raw []events.RawEvent
	switch {
	case eventType != "":
		raw, err = log.ByType(eventType, limit)
	case since > 0:
		raw, err = log.Since(time.Now().Add(-since))
	default:
		raw, err = log.Recent(limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	entries := make([]historyEntry, 0, len(raw))
	for _, r := range raw {
		ev, err := registry.Unmarshal(r)
		if err != nil {
			e.logger.Debug("skipping undecodable event", "id", r.ID, "error", err)
		}
		entries = append(entries, historyEntry{RawEvent: r, Event: ev})
	}

	if jsonOutput {
		printJSON(entries)
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No events")
		return nil
	}

	fmt.Printf("Events (%d):\n\n", len(entries))
	fmt.Printf("  %-16s %-18s %s\n", "TIME", "TYPE", "DETAIL")
	fmt.Println("  " + strings.Repeat("-", 70))
	for _, entry := range entries {
		fmt.Printf("  %-16s %-18s %s\n", humanize.Time(entry.OccurredAt), entry.EventType, describeEvent(entry.Event))
	}
	return nil
}

func unknownEventTypeError(eventType string, known []string) error {
	if s := suggest(eventType, known); s != "" {
		return fmt.Errorf("unknown event type %q (did you mean %q?)", eventType, s)
	}
	return fmt.Errorf("unknown event type %q (known: %s)", eventType, strings.Join(known, ", "))
}

func describeEvent(e events.Event) string {
	switch ev := e.(type) {
	case *events.BatchStarted:
		return fmt.Sprintf("batch %s: %d images -> %s", ev.BatchID, ev.TaskCount, ev.OutputRoot)
	case *events.ImageCompressed:
		return fmt.Sprintf("%s (%s -> %s)", ev.FinalPath,
			humanize.Bytes(uint64(ev.OriginalSize)), humanize.Bytes(uint64(ev.CompressedSize)))
	case *events.ImageFailed:
		return fmt.Sprintf("%s: %s", ev.SourcePath, ev.Reason)
	default:
		return ""
	}
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	age, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid age %q: %w", args[0], err)
	}

	e, log, err := openEventLog()
	if err != nil {
		return err
	}
	defer e.Close()

	n, err := log.Prune(age)
	if err != nil {
		return err
	}
	fmt.Printf("Pruned %d events\n", n)
	return nil
}
