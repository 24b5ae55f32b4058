package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/sourcecast/core"
	"pkt.systems/sourcecast/internal/persist"
	"pkt.systems/sourcecast/internal/replay"
	"pkt.systems/sourcecast/schema"
)

func newReplayCmd() *cobra.Command {
	var at []int64
	var duration int64
	var mobile bool
	var asJSON bool
	var noAck bool
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Replay a playback data file at the given times",
		Long:  "Replay loads playback data ({\"init\":...,\"inputs\":[...]}) and seeks to each --at time in order, printing the delivered events. Earlier times rewind through the baseline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(at) == 0 {
				return errors.New("at least one --at time is required")
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			uid := schema.SourcecastUID(strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])))
			cast, err := persist.Entry{UID: uid, Title: string(uid), PlaybackData: string(raw)}.Decode()
			if err != nil {
				return err
			}
			player, err := core.NewSourcecastPlayer("cli", cast, core.PlayerOptions{
				Mobile:   mobile,
				Duration: duration,
				Logger:   pslog.Ctx(cmd.Context()),
			})
			if err != nil {
				return err
			}
			for _, skip := range cast.Skipped {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", skip)
			}
			if _, err := player.Play(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range at {
				if t < 0 {
					return fmt.Errorf("invalid time %d", t)
				}
				batch, err := player.Seek(t)
				if err != nil {
					return err
				}
				if err := printBatch(out, core.BatchSnapshot(batch, player.Cursor()), asJSON); err != nil {
					return err
				}
				if state := player.Snapshot().Playback; state != nil && state.Status == schema.PlaybackForcedPaused && !noAck {
					if _, err := player.Acknowledge(); err != nil {
						return err
					}
				}
			}
			snap := player.Snapshot()
			if asJSON {
				return json.NewEncoder(out).Encode(snap)
			}
			_, _ = fmt.Fprintf(out, "--- editor (tab %s)\n", snap.ActiveTab)
			_, err = fmt.Fprintln(out, snap.Editor)
			printDiagnostics(cmd.ErrOrStderr(), player.Diagnostics())
			return err
		},
	}
	cmd.Flags().Int64SliceVar(&at, "at", nil, "playback times in ms (repeatable)")
	cmd.Flags().Int64Var(&duration, "duration", 0, "audio duration in ms; 0 leaves time unbounded")
	cmd.Flags().BoolVar(&mobile, "mobile", false, "use the mobile tab layout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print batches and the final snapshot as JSON")
	cmd.Flags().BoolVar(&noAck, "no-ack", false, "stay paused after a forced pause")
	return cmd
}

func printBatch(w io.Writer, batch schema.BatchSnapshot, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(batch)
	}
	line := fmt.Sprintf("at=%d status=%s cursor=%d delivered=[%s]", batch.At, batch.Status, batch.Cursor, strings.Join(batch.Delivered, ","))
	if batch.Resync {
		line += " resync"
	}
	if batch.Dropped > 0 || batch.Failed > 0 {
		line += fmt.Sprintf(" dropped=%d failed=%d", batch.Dropped, batch.Failed)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func printDiagnostics(w io.Writer, diagnostics []replay.Diagnostic) {
	for _, d := range diagnostics {
		_, _ = fmt.Fprintf(w, "diagnostic: #%d %s at %d: %v\n", d.Index, d.Event.Kind(), d.Event.Time, d.Err)
	}
}
