// session-dump reads the session log database and prints session
// histories, either as a table or as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/s86039924-byte/stress-dost-engine/internal/sessionlog"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to stress_sessions.db")
	sessionID := flag.String("session", "", "dump one session in full")
	last := flag.Int("last", 20, "list N most recent sessions")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: session-dump --db path/to/stress_sessions.db [--session id] [--last N] [--json]")
		os.Exit(2)
	}

	store, err := sessionlog.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *sessionID != "" {
		err = runDetailMode(store, *sessionID, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

func runListMode(store *sessionlog.Store, last int, jsonOut bool) error {
	ids, err := store.SessionIDs()
	if err != nil {
		return err
	}
	if len(ids) > last {
		ids = ids[:last]
	}

	type row struct {
		SessionID string  `json:"session_id"`
		UserID    string  `json:"user_id"`
		State     string  `json:"state"`
		Shown     int     `json:"triggers_shown"`
		Dataset   int     `json:"dataset"`
		Generated int     `json:"generated"`
		Severity  string  `json:"severity"`
		MaxMeter  float64 `json:"max_meter"`
	}

	var rows []row
	for _, id := range ids {
		snaps, err := store.Snapshots(id)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			continue
		}
		final := snaps[len(snaps)-1]
		rows = append(rows, row{
			SessionID: final.SessionID,
			UserID:    final.UserID,
			State:     string(final.State),
			Shown:     final.TriggersShown,
			Dataset:   final.SourceCounts.Dataset,
			Generated: final.SourceCounts.Generated,
			Severity:  final.Severity,
			MaxMeter:  final.Meters.Max(),
		})
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(rows)
	}
	fmt.Printf("%-38s %-12s %-8s %6s %4s %4s %-10s\n",
		"SESSION", "USER", "STATE", "SHOWN", "DS", "GEN", "SEVERITY")
	for _, r := range rows {
		fmt.Printf("%-38s %-12s %-8s %6d %4d %4d %-10s\n",
			r.SessionID, r.UserID, r.State, r.Shown, r.Dataset, r.Generated, r.Severity)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

func runDetailMode(store *sessionlog.Store, sessionID string, jsonOut bool) error {
	snaps, err := store.Snapshots(sessionID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return fmt.Errorf("no snapshots for session %s", sessionID)
	}
	records, err := store.Responses(sessionID)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(struct {
			Snapshots any `json:"snapshots"`
			Responses any `json:"responses"`
		}{snaps, records})
	}

	final := snaps[len(snaps)-1]
	fmt.Printf("session %s user=%s state=%s\n", final.SessionID, final.UserID, final.State)
	fmt.Printf("meters fear=%.3f thoughts=%.3f frustration=%.3f difficulty=%.2f\n",
		final.Meters.Fear, final.Meters.Thoughts, final.Meters.Frustration, final.Difficulty)
	fmt.Printf("triggers shown=%d dataset=%d generated=%d severity=%s\n\n",
		final.TriggersShown, final.SourceCounts.Dataset, final.SourceCounts.Generated, final.Severity)

	for i, rec := range records {
		opt := "-"
		if rec.SelectedOption != nil {
			opt = fmt.Sprintf("%d", *rec.SelectedOption)
		}
		fmt.Printf("%3d q=%d %-12s %-13s %-9s opt=%-2s correct=%-5t delta=%+.3f  %s\n",
			i+1, rec.QuestionIndex, rec.Trigger.Category, rec.Trigger.Kind,
			rec.Trigger.Source, opt, rec.AnswerCorrect, rec.MeterDelta, rec.Trigger.Text)
	}
	return nil
}

// #endregion detail-mode
