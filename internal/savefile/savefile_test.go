package savefile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"scheduleall/internal/domain"
	"scheduleall/internal/host/sim"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleDocument() Document {
	colony := sim.DemoScenario().Build()
	colony.SetTicks(3 * domain.TicksPerHour)
	pawns := colony.Pawns()
	return Document{
		Header: Header{SessionID: "session-1", Tick: colony.TicksGame()},
		Colony: colony.Export(),
		Ledger: domain.LedgerState{
			LastHour: 2,
			Pawns:    []string{pawns[0].ID()},
			Works:    []string{"Cooking"},
			Values:   []int{3},
		},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves", "colony.sav")
	doc := sampleDocument()
	if err := Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	header, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if header.Format != Format || header.Version != Version || header.SessionID != "session-1" {
		t.Fatalf("unexpected header %+v", header)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(doc.Ledger, got.Ledger); diff != "" {
		t.Fatalf("ledger mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.Colony, got.Colony); diff != "" {
		t.Fatalf("colony mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file removed, stat err %v", err)
	}
}

func TestDecodeRejectsInvalidDocument(t *testing.T) {
	cases := map[string]string{
		"missing ledger": `{"header":{"format":"scheduleall.save","version":1},"colony":{"ticks":0,"pawns":[]}}`,
		"bad hour":       `{"header":{"format":"scheduleall.save","version":1},"colony":{"ticks":0,"pawns":[]},"ledger":{"SA_lastHour":30}}`,
		"wrong format":   `{"header":{"format":"other","version":1},"colony":{"ticks":0,"pawns":[]},"ledger":{"SA_lastHour":0}}`,
		"long schedule":  `{"header":{"format":"scheduleall.save","version":1},"colony":{"ticks":0,"pawns":[{"id":"a","name":"A","schedule":["` + strings.Repeat(`Work","`, 24) + `Work"]}]},"ledger":{"SA_lastHour":0}}`,
	}
	for name, raw := range cases {
		var doc Document
		if err := Decode([]byte(raw), &doc); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestReadRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.sav")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Read(path); err == nil {
		t.Fatalf("expected error reading non-zstd file")
	}
	if _, err := ReadHeader(filepath.Join(t.TempDir(), "absent.sav")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

func TestFailedWriteKeepsPreviousSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "colony.sav")
	doc := sampleDocument()
	if err := Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	// A directory where the temp file should go makes the next write fail.
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	doc.Header.SessionID = "session-2"
	if err := Write(path, doc); err == nil {
		t.Fatalf("expected write to fail")
	}
	header, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if header.SessionID != "session-1" {
		t.Fatalf("expected previous save kept, got %q", header.SessionID)
	}
}
