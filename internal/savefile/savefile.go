// Package savefile reads and writes a session save: a zstd stream holding a
// one-line JSON header followed by the JSON document.
package savefile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"scheduleall/internal/domain"
	"scheduleall/internal/host/sim"
)

const (
	Format  = "scheduleall.save"
	Version = 1
)

var ErrFormat = errors.New("not a schedule save file")

type Header struct {
	Format    string    `json:"format"`
	Version   int       `json:"version"`
	SessionID string    `json:"session_id"`
	Tick      int       `json:"tick"`
	SavedAt   time.Time `json:"saved_at"`
}

type Document struct {
	Header Header             `json:"header"`
	Colony sim.State          `json:"colony"`
	Ledger domain.LedgerState `json:"ledger"`
}

const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["header", "colony", "ledger"],
  "properties": {
    "header": {
      "type": "object",
      "required": ["format", "version"],
      "properties": {
        "format": {"const": "scheduleall.save"},
        "version": {"type": "integer", "minimum": 1},
        "session_id": {"type": "string"},
        "tick": {"type": "integer", "minimum": 0}
      }
    },
    "colony": {
      "type": "object",
      "required": ["ticks", "pawns"],
      "properties": {
        "ticks": {"type": "integer", "minimum": 0},
        "start_hour": {"type": "integer", "minimum": 0, "maximum": 23},
        "pawns": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["id", "name"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "name": {"type": "string"},
              "priorities": {
                "type": ["object", "null"],
                "additionalProperties": {"type": "integer", "minimum": 0}
              },
              "schedule": {
                "type": ["array", "null"],
                "maxItems": 24,
                "items": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "ledger": {
      "type": "object",
      "required": ["SA_lastHour"],
      "properties": {
        "SA_lastHour": {"type": "integer", "minimum": -1, "maximum": 23},
        "SA_Pawns": {"type": ["array", "null"], "items": {"type": "string"}},
        "SA_Works": {"type": ["array", "null"], "items": {"type": "string"}},
        "SA_Values": {"type": ["array", "null"], "items": {"type": "integer"}}
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("scheduleall-save.schema.json", documentSchema)

// Write stores doc at path, replacing any previous save only once the new
// one is complete.
func Write(path string, doc Document) error {
	doc.Header.Format = Format
	doc.Header.Version = Version
	if doc.Header.SavedAt.IsZero() {
		doc.Header.SavedAt = time.Now().UTC()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := writeFile(tmp, doc); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace save: %w", err)
	}
	return nil
}

func writeFile(path string, doc Document) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open save: %w", err)
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	closed := false
	defer func() {
		if !closed {
			_ = enc.Close()
		}
	}()
	bw := bufio.NewWriter(enc)

	hb, err := json.Marshal(doc.Header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := json.NewEncoder(bw).Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush save: %w", err)
	}
	closed = true
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close zstd writer: %w", err)
	}
	return f.Sync()
}

// ReadHeader decodes only the header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	err := withReader(path, func(br *bufio.Reader) error {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read header: %w", err)
		}
		if err := json.Unmarshal(line, &h); err != nil {
			return fmt.Errorf("%w: %v", ErrFormat, err)
		}
		if h.Format != Format {
			return ErrFormat
		}
		return nil
	})
	return h, err
}

// Read decodes and validates a save. The body is checked against the
// document schema before it is bound to Go types.
func Read(path string) (Document, error) {
	var doc Document
	err := withReader(path, func(br *bufio.Reader) error {
		if _, err := br.ReadBytes('\n'); err != nil {
			return fmt.Errorf("%w: missing header: %v", ErrFormat, err)
		}
		body, err := io.ReadAll(br)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		return Decode(body, &doc)
	})
	return doc, err
}

// Decode validates raw JSON against the document schema and unmarshals it.
func Decode(raw []byte, doc *Document) error {
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("validate save: %w", err)
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

func withReader(path string, fn func(*bufio.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open save: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	return fn(bufio.NewReader(dec))
}
