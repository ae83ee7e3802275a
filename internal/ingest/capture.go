package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"energy_dashboard/internal/model"
)

// maxLine bounds one capture line; value pushes for a full panel stay far
// below it.
const maxLine = 1 << 20

// CaptureParser parses JSON-lines captures of widget pushes.
//
// Expected format:
//
//	# comment
//	{"at":"2024-11-21T12:00:00Z","type":"configuration","payload":{"realtime_configs":[...],"actions":[...]}}
//	{"at":"2024-11-21T12:00:05Z","type":"values","payload":{"1":{"value":230.1}}}
type CaptureParser struct{}

var _ Parser = (*CaptureParser)(nil)

// captureLine is the on-disk form of one push.
type captureLine struct {
	At      time.Time       `json:"at"`
	Type    model.PushKind  `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (p *CaptureParser) Parse(r io.Reader) ([]model.Push, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var pushes []model.Push
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		push, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		pushes = append(pushes, push)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading capture line %d: %w", lineNum+1, err)
	}
	return pushes, nil
}

func parseLine(line []byte) (model.Push, error) {
	var cl captureLine
	if err := json.Unmarshal(line, &cl); err != nil {
		return model.Push{}, fmt.Errorf("decoding: %w", err)
	}
	if cl.At.IsZero() {
		return model.Push{}, fmt.Errorf("missing timestamp")
	}
	if len(cl.Payload) == 0 {
		return model.Push{}, fmt.Errorf("missing payload")
	}

	push := model.Push{At: cl.At, Kind: cl.Type}
	switch cl.Type {
	case model.PushConfiguration:
		var cfg model.Configuration
		if err := json.Unmarshal(cl.Payload, &cfg); err != nil {
			return model.Push{}, fmt.Errorf("decoding configuration: %w", err)
		}
		push.Configuration = &cfg
	case model.PushValues:
		var snap model.ValueSnapshot
		if err := json.Unmarshal(cl.Payload, &snap); err != nil {
			return model.Push{}, fmt.Errorf("decoding values: %w", err)
		}
		if snap == nil {
			snap = model.ValueSnapshot{}
		}
		push.Values = snap
	default:
		return model.Push{}, fmt.Errorf("unknown push type %q", cl.Type)
	}
	return push, nil
}

// ParseFile parses the capture at path.
func ParseFile(path string) ([]model.Push, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pushes, err := (&CaptureParser{}).Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pushes, nil
}

// Writer appends pushes to a capture in the format CaptureParser reads.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// WriteRaw records one payload as received, stamped with the current time.
func (w *Writer) WriteRaw(kind model.PushKind, payload []byte) error {
	if !json.Valid(payload) {
		return fmt.Errorf("invalid %s payload", kind)
	}
	data, err := json.Marshal(captureLine{At: w.now().UTC(), Type: kind, Payload: payload})
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(append(data, '\n'))
	return err
}

// Write records an already decoded push.
func (w *Writer) Write(p model.Push) error {
	var (
		payload []byte
		err     error
	)
	switch p.Kind {
	case model.PushConfiguration:
		payload, err = json.Marshal(p.Configuration)
	case model.PushValues:
		payload, err = json.Marshal(p.Values)
	default:
		return fmt.Errorf("unknown push type %q", p.Kind)
	}
	if err != nil {
		return err
	}
	data, err := json.Marshal(captureLine{At: p.At.UTC(), Type: p.Kind, Payload: payload})
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(append(data, '\n'))
	return err
}
