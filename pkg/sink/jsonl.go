package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	errs "behancesync/pkg/errors"
	"behancesync/pkg/record"
)

// JSONL appends every new or changed record as one JSON line. The last line
// for a (type, id) wins when the file is read back.
type JSONL struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	digests map[string]string
}

// OpenJSONL opens path for appending and indexes the digests already in it
func OpenJSONL(path string) (*JSONL, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	s := &JSONL{path: path, digests: make(map[string]string)}
	existing, err := readJSONL(path)
	if err != nil {
		return nil, err
	}
	for _, rec := range existing {
		s.digests[key(rec)] = rec.Internal.ContentDigest
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s.file = f
	return s, nil
}

func (s *JSONL) CreateRecord(ctx context.Context, rec *record.Record) (Status, error) {
	if err := validate(rec); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(rec)
	prev, ok := s.digests[k]
	if ok && prev == rec.Internal.ContentDigest {
		return StatusUnchanged, nil
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to encode record "+k)
	}
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return "", errs.Wrap(err, errs.ErrorTypeStore, "failed to append record "+k)
	}
	s.digests[k] = rec.Internal.ContentDigest

	if ok {
		return StatusUpdated, nil
	}
	return StatusCreated, nil
}

// List reads the file back, keeping the latest line per record
func (s *JSONL) List(ctx context.Context, recordType string) ([]*record.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readJSONL(s.path)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeStore, "failed to read "+s.path)
	}
	var out []*record.Record
	for _, rec := range all {
		if recordType == "" || rec.Internal.Type == recordType {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *JSONL) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// readJSONL returns the latest record per key in path. A missing file is empty.
func readJSONL(path string) ([]*record.Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	latest := make(map[string]*record.Record)
	reader := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && !(len(line) == 1 && line[0] == '\n') {
			var rec record.Record
			if jerr := json.Unmarshal(line, &rec); jerr != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, jerr)
			}
			latest[key(&rec)] = &rec
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	out := make([]*record.Record, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec)
	}
	return out, nil
}
