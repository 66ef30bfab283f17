package results

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/seqrec/hypersweep/internal/hyper"
)

// ErrNotFound reports that no record exists for a hyperparameter set. It is
// distinct from I/O failure so callers can treat a miss as normal control flow.
var ErrNotFound = errors.New("no stored result for hyperparameters")

// Field names the store adds to each line; they cannot be hyperparameter names.
var reservedKeys = []string{"test_mrr", "validation_mrr", "hash"}

// Store is an append-only log of trial records, one JSON object per line,
// keyed by the fingerprint of the hyperparameter set. Nothing is cached in
// memory: every lookup re-reads the file, so a restarted process sees exactly
// what earlier runs persisted.
type Store struct {
	path string
}

// Open ensures the backing file exists, creating an empty one if missing.
// Contents are not loaded.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening results file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing results file %s: %w", path, err)
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

// Save appends one record: the hyperparameter keys flattened into the object
// plus test_mrr, validation_mrr, and the fingerprint under "hash". The write
// is a single append, so prior records are never touched.
func (s *Store) Save(p hyper.Params, testMRR, validationMRR float64) error {
	for _, k := range reservedKeys {
		if _, ok := p[k]; ok {
			return fmt.Errorf("hyperparameter name %q is reserved", k)
		}
	}
	hash, err := hyper.Fingerprint(p)
	if err != nil {
		return err
	}

	line := make(map[string]any, len(p)+3)
	for k, v := range p {
		line[k] = v
	}
	line["test_mrr"] = testMRR
	line["validation_mrr"] = validationMRR
	line["hash"] = hash

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("serializing record: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening results file %s: %w", s.path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("appending record: %w", err)
	}
	return f.Close()
}

// Contains reports whether a record with the fingerprint of p exists.
func (s *Store) Contains(p hyper.Params) (bool, error) {
	_, err := s.Lookup(p)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Lookup scans front-to-back and returns the first record whose fingerprint
// matches p. The hash field is not part of the returned record since it is
// derivable. A miss is ErrNotFound.
func (s *Store) Lookup(p hyper.Params) (*Record, error) {
	want, err := hyper.Fingerprint(p)
	if err != nil {
		return nil, err
	}
	var found *Record
	err = s.each(func(rec *Record, hash string) error {
		if found == nil && hash == want {
			found = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Each calls fn for every record in file order. Every call re-reads the log
// from the start. Returning an error from fn stops the scan.
func (s *Store) Each(fn func(*Record) error) error {
	return s.each(func(rec *Record, _ string) error {
		return fn(rec)
	})
}

// Best returns the record with the maximum test MRR, ties broken by first
// occurrence in file order. An empty store returns (nil, nil).
func (s *Store) Best() (*Record, error) {
	var best *Record
	err := s.Each(func(rec *Record) error {
		if best == nil || rec.TestMRR > best.TestMRR {
			best = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

// Len counts stored records.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.Each(func(*Record) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Verify recomputes the fingerprint of every stored hyperparameter set and
// compares it against the recorded hash, failing on the first damaged or
// foreign line. Returns the number of records checked.
func (s *Store) Verify() (int, error) {
	n := 0
	err := s.each(func(rec *Record, hash string) error {
		n++
		want, err := hyper.Fingerprint(rec.Params)
		if err != nil {
			return err
		}
		if hash != want {
			return fmt.Errorf("record %d: stored hash %s does not match recomputed %s", n, hash, want)
		}
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, nil
}

// each is the scan primitive behind every read operation. Malformed lines
// fail loudly with their line number rather than being skipped: a silently
// dropped record would make the driver re-run an already-paid-for trial.
func (s *Store) each(fn func(rec *Record, hash string) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening results file %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		rec, hash, err := decodeLine(line)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", s.path, lineNo, err)
		}
		if err := fn(rec, hash); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading results file %s: %w", s.path, err)
	}
	return nil
}

func decodeLine(line []byte) (*Record, string, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, "", fmt.Errorf("corrupt record: %w", err)
	}

	hash, ok := raw["hash"].(string)
	if !ok {
		return nil, "", fmt.Errorf("corrupt record: missing hash field")
	}
	testMRR, ok := raw["test_mrr"].(float64)
	if !ok {
		return nil, "", fmt.Errorf("corrupt record: missing test_mrr field")
	}
	validationMRR, ok := raw["validation_mrr"].(float64)
	if !ok {
		return nil, "", fmt.Errorf("corrupt record: missing validation_mrr field")
	}

	params := make(hyper.Params, len(raw)-3)
	for k, v := range raw {
		switch k {
		case "hash", "test_mrr", "validation_mrr":
			continue
		}
		params[k] = v
	}
	return &Record{Params: params, TestMRR: testMRR, ValidationMRR: validationMRR}, hash, nil
}
