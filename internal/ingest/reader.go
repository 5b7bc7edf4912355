// Package ingest reads newline-delimited metrics logs produced by the
// experiment harness and turns matching entries into validated gain.Records.
// Each line is parsed independently: a malformed line is skipped and counted,
// never aborting the read. The package only ever reads its inputs.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"specgain/internal/gain"
	"specgain/internal/logging"
)

// maxLineBytes bounds a single log line. Lines beyond this are malformed by
// definition and counted as skipped.
const maxLineBytes = 1 << 20

// Stats is the side count of what the reader saw. It is always surfaced to
// the user so skipped data is never silent.
type Stats struct {
	Files      int // files scanned
	Unreadable int // files that could not be opened or read
	Lines      int // non-blank lines seen
	Matched    int // valid records for the target study
	Skipped    int // malformed lines (bad JSON, wrong types, unknown enum values)
	OtherStudy int // well-formed lines for a different study (ignored, not errors)
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Unreadable += o.Unreadable
	s.Lines += o.Lines
	s.Matched += o.Matched
	s.Skipped += o.Skipped
	s.OtherStudy += o.OtherStudy
}

// Discover lists log files under dir matching the glob pattern, sorted by
// name. A missing directory is the empty signal, not an error: the caller
// falls back to the placeholder set.
func Discover(dir, pattern string) ([]string, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Read scans the given files and accumulates every valid record for the
// target study. With parallel > 1, files are read concurrently into private
// accumulators and merged; counter merges are commutative, so the result is
// identical regardless of read interleaving.
//
// An unreadable file is logged, counted in Stats.Unreadable, and skipped;
// only context cancellation aborts the read.
func Read(ctx context.Context, paths []string, study string, parallel int) (*gain.Accumulator, Stats, error) {
	acc := gain.NewAccumulator()
	var stats Stats

	if parallel <= 1 || len(paths) <= 1 {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, Stats{}, err
			}
			st := scanFile(path, study, acc)
			stats.add(st)
		}
		return acc, stats, nil
	}

	accs := make([]*gain.Accumulator, len(paths))
	fileStats := make([]Stats, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			accs[i] = gain.NewAccumulator()
			fileStats[i] = scanFile(path, study, accs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	for i := range paths {
		if accs[i] != nil {
			acc.Merge(accs[i])
		}
		stats.add(fileStats[i])
	}
	return acc, stats, nil
}

// scanFile reads one file line by line into acc and returns its stats.
func scanFile(path, study string, acc *gain.Accumulator) Stats {
	logger := logging.New("ingest")
	st := Stats{Files: 1}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("cannot open log file; skipping", "path", path, "error", err)
		return Stats{Files: 1, Unreadable: 1}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		st.Lines++
		rec, class := parseLine([]byte(line), study)
		switch class {
		case lineRecord:
			acc.Add(rec)
			st.Matched++
		case lineOtherStudy:
			st.OtherStudy++
		case lineMalformed:
			st.Skipped++
		}
	}
	if err := sc.Err(); err != nil {
		logger.Warn("read error; remaining lines skipped", "path", path, "error", err)
		st.Unreadable++
	}
	return st
}

type lineClass int

const (
	lineMalformed lineClass = iota
	lineOtherStudy
	lineRecord
)

// envelope is the outer shape every harness log entry shares.
type envelope struct {
	Study string          `json:"study"`
	Data  json.RawMessage `json:"data"`
}

// payload is the per-record data object. Pointer fields distinguish absent
// from zero; the harness historically used two spellings for some keys, both
// are accepted.
type payload struct {
	Family          *string `json:"family"`
	TrueFamily      *string `json:"true_family"`
	ModelRole       *string `json:"model_role"`
	Role            *string `json:"role"`
	RoutingMode     *string `json:"routing_mode"`
	Routing         *string `json:"routing"`
	Correct         *bool   `json:"correct"`
	PredictedFamily *string `json:"predicted_family"`
}

// parseLine validates one log line against the closed record model.
// Unknown enum values, missing required fields, and wrong field types are all
// malformed: they are rejected here rather than coerced downstream.
func parseLine(line []byte, study string) (gain.Record, lineClass) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return gain.Record{}, lineMalformed
	}
	if env.Study != study {
		return gain.Record{}, lineOtherStudy
	}
	if len(env.Data) == 0 {
		return gain.Record{}, lineMalformed
	}

	var p payload
	if err := json.Unmarshal(env.Data, &p); err != nil {
		return gain.Record{}, lineMalformed
	}

	famStr := firstOf(p.Family, p.TrueFamily)
	roleStr := firstOf(p.ModelRole, p.Role)
	routingStr := firstOf(p.RoutingMode, p.Routing)
	if famStr == nil || roleStr == nil || routingStr == nil || p.Correct == nil {
		return gain.Record{}, lineMalformed
	}

	fam, err := gain.ParseFamily(*famStr)
	if err != nil {
		return gain.Record{}, lineMalformed
	}
	role, err := gain.ParseRole(*roleStr)
	if err != nil {
		return gain.Record{}, lineMalformed
	}
	routing, err := gain.ParseRouting(*routingStr)
	if err != nil {
		return gain.Record{}, lineMalformed
	}

	rec := gain.Record{Family: fam, Role: role, Routing: routing, Correct: *p.Correct}
	if p.PredictedFamily != nil {
		pred, err := gain.ParseFamily(*p.PredictedFamily)
		if err != nil {
			return gain.Record{}, lineMalformed
		}
		rec.Predicted = pred
		rec.HasPredicted = true
	}
	return rec, lineRecord
}

// firstOf picks the first alias that is present and non-empty. An empty
// string counts as absent so a blank primary key falls through to the
// alternate spelling.
func firstOf(vals ...*string) *string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
