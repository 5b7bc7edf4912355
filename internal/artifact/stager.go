package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

type stagedFile struct {
	tmp   string
	final string
}

// stager implements the atomic publication discipline: every artifact is
// written to a temp file in its destination directory first, and the renames
// happen only after all bytes are on disk. A failure while staging leaves
// nothing visible; discard removes any temp files on every exit path.
type stager struct {
	files []stagedFile
}

func newStager() *stager {
	return &stager{}
}

// stage writes data to a temp file next to finalPath.
func (s *stager) stage(finalPath string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(finalPath), ".specgain-stage-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	s.files = append(s.files, stagedFile{tmp: tmp, final: finalPath})

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Chmod(tmp, 0o644)
}

// commit renames every staged file into place and returns the final paths.
// Same-directory renames are atomic; by the time the first rename runs, every
// artifact has been fully written and synced.
func (s *stager) commit() ([]string, error) {
	paths := make([]string, 0, len(s.files))
	for i, sf := range s.files {
		if err := os.Rename(sf.tmp, sf.final); err != nil {
			return nil, fmt.Errorf("rename %s: %w", filepath.Base(sf.final), err)
		}
		s.files[i].tmp = "" // consumed
		paths = append(paths, sf.final)
	}
	s.files = nil
	return paths, nil
}

// discard removes any staged temp files that were not committed.
func (s *stager) discard() {
	for _, sf := range s.files {
		if sf.tmp != "" {
			os.Remove(sf.tmp)
		}
	}
	s.files = nil
}
