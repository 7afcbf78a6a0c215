package detect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsphweid/musan/midi"
	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"golang.org/x/exp/slices"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNoNotes           = midi.ErrNoNotes
)

var SupportedExtensions = []string{".mid", ".midi", ".png", ".jpg", ".jpeg", ".pdf"}

// Detector turns an uploaded file into a melody. The key is a spelling hint
// for sources that only know pitch numbers.
type Detector interface {
	Detect(ctx context.Context, path string, k scale.Key) ([]pitch.NoteSpelling, error)
}

type ProcessError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Cause    error
}

func (e *ProcessError) Error() string {
	switch {
	case e.Stderr != "":
		return fmt.Sprintf("%s failed (exit %d): %s", e.Tool, e.ExitCode, e.Stderr)
	case e.ExitCode == 0 && e.Cause != nil:
		// ran fine but printed something other than notes
		return fmt.Sprintf("%s output unreadable: %v", e.Tool, e.Cause)
	}
	return fmt.Sprintf("%s failed (exit %d)", e.Tool, e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// Simulated stands in for a recognizer and always reports the same phrase.
type Simulated struct{}

var simulatedPhrase = []string{"G4", "A4", "B4", "C5", "D5"}

func (Simulated) Detect(ctx context.Context, path string, k scale.Key) ([]pitch.NoteSpelling, error) {
	res := make([]pitch.NoteSpelling, len(simulatedPhrase))
	for i, n := range simulatedPhrase {
		res[i] = pitch.MustParse(n)
	}
	return res, nil
}

// Process delegates to an external recognizer that prints note names,
// separated by commas or whitespace, on stdout.
type Process struct {
	Command []string
	Timeout time.Duration
}

func NewProcess(command string, timeout time.Duration) *Process {
	return &Process{Command: strings.Fields(command), Timeout: timeout}
}

func (p *Process) Detect(ctx context.Context, path string, k scale.Key) ([]pitch.NoteSpelling, error) {
	if len(p.Command) == 0 {
		return nil, errors.New("no recognizer command configured")
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, p.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, p.Command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	tool := filepath.Base(p.Command[0])
	if err := cmd.Run(); err != nil {
		perr := &ProcessError{
			Tool:   tool,
			Stderr: strings.TrimSpace(stderr.String()),
			Cause:  err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			perr.ExitCode = exitErr.ExitCode()
		}
		return nil, perr
	}

	notes, err := pitch.ParseAll(stdout.String())
	if err != nil {
		return nil, &ProcessError{Tool: tool, Cause: err}
	}
	if len(notes) == 0 {
		return nil, ErrNoNotes
	}
	return notes, nil
}

type MIDIFile struct{}

func (MIDIFile) Detect(ctx context.Context, path string, k scale.Key) ([]pitch.NoteSpelling, error) {
	return midi.ReadSpellings(path, k)
}

func IsMIDI(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".mid" || ext == ".midi"
}

func Supported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// ForPath picks the MIDI reader for MIDI files and the fallback for scans.
func ForPath(path string, fallback Detector) (Detector, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if IsMIDI(path) {
		return MIDIFile{}, nil
	}
	return fallback, nil
}

// FromCommand returns a Process detector when a command is configured and the
// simulated one otherwise.
func FromCommand(command string, timeout time.Duration) Detector {
	if strings.TrimSpace(command) == "" {
		return Simulated{}
	}
	return NewProcess(command, timeout)
}
