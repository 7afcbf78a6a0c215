package detect

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jsphweid/musan/midi"
	"github.com/jsphweid/musan/pitch"
	"github.com/jsphweid/musan/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(notes []pitch.NoteSpelling) []string {
	res := make([]string, len(notes))
	for i, n := range notes {
		res[i] = n.String()
	}
	return res
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestSimulated(t *testing.T) {
	notes, err := Simulated{}.Detect(context.Background(), "anything.png", scale.C)
	require.NoError(t, err)
	assert.Equal(t, []string{"G4", "A4", "B4", "C5", "D5"}, names(notes))
}

func TestProcessParsesOutput(t *testing.T) {
	requireShell(t)
	p := &Process{Command: []string{"sh", "-c", `echo "C4,Eb4, G4"`, "recognizer"}}

	notes, err := p.Detect(context.Background(), "scan.png", scale.C)
	require.NoError(t, err)
	assert.Equal(t, []string{"C4", "Eb4", "G4"}, names(notes))
}

func TestProcessPassesPath(t *testing.T) {
	requireShell(t)
	// sh -c exposes the trailing path argument as $1
	p := &Process{Command: []string{"sh", "-c", `test "$1" = "scan.png" && echo A`, "recognizer"}}

	notes, err := p.Detect(context.Background(), "scan.png", scale.C)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names(notes))
}

func TestProcessFailure(t *testing.T) {
	requireShell(t)
	p := &Process{Command: []string{"sh", "-c", `echo boom >&2; exit 3`, "recognizer"}}

	_, err := p.Detect(context.Background(), "scan.png", scale.C)
	var perr *ProcessError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "sh", perr.Tool)
	assert.Equal(t, 3, perr.ExitCode)
	assert.Equal(t, "boom", perr.Stderr)
	assert.Contains(t, perr.Error(), "exit 3")
}

func TestProcessBadOutput(t *testing.T) {
	requireShell(t)
	p := &Process{Command: []string{"sh", "-c", `echo "C D H"`, "recognizer"}}

	_, err := p.Detect(context.Background(), "scan.png", scale.C)
	var perr *ProcessError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 0, perr.ExitCode)
	assert.ErrorIs(t, err, pitch.ErrInvalidSpelling)
	assert.Contains(t, err.Error(), "sh output unreadable")
}

func TestProcessUsageOutput(t *testing.T) {
	requireShell(t)
	p := &Process{Command: []string{"sh", "-c", `echo "Usage: python extract_notes.py <image>"`, "recognizer"}}

	_, err := p.Detect(context.Background(), "scan.png", scale.C)
	var perr *ProcessError
	assert.True(t, errors.As(err, &perr))
}

func TestProcessEmptyOutput(t *testing.T) {
	requireShell(t)
	p := &Process{Command: []string{"sh", "-c", `true`, "recognizer"}}

	_, err := p.Detect(context.Background(), "scan.png", scale.C)
	assert.ErrorIs(t, err, ErrNoNotes)
}

func TestProcessTimeout(t *testing.T) {
	requireShell(t)
	p := &Process{Command: []string{"sh", "-c", `exec sleep 5`, "recognizer"}, Timeout: 50 * time.Millisecond}

	_, err := p.Detect(context.Background(), "scan.png", scale.C)
	var perr *ProcessError
	assert.True(t, errors.As(err, &perr))
}

func TestProcessWithoutCommand(t *testing.T) {
	_, err := (&Process{}).Detect(context.Background(), "scan.png", scale.C)
	assert.Error(t, err)
}

func TestMIDIFile(t *testing.T) {
	sc, _ := scale.Build(scale.F)
	path := filepath.Join(t.TempDir(), "f.mid")
	require.NoError(t, midi.WriteScaleFile(path, sc, 4, 120))

	notes, err := MIDIFile{}.Detect(context.Background(), path, scale.F)
	require.NoError(t, err)
	assert.Equal(t, "Bb4", notes[3].String())
}

func TestForPath(t *testing.T) {
	fallback := Simulated{}

	d, err := ForPath("song.MID", fallback)
	require.NoError(t, err)
	assert.Equal(t, MIDIFile{}, d)

	d, err = ForPath("scan.jpeg", fallback)
	require.NoError(t, err)
	assert.Equal(t, fallback, d)

	_, err = ForPath("notes.txt", fallback)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFromCommand(t *testing.T) {
	assert.Equal(t, Simulated{}, FromCommand("  ", time.Second))

	d := FromCommand("python3 extract_notes.py", time.Second)
	p, ok := d.(*Process)
	require.True(t, ok)
	assert.Equal(t, []string{"python3", "extract_notes.py"}, p.Command)
}

func TestSupportedExtensionsExist(t *testing.T) {
	for _, ext := range SupportedExtensions {
		assert.True(t, Supported("x"+ext))
	}
	assert.False(t, Supported(filepath.Join(os.TempDir(), "x")))
}
