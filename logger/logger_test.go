package logger

import (
	"bytes"
	"errors"
	"log"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestFormatFieldsIsSorted(t *testing.T) {
	got := formatFields(Fields{"b": 2, "a": "x", "c": 1.5})
	assert.Equal(t, "{a=x, b=2, c=1.50}", got)
	assert.Equal(t, "", formatFields(nil))
}

func TestLevels(t *testing.T) {
	buf := capture(t)

	Info("transcribed", Fields{"key": "G"})
	Warn("slow", nil)
	Debug("default key", Fields{"key": "C"})
	Error("failed", errors.New("boom"), Fields{"key": "C"})

	out := buf.String()
	assert.Contains(t, out, "[INFO] transcribed {key=G}")
	assert.Contains(t, out, "[WARN] slow")
	assert.Contains(t, out, "[DEBUG] default key {key=C}")
	assert.Contains(t, out, "[ERROR] failed: boom {key=C}")
}

func TestWithRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/transcribe", nil)
	fields := WithRequest(r)
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, "/transcribe", fields["path"])
}

func TestInitWithoutDSN(t *testing.T) {
	assert.NoError(t, Init("", "test"))
	Flush()
}
