package internal

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	lvl, ok := ParseLogLevel(" debug ")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, lvl)

	_, ok = ParseLogLevel("verbose")
	assert.False(t, ok)
}

func TestLogger_FiltersAndTags(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}()

	l := NewLogger(LogLevelInfo).With("fsm")
	l.Debug("hidden")
	l.Info("ENTERED::%s::", "t1_pre")

	assert.Equal(t, "[INFO] [fsm] ENTERED::t1_pre::\n", buf.String())
}
