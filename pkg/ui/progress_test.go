package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLookupProgress(t *testing.T) {
	p := NewLookupProgress(4)
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/4", p.Bar())

	p.Advance(false)
	p.Advance(true)
	assert.Equal(t, 2, p.Done)
	assert.Equal(t, 1, p.Failed)
	assert.Equal(t, "[██████████░░░░░░░░░░] 2/4", p.Bar())
}

func TestLookupProgressElapsed(t *testing.T) {
	p := NewLookupProgress(1)
	p.StartTime = time.Now().Add(-90 * time.Second)
	assert.GreaterOrEqual(t, p.Elapsed(), 90*time.Second)
}

func TestLookupProgressEmpty(t *testing.T) {
	p := NewLookupProgress(0)
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/0", p.Bar())
}

func TestLookupProgressPrint(t *testing.T) {
	buf := captureOutput(t)

	p := NewLookupProgress(1)
	p.Advance(true)
	p.Print()

	assert.Equal(t, "\r[LOOKUP] [████████████████████] 1/1 (1 skipped)\n", buf.String())
}
