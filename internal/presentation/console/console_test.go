package console_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cadence/internal/presentation/console"
	"github.com/aretw0/cadence/pkg/domain"
	"github.com/aretw0/cadence/pkg/ports"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.Presenter = (*console.Console)(nil)
	_ domain.Notifier = (*console.Console)(nil)
)

func TestConsole_Presenter(t *testing.T) {
	var buf bytes.Buffer
	c := console.New(&buf, console.WithProfile(termenv.Ascii))

	c.SetBackground(domain.Color{R: 0xFF, G: 0x80})
	c.Notify("Done", 3*time.Second)
	c.SetPaused(true)
	c.SetPaused(true)
	c.SetPaused(false)

	assert.Equal(t, domain.Color{R: 0xFF, G: 0x80}, c.Background())
	assert.Equal(t,
		"background        FF8000\n"+
			"» Done (3s)\n"+
			" PAUSED \n"+
			" RESUMED \n",
		buf.String())
}

func TestConsole_RawMode(t *testing.T) {
	var buf bytes.Buffer
	c := console.New(&buf, console.WithProfile(termenv.Ascii), console.WithRawMode())
	c.Notify("hi", time.Second)
	assert.Equal(t, "» hi (1s)\r\n", buf.String())
}

func TestConsole_Stimuli(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("x"), 0o644))

	var buf bytes.Buffer
	c := console.New(&buf, console.WithProfile(termenv.Ascii), console.WithAssetDir(dir))
	factory := c.Stimuli()

	st, err := factory.NewStimulus(domain.StimulusSpec{Kind: domain.StimulusDisplayImage, Files: []string{"a.png"}})
	require.NoError(t, err)
	st.Activate()
	st.Deactivate()
	assert.Equal(t, "show DisplayImage a.png\nhide DisplayImage a.png\n", buf.String())

	_, err = factory.NewStimulus(domain.StimulusSpec{Kind: domain.StimulusPlaySound, Files: []string{"missing.wav"}})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	console.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|_| |_|")
}
