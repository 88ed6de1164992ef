package notify

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizer(t *testing.T) {
	zh := NewLocalizer("zh-CN")
	assert.Equal(t, "权限不足", zh.Text(KeyForbidden))

	en := NewLocalizer("en-US")
	assert.Equal(t, "Permission denied", en.Text(KeyForbidden))

	unknown := NewLocalizer("fr-FR")
	assert.Equal(t, DefaultLocale, unknown.Locale)
}

func TestLocalizerNoticeDetailOverrides(t *testing.T) {
	l := NewLocalizer("en-US")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	n := l.Notice(LevelError, KeyRequestFailed, "asset name already exists")
	assert.Equal(t, "asset name already exists", n.Message)
	assert.Equal(t, fixed, n.Time)

	n = l.Notice(LevelError, KeyRequestFailed, "")
	assert.Equal(t, "Network error", n.Message)
}

func TestCatalogsCoverSameKeys(t *testing.T) {
	for key := range catalog[DefaultLocale] {
		_, ok := catalog["en-US"][key]
		assert.True(t, ok, "en-US missing %s", key)
	}
}

func TestPrinterNoColor(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Notify(Notice{Level: LevelError, Message: "boom"})
	p.Notify(Notice{Level: LevelSuccess, Message: "done"})

	assert.Equal(t, "✗ boom\n✓ done\n", buf.String())
}

func TestPrinterColor(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{out: &buf}

	p.Notify(Notice{Level: LevelWarning, Message: "careful"})
	assert.Contains(t, buf.String(), "careful")
	assert.Contains(t, buf.String(), "\x1b[", "expected ANSI escape")
}

func TestRecorderConcurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(Notice{Key: KeyNotFound})
		}()
	}
	wg.Wait()
	assert.Len(t, r.Notices(), 50)
}

func TestChannelDropsWhenFull(t *testing.T) {
	c := NewChannel(1)
	c.Notify(Notice{Key: KeyForbidden})
	c.Notify(Notice{Key: KeyNotFound})

	require.Len(t, c.C, 1)
	assert.Equal(t, KeyForbidden, (<-c.C).Key)
}

func TestMulti(t *testing.T) {
	var a, b Recorder
	Multi(&a, nil, &b, Discard).Notify(Notice{Key: KeyLoggedOut})

	assert.Equal(t, []Key{KeyLoggedOut}, a.Keys())
	assert.Equal(t, []Key{KeyLoggedOut}, b.Keys())
}
