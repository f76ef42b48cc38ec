package logstream

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_appendTextLine(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		entry   Entry
		want    string
	}{
		{
			"location",
			1500 * time.Millisecond,
			Entry{Category: CAT_GENERAL, Priority: LVL_INFO, File: "a.c", Line: 10, Message: "hello"},
			"    1.50 [INFO]:general    a.c:10: hello\n",
		},
		{
			"no_location",
			0,
			Entry{Category: CAT_IO, Priority: LVL_ALERT, File: "", Line: NO_LINE, Message: "hello"},
			"    0.00 [ALRT]:io         hello\n",
		},
		{
			"file_without_line",
			0,
			Entry{Category: CAT_IO, Priority: LVL_WARN, File: "a.c", Line: NO_LINE, Message: "m"},
			"    0.00 [WARN]:io         m\n",
		},
		{
			"long_category",
			123456 * time.Second,
			Entry{Category: CAT_ENVIRONMENT, Priority: LVL_POPUP, Line: NO_LINE, Message: testlogstr},
			"123456.00 [POPU]:environment " + testlogstr + "\n",
		},
		{
			"combined_category",
			0,
			Entry{Category: CAT_IO | CAT_AI, Priority: LVL_BULK, Line: NO_LINE},
			"    0.00 [BULK]:unknown    \n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(appendTextLine(nil, tt.elapsed, &tt.entry)))
		})
	}
	t.Run("appends", func(t *testing.T) {
		e := Entry{Category: CAT_IO, Priority: LVL_INFO, Line: NO_LINE, Message: "x"}
		assert.Equal(t, "prefix    0.00 [INFO]:io         x\n", string(appendTextLine([]byte("prefix"), 0, &e)))
	})
}

func Test_WriterCallback(t *testing.T) {
	out := &FakeWriter{}
	cb := NewWriterCallback(out, CAT_IO, LVL_WARN)
	cb.Invoke(Entry{Category: CAT_IO, Priority: LVL_WARN, Line: NO_LINE, Message: "one"})
	cb.Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO, Line: NO_LINE, Message: "filtered"})
	cb.Invoke(Entry{Category: CAT_AI, Priority: LVL_ALERT, Line: NO_LINE, Message: "filtered"})
	cb.Invoke(Entry{Category: CAT_OSG, Priority: LVL_BULK, Line: NO_LINE, Message: "osg"})
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "[WARN]:io         one"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "[BULK]:OSG        osg"), lines[1])
	assert.NoError(t, cb.takeErr())

	t.Run("nil_writer", func(t *testing.T) {
		cb := NewWriterCallback(nil, CAT_ALL, LVL_BULK)
		assert.NotPanics(t, func() { cb.Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO}) })
		assert.NoError(t, cb.takeErr())
	})
	t.Run("console_levels", func(t *testing.T) {
		cc := NewConsoleCallback(CAT_IO, LVL_DEBUG)
		c, p := cc.Levels()
		assert.Equal(t, CAT_IO, c)
		assert.Equal(t, LVL_DEBUG, p)
	})
}

func Test_FileCallback(t *testing.T) {
	t.Run("truncate_and_close", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "f.log")
		require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))
		fc := NewFileCallback(path, CAT_ALL, LVL_BULK)
		require.NoError(t, fc.Err())
		fc.Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO, File: "x.go", Line: 3, Message: "written"})
		require.NoError(t, fc.Close())
		fc.Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO, Line: NO_LINE, Message: "after close"})
		assert.NoError(t, fc.takeErr())
		assert.NoError(t, fc.Close(), "second close")

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "previous run")
		assert.NotContains(t, string(data), "after close")
		assert.True(t, strings.HasSuffix(string(data), "[INFO]:io         x.go:3: written\n"), string(data))
	})
	t.Run("open_error", func(t *testing.T) {
		fc := NewFileCallback(t.TempDir(), CAT_ALL, LVL_BULK)
		assert.Error(t, fc.Err())
		assert.NotPanics(t, func() { fc.Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO}) })
		assert.NoError(t, fc.takeErr())
		assert.NoError(t, fc.Close())
	})
}

func Test_RotatingFileCallback(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	path := filepath.Join(dir, "rot.log")
	s := InitWithParams(CAT_ALL, LVL_BULK, nil)
	rc, err := s.LogToRotatingFile(path, CAT_IO, LVL_INFO, RotateOptions{MaxSizeMB: 1, MaxBackups: 2})
	require.NoError(t, err)
	assert.Equal(t, path, rc.Path())
	require.NoError(t, s.Start())
	s.Log(CAT_IO, LVL_INFO, "", NO_LINE, "before rotation")
	s.Log(CAT_IO, LVL_DEBUG, "", NO_LINE, "filtered")
	s.Stop()
	require.NoError(t, rc.Rotate())
	s.Start()
	s.Log(CAT_IO, LVL_WARN, "", NO_LINE, "after rotation")
	s.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "after rotation")
	assert.NotContains(t, string(data), "before rotation")

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2, "active file plus one backup")

	t.Run("bad_directory", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))
		_, err := NewRotatingFileCallback(filepath.Join(blocker, "x.log"), CAT_ALL, LVL_BULK, RotateOptions{})
		assert.Error(t, err)
	})
}

func Test_DebugPaneCallback(t *testing.T) {
	out := &FakeWriter{}
	cb := NewDebugWriterCallback(out, CAT_IO|CAT_NASAL, LVL_INFO)
	cb.Invoke(Entry{Category: CAT_NASAL, Priority: LVL_INFO, File: "x.nas", Line: 1, Message: "hello"})
	cb.Invoke(Entry{Category: CAT_IO, Priority: LVL_DEBUG, Message: "filtered"})
	assert.Equal(t, "nasal:hello\n", out.String())

	assert.NotPanics(t, func() {
		NewDebugPaneCallback(CAT_ALL, LVL_BULK).Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO, Message: "pane"})
		NewDebugWriterCallback(nil, CAT_ALL, LVL_BULK).Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO})
	})
	assert.NoError(t, cb.takeErr())

	t.Run("write_error", func(t *testing.T) {
		cb := NewDebugWriterCallback(&ErrorWriter{}, CAT_ALL, LVL_BULK)
		cb.Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO, Message: "x"})
		assert.Error(t, cb.takeErr())
		assert.NoError(t, cb.takeErr(), "cleared once taken")

		ferr := &FakeWriter{}
		s := InitWithParams(CAT_ALL, LVL_BULK, ferr).AddCallback(NewDebugWriterCallback(&ErrorWriter{}, CAT_ALL, LVL_BULK))
		require.NoError(t, s.Start())
		s.Log(CAT_IO, LVL_INFO, "", NO_LINE, "pane")
		s.Close()
		assert.Contains(t, ferr.String(), "error writing log to callback")
	})
}

func Test_MemoryCallback(t *testing.T) {
	m := NewMemoryCallback(CAT_IO, LVL_INFO)
	m.Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO, Message: "a"})
	m.Invoke(Entry{Category: CAT_IO, Priority: LVL_DEBUG, Message: "b"})
	m.Invoke(Entry{Category: CAT_IO, Priority: LVL_POPUP, Message: "c"})
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a", "c"}, m.Messages())
	entries := m.Entries()
	entries[0].Message = "changed"
	assert.Equal(t, "a", m.Entries()[0].Message, "Entries returns a copy")
	m.Reset()
	assert.Zero(t, m.Len())
	assert.Empty(t, m.Messages())
}

func Test_CallbackFunc(t *testing.T) {
	var got []string
	cb := NewCallbackFunc(CAT_AI, LVL_WARN, func(e Entry) { got = append(got, e.Message) })
	cb.Invoke(Entry{Category: CAT_AI, Priority: LVL_WARN, Message: "1"})
	cb.Invoke(Entry{Category: CAT_AI, Priority: LVL_INFO, Message: "2"})
	cb.SetFilter(CAT_AI, LVL_BULK)
	cb.Invoke(Entry{Category: CAT_AI, Priority: LVL_INFO, Message: "3"})
	assert.Equal(t, []string{"1", "3"}, got)
	assert.NotPanics(t, func() {
		NewCallbackFunc(CAT_ALL, LVL_BULK, nil).Invoke(Entry{Category: CAT_IO, Priority: LVL_INFO})
	})
}

func Test_Filter(t *testing.T) {
	f := NewFilter(CAT_IO|CAT_AI, LVL_WARN)
	assert.True(t, f.ShouldLog(CAT_AI, LVL_ALERT))
	assert.False(t, f.ShouldLog(CAT_AI, LVL_INFO))
	assert.False(t, f.ShouldLog(CAT_GUI, LVL_POPUP))
	assert.True(t, f.ShouldLog(CAT_OSG, LVL_BULK))
	f.SetFilter(CAT_NONE, LVL_BULK)
	assert.False(t, f.ShouldLog(CAT_AI, LVL_POPUP))
	c, p := f.Levels()
	assert.Equal(t, CAT_NONE, c)
	assert.Equal(t, LVL_BULK, p)
}
