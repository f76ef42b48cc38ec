package logstream

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func Test_Parallel_Multithreading(t *testing.T) {
	const (
		_DATACOUNT_  = 500 // Number of messages every goroutine/client has to log
		_GOROUTINES_ = 50  // Number of simultaneous goroutines/clients logging
	)
	ferr := &FakeWriter{}
	mem := NewMemoryCallback(CAT_ALL, LVL_BULK)
	s := InitWithParams(CAT_ALL, LVL_BULK, ferr).AddCallback(mem)
	require.NoError(t, s.Start())

	cats := Categories()
	var wg sync.WaitGroup
	hold := make(chan struct{})
	for g := range _GOROUTINES_ {
		cat := cats[g%len(cats)]
		wg.Go(func() {
			<-hold
			for i := range _DATACOUNT_ {
				// Log itself does not filter, so level changes below lose nothing
				s.Log(cat, LVL_BULK+Priority(i%int(LVL_ALERT)), "", NO_LINE, strconv.Itoa(g)+":"+strconv.Itoa(i))
			}
		})
	}
	close(hold)

	// reconfigure while producers are running: nothing may be lost
	Rand := rand.New(rand.NewSource(time.Now().UnixNano()))
	extra := NewMemoryCallback(CAT_ALL, LVL_BULK)
	for range 5 {
		time.Sleep(time.Duration(Rand.Intn(3)) * time.Millisecond)
		s.SetLevels(Category(Rand.Uint32())&CAT_ALL, Priority(Rand.Intn(int(LVL_POPUP))))
		s.AddCallback(extra)
		s.RemoveCallback(extra)
	}
	wg.Wait()
	s.Close()

	assert.Empty(t, ferr.String())
	entries := mem.Entries()
	require.Len(t, entries, _DATACOUNT_*_GOROUTINES_)

	next := make([]int, _GOROUTINES_)
	var lastSeq uint64
	for _, e := range entries {
		assert.Greater(t, e.Seq, lastSeq, "sequence numbers follow delivery order")
		lastSeq = e.Seq
		g, i, ok := strings.Cut(e.Message, ":")
		require.True(t, ok, e.Message)
		gn, _ := strconv.Atoi(g)
		in, _ := strconv.Atoi(i)
		require.Equal(t, next[gn], in, fmt.Sprintf("producer %d out of order", gn))
		next[gn]++
		assert.Equal(t, cats[gn%len(cats)], e.Category)
	}
}

/////////////////////////////////////////////////////////////////////////////////////////

func Test_Category_bits(t *testing.T) {
	assert.Equal(t, Category(1), CAT_TERRAIN)
	assert.Equal(t, Category(1<<7), CAT_GENERAL)
	assert.Equal(t, Category(1<<12), CAT_IO)
	assert.Equal(t, Category(1<<26), CAT_HEADLESS)
	assert.Equal(t, Category(1<<27), CAT_OSG)
	assert.Equal(t, Category(1<<28-1), CAT_ALL)
	cats := Categories()
	assert.Len(t, cats, 28)
	var all Category
	for i, c := range cats {
		assert.Equal(t, Category(1)<<i, c)
		all |= c
	}
	assert.Equal(t, CAT_ALL, all)
}

func Test_Category_String(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{CAT_NONE, "none"},
		{CAT_TERRAIN, "terrain"},
		{CAT_GL, "opengl"},
		{CAT_INSTR, "instruments"},
		{CAT_OSG, "OSG"},
		{CAT_IO | CAT_AI, "unknown"},
		{CAT_ALL, "unknown"},
		{1 << 30, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.String())
		})
	}
	assert.Equal(t, []string{"general", "io", "ai"}, (CAT_IO | CAT_AI | CAT_GENERAL).Names())
	assert.Empty(t, CAT_NONE.Names())
}

func Test_Priority_String(t *testing.T) {
	for p := range Priority(255) {
		switch {
		case p >= _LVL_MAX_for_checks_only, p == LVL_DEV_WARN, p == LVL_DEV_ALERT, p == LVL_UNKNOWN:
			assert.Equal(t, "UNKN", p.String(), fmt.Sprintf("Fail on %d", p))
		default:
			assert.Len(t, p.String(), _PRIORITY_NAME_WIDTH)
			assert.NotEqual(t, "UNKN", p.String())
		}
	}
	assert.Equal(t, "DBUG", LVL_DEBUG.String())
	assert.Equal(t, "POPU", LVL_POPUP.String())
}

func Test_ParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"bulk", LVL_BULK, false},
		{"DEBUG", LVL_DEBUG, false},
		{" info ", LVL_INFO, false},
		{"WARN", LVL_WARN, false},
		{"alrt", LVL_ALERT, false},
		{"dev_warn", LVL_DEV_WARN, false},
		{"dev_alert", LVL_DEV_ALERT, false},
		{"Popup", LVL_POPUP, false},
		{"unknown", LVL_UNKNOWN, true},
		{"UNKN", LVL_UNKNOWN, true},
		{"", LVL_UNKNOWN, true},
		{"loud", LVL_UNKNOWN, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownPriority)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_ParseCategories(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    Category
		wantErr bool
	}{
		{"nothing", nil, CAT_NONE, false},
		{"none", []string{"none"}, CAT_NONE, false},
		{"all", []string{"ALL"}, CAT_ALL, false},
		{"list", []string{"io", "network"}, CAT_IO | CAT_NETWORK, false},
		{"joined", []string{"io|ai, gui"}, CAT_IO | CAT_AI | CAT_GUI, false},
		{"osg", []string{"osg"}, CAT_OSG, false},
		{"empty_parts", []string{"io,,", ""}, CAT_IO, false},
		{"unknown", []string{"io", "warp"}, CAT_NONE, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategories(tt.in...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownCategory)
				assert.Contains(t, err.Error(), "`warp`")
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_normPriority(t *testing.T) {
	for p := range Priority(255) {
		if p < _LVL_MAX_for_checks_only {
			assert.Equal(t, p, normPriority(p))
		} else {
			assert.Equal(t, LVL_UNKNOWN, normPriority(p))
		}
	}
}

func Test_translatePriority(t *testing.T) {
	for p := range Priority(255) {
		for _, dev := range []bool{false, true} {
			got := translatePriority(p, dev)
			switch {
			case p == LVL_DEV_WARN && dev:
				assert.Equal(t, LVL_WARN, got)
			case p == LVL_DEV_WARN:
				assert.Equal(t, LVL_DEBUG, got)
			case p == LVL_DEV_ALERT && dev:
				assert.Equal(t, LVL_POPUP, got)
			case p == LVL_DEV_ALERT:
				assert.Equal(t, LVL_WARN, got)
			default:
				assert.Equal(t, p, got)
			}
		}
	}
}

func Test_passes(t *testing.T) {
	tests := []struct {
		name      string
		c         Category
		p         Priority
		mask      Category
		threshold Priority
		want      bool
	}{
		{"match", CAT_IO, LVL_WARN, CAT_IO, LVL_WARN, true},
		{"below", CAT_IO, LVL_INFO, CAT_IO, LVL_WARN, false},
		{"masked", CAT_AI, LVL_POPUP, CAT_IO, LVL_BULK, false},
		{"any_bit", CAT_AI | CAT_IO, LVL_WARN, CAT_IO, LVL_WARN, true},
		{"none", CAT_NONE, LVL_POPUP, CAT_ALL, LVL_BULK, false},
		{"osg", CAT_OSG, LVL_UNKNOWN, CAT_NONE, LVL_POPUP, true},
		{"osg_combined", CAT_OSG | CAT_IO, LVL_BULK, CAT_NONE, LVL_POPUP, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, passes(tt.c, tt.p, tt.mask, tt.threshold))
		})
	}
}

func Test_packFilter(t *testing.T) {
	for _, c := range []Category{CAT_NONE, CAT_TERRAIN, CAT_OSG, CAT_ALL, 0xffffffff} {
		for p := range _LVL_MAX_for_checks_only {
			gc, gp := unpackFilter(packFilter(c, p))
			assert.Equal(t, c, gc)
			assert.Equal(t, p, gp)
		}
	}
}

func Test_panicDesc(t *testing.T) {
	assert.Equal(t, ": `"+panicStr+"`", panicDesc(panicStr))
	assert.Equal(t, ": (error) `"+errorStr+"`", panicDesc(fmt.Errorf("%s", errorStr)))
	assert.Equal(t, " "+_ERROR_UNKNOWN_PANIC_TEXT, panicDesc(0))
	assert.Equal(t, " "+_ERROR_UNKNOWN_PANIC_TEXT, panicDesc(nil))
}
