package logstream

/*
Package-wide constants, enums and helper utilities:
  - priority and category values with their display names
  - default sizes and values
  - enums for stream state and queue item kinds
  - parsing, normalization and filter packing helpers
*/

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Priority values. Ordering defines "at least as severe as". The two
	// LVL_DEV_* values are virtual: Log/WouldLog remap them to a concrete
	// level depending on developer mode before any filtering happens.
	LVL_UNKNOWN Priority = iota
	LVL_BULK
	LVL_DEBUG
	LVL_INFO
	LVL_WARN
	LVL_ALERT
	LVL_DEV_WARN  // WARN in developer mode, DEBUG otherwise
	LVL_DEV_ALERT // POPUP in developer mode, WARN otherwise
	LVL_POPUP
	_LVL_MAX_for_checks_only
)

const (
	CAT_NONE    Category = 0
	CAT_TERRAIN Category = 1 << (iota - 1)
	CAT_ASTRO
	CAT_FLIGHT
	CAT_INPUT
	CAT_GL
	CAT_VIEW
	CAT_COCKPIT
	CAT_GENERAL
	CAT_MATH
	CAT_EVENT
	CAT_AIRCRAFT
	CAT_AUTOPILOT
	CAT_IO
	CAT_CLIPPER
	CAT_NETWORK
	CAT_ATC
	CAT_NASAL
	CAT_INSTR
	CAT_SYSTEMS
	CAT_AI
	CAT_ENVIRONMENT
	CAT_SOUND
	CAT_NAVAID
	CAT_GUI
	CAT_TERRASYNC
	CAT_PARTICLES
	CAT_HEADLESS
	CAT_OSG // reserved: always passes filters, its emitter is configured separately
	_CAT_UNDEFINED
	CAT_ALL = _CAT_UNDEFINED - 1
)

const (
	// Default values for short init forms
	DEFAULT_CATEGORIES = CAT_ALL
	DEFAULT_PRIORITY   = LVL_ALERT
	DEFAULT_COLUMNS    = 16  // hexdump row width when 0 is requested
	MAX_COLUMNS        = 120 // widest hexdump row, keeps a row under 500 bytes
	NO_LINE            = -1 // Entry.Line value meaning "no source location"
)

const (
	// Stream lifecycle states.
	_STATE_UNKNOWN lgrState = iota
	_STATE_ACTIVE
	_STATE_STOPPING
	_STATE_STOPPED
	_STATE_MAX_for_checks_only
)

const (
	// Queue item kinds.
	_ITEM_FORBIDDEN itemKind = iota // only to test panic recovery in procced()
	_ITEM_ENTRY
	_ITEM_STOP
	_ITEM_MAX_for_checks_only
)

const (
	_PRIORITY_NAME_WIDTH  = 4
	_CATEGORY_NAME_WIDTH  = 10
	_FALLBACK_TIME_FORMAT = "2006-01-02 15:04:05.000 "
)

/////////////////////////////////////////////////////////////////////////////////////////

// PriorityMap is a fixed-size array with one entry per priority.
type PriorityMap [_LVL_MAX_for_checks_only]string

// Four-letter priority codes used by the text sinks.
var PriorityCodes = &PriorityMap{
	"UNKN", //LVL_UNKNOWN
	"BULK", //LVL_BULK
	"DBUG", //LVL_DEBUG
	"INFO", //LVL_INFO
	"WARN", //LVL_WARN
	"ALRT", //LVL_ALERT
	"UNKN", //LVL_DEV_WARN (never stored, always translated)
	"UNKN", //LVL_DEV_ALERT (never stored, always translated)
	"POPU", //LVL_POPUP
}

// Long priority names accepted by ParsePriority.
var PriorityNames = &PriorityMap{
	"unknown",
	"bulk",
	"debug",
	"info",
	"warn",
	"alert",
	"dev_warn",
	"dev_alert",
	"popup",
}

type categoryName struct {
	cat  Category
	name string
}

// Display tags in bit order. Kept as a slice so listings are stable.
var categoryNames = []categoryName{
	{CAT_TERRAIN, "terrain"},
	{CAT_ASTRO, "astro"},
	{CAT_FLIGHT, "flight"},
	{CAT_INPUT, "input"},
	{CAT_GL, "opengl"},
	{CAT_VIEW, "view"},
	{CAT_COCKPIT, "cockpit"},
	{CAT_GENERAL, "general"},
	{CAT_MATH, "math"},
	{CAT_EVENT, "event"},
	{CAT_AIRCRAFT, "aircraft"},
	{CAT_AUTOPILOT, "autopilot"},
	{CAT_IO, "io"},
	{CAT_CLIPPER, "clipper"},
	{CAT_NETWORK, "network"},
	{CAT_ATC, "atc"},
	{CAT_NASAL, "nasal"},
	{CAT_INSTR, "instruments"},
	{CAT_SYSTEMS, "systems"},
	{CAT_AI, "ai"},
	{CAT_ENVIRONMENT, "environment"},
	{CAT_SOUND, "sound"},
	{CAT_NAVAID, "navaid"},
	{CAT_GUI, "gui"},
	{CAT_TERRASYNC, "terrasync"},
	{CAT_PARTICLES, "particles"},
	{CAT_HEADLESS, "headless"},
	{CAT_OSG, "OSG"},
}

var (
	ErrUnknownPriority = errors.New("unknown priority")
	ErrUnknownCategory = errors.New("unknown category")
)

// String returns the four-letter display code of the priority.
func (p Priority) String() string {
	return PriorityCodes[normPriority(p)]
}

// String returns the lowercase display tag of a single category. Combined or
// unknown values give "unknown", CAT_NONE gives "none".
func (c Category) String() string {
	if c == CAT_NONE {
		return "none"
	}
	for _, cn := range categoryNames {
		if cn.cat == c {
			return cn.name
		}
	}
	return "unknown"
}

// Names returns the display tags of every defined bit set in c.
func (c Category) Names() []string {
	var names []string
	for _, cn := range categoryNames {
		if c&cn.cat != 0 {
			names = append(names, cn.name)
		}
	}
	return names
}

// Categories returns every single-bit category in bit order.
func Categories() []Category {
	cats := make([]Category, 0, len(categoryNames))
	for _, cn := range categoryNames {
		cats = append(cats, cn.cat)
	}
	return cats
}

// ParsePriority accepts a long name ("warn", "dev_alert") or a four-letter
// code ("WARN", "DBUG"), case-insensitively.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for p := LVL_BULK; p < _LVL_MAX_for_checks_only; p++ {
		if strings.EqualFold(s, PriorityNames[p]) || strings.EqualFold(s, PriorityCodes[p]) && PriorityCodes[p] != "UNKN" {
			return p, nil
		}
	}
	return LVL_UNKNOWN, fmt.Errorf("%w `%s`", ErrUnknownPriority, s)
}

// ParseCategories ORs the named categories together. "all" and "none" are
// accepted, as is a "|" or "," separated list inside a single name.
func ParseCategories(names ...string) (Category, error) {
	var c Category
	for _, name := range names {
		for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '|' || r == ',' }) {
			part = strings.TrimSpace(part)
			switch {
			case part == "":
			case strings.EqualFold(part, "all"):
				c |= CAT_ALL
			case strings.EqualFold(part, "none"):
			default:
				found := false
				for _, cn := range categoryNames {
					if strings.EqualFold(part, cn.name) {
						c |= cn.cat
						found = true
						break
					}
				}
				if !found {
					return CAT_NONE, fmt.Errorf("%w `%s`", ErrUnknownCategory, part)
				}
			}
		}
	}
	return c, nil
}

// Generic byte normalization helper.
func norm_byte[T ~byte](val, overlimit, def T) T {
	if val < overlimit {
		return val
	} else {
		return def
	}
}

// Ensures a provided lgrState is within the valid range
func normState(state lgrState) lgrState {
	return norm_byte(state, _STATE_MAX_for_checks_only, _STATE_UNKNOWN)
}

// Ensures a provided Priority is within the valid range
func normPriority(p Priority) Priority {
	return norm_byte(p, _LVL_MAX_for_checks_only, LVL_UNKNOWN)
}

// translatePriority resolves the virtual developer levels. Every other value
// is returned unchanged.
func translatePriority(p Priority, devMode bool) Priority {
	switch p {
	case LVL_DEV_WARN:
		if devMode {
			return LVL_WARN
		}
		return LVL_DEBUG
	case LVL_DEV_ALERT:
		if devMode {
			return LVL_POPUP
		}
		return LVL_WARN
	}
	return p
}

// passes is the single filter rule shared by callbacks and the stream.
func passes(c Category, p Priority, mask Category, threshold Priority) bool {
	return (c&mask != 0 && p >= threshold) || c == CAT_OSG
}

// packFilter stores mask and threshold in one word so both can be swapped
// with a single atomic store.
func packFilter(c Category, p Priority) uint64 {
	return uint64(c) | uint64(p)<<32
}

func unpackFilter(v uint64) (Category, Priority) {
	return Category(uint32(v)), Priority(byte(v >> 32))
}

// Converts a panic value into a compact readable string (used when
// translating panics into errors or fallback messages)
func panicDesc(panic any) (errtext string) {
	switch v := panic.(type) {
	case string:
		errtext = ": `" + v + "`"
	case error:
		errtext = ": (error) `" + v.Error() + "`"
	default:
		errtext = " " + _ERROR_UNKNOWN_PANIC_TEXT
	}
	return errtext
}
