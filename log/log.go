// Copyright 2018 The go-klaytn Authors
// This file is part of the go-klaytn library.
//
// The go-klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package log is a small leveled, module-scoped logger. It plays the role of
// the module's own "log" package referenced throughout the rest of the tree
// (log.NewModuleLogger, logger.Error, ...) without pulling in a full logging
// framework: terminal coloring comes from fatih/color and mattn/go-colorable,
// and the call site is resolved with go-stack/stack, exactly the three
// logging-adjacent dependencies the module already carries.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
)

// Lvl is a logging severity level.
type Lvl int

const (
	LvlCrit Lvl = iota
	LvlError
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlCrit:
		return "CRIT"
	case LvlError:
		return "ERROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DEBUG"
	case LvlTrace:
		return "TRACE"
	default:
		return "UNKNOWN"
	}
}

var levelColor = map[Lvl]color.Attribute{
	LvlCrit:  color.FgMagenta,
	LvlError: color.FgRed,
	LvlWarn:  color.FgYellow,
	LvlInfo:  color.FgGreen,
	LvlDebug: color.FgCyan,
	LvlTrace: color.FgWhite,
}

// Module names used by NewModuleLogger across the tree. Kept as an open set
// of strings rather than an enum so new components don't need to touch this
// file; the constants below just name the ones this module defines.
const (
	P2P     = "p2p"
	Sync    = "sync"
	Common  = "common"
	Storage = "storage"
	Node    = "node"
)

var (
	root       = &logger{ctx: nil, w: newHandler(os.Stderr)}
	globalLock sync.Mutex
	globalLvl  = LvlInfo
)

// SetGlobalLevel sets the minimum level that will be emitted by every
// logger sharing the root handler. The default level is LvlInfo.
func SetGlobalLevel(l Lvl) {
	globalLock.Lock()
	defer globalLock.Unlock()
	globalLvl = l
}

type handler struct {
	mu  sync.Mutex
	out io.Writer
}

func newHandler(w io.Writer) *handler {
	return &handler{out: colorable.NewColorableStderr()}
}

// Logger is a contextual, leveled logger. Call sites obtain one via New or
// NewModuleLogger and attach key/value pairs the way go-ethereum/klaytn's
// own logger does: logger.Info("message", "key", value, ...).
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

type logger struct {
	module string
	ctx    []interface{}
	w      *handler
}

// New returns a Logger scoped to the given key/value context, matching the
// teacher's log.New("database", file) call shape.
func New(ctx ...interface{}) Logger {
	return &logger{ctx: ctx, w: root.w}
}

// NewModuleLogger returns a Logger tagged with a module name (one of the
// constants above, or any caller-supplied string).
func NewModuleLogger(module string) Logger {
	return &logger{module: module, ctx: []interface{}{"module", module}, w: root.w}
}

func (l *logger) New(ctx ...interface{}) Logger {
	merged := make([]interface{}, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &logger{module: l.module, ctx: merged, w: l.w}
}

func (l *logger) log(lvl Lvl, msg string, ctx []interface{}) {
	globalLock.Lock()
	enabled := lvl <= globalLvl
	globalLock.Unlock()
	if !enabled {
		return
	}

	var caller string
	if cs := stack.Caller(2); true {
		caller = fmt.Sprintf("%+v", cs)
	}

	c := color.New(levelColor[lvl]).SprintFunc()

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s %s", time.Now().Format("2006-01-02T15:04:05.000"), c(lvl.String()), caller, msg)
	all := make([]interface{}, 0, len(l.ctx)+len(ctx))
	all = append(all, l.ctx...)
	all = append(all, ctx...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%v", all[i], all[i+1])
	}
	b.WriteByte('\n')

	l.w.mu.Lock()
	io.WriteString(l.w.out, b.String())
	l.w.mu.Unlock()

	if lvl == LvlCrit {
		os.Exit(1)
	}
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.log(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.log(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.log(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.log(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.log(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.log(LvlCrit, msg, ctx) }
