package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestActionsFormatterWarningProperties(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf, Actions: true})

	l.WithFields(logrus.Fields{
		FieldFile:    "src/main.lua",
		FieldLine:    3,
		FieldEndLine: 4,
		FieldTitle:   "StyLua / src/main.lua#L3-L4 / Replace",
	}).Warn("local x = 1\n")

	assert.Equal(t,
		"::warning file=src/main.lua,line=3,endLine=4,title=StyLua / src/main.lua#L3-L4 / Replace::local x = 1%0A\n",
		buf.String())
}

func TestActionsFormatterLevels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf, Actions: true, Debug: true})

	l.Debug("probing")
	l.Info("Checked 2 files")
	l.WithField(FieldFile, "a.lua").Error("100% broken")

	assert.Equal(t, "::debug::probing\nChecked 2 files\n::error file=a.lua::100%25 broken\n", buf.String())
}

func TestActionsFormatterSkipsZeroEndLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf, Actions: true})

	l.WithFields(logrus.Fields{FieldFile: "a,b.lua", FieldLine: 2, FieldEndLine: 0}).Warn("x")

	assert.Equal(t, "::warning file=a%2Cb.lua,line=2::x\n", buf.String())
}

func TestGroups(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf, Actions: true})

	StartGroup(l, "Run StyLua")
	EndGroup(l)

	assert.Equal(t, "::group::Run StyLua\n::endgroup::\n", buf.String())
}

func TestDebugHiddenByDefault(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Out: &buf})

	l.Debug("hidden")

	assert.Empty(t, buf.String())
}
