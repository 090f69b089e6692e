// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCompleter() *Completer {
	c := NewCompleter(NewRegistry())
	c.ModelsFn = func() []string { return []string{"gemini-2.5-flash", "gemini-3-pro-preview"} }
	c.FilesFn = func(prefix string) []string { return []string{"out/", "out.png"} }
	return c
}

func values(completions []Completion) []string {
	out := make([]string, 0, len(completions))
	for _, c := range completions {
		out = append(out, c.Value)
	}
	return out
}

func TestCompleterComplete(t *testing.T) {
	c := newTestCompleter()

	assert.Equal(t, "/model", values(c.Complete("/mod"))[0])
	assert.Contains(t, values(c.Complete("/i")), "/img")
	assert.Contains(t, values(c.Complete("/i")), "/image")
	assert.Nil(t, c.Complete("hello"))
	assert.Nil(t, c.Complete("/unknown arg"))

	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-3-pro-preview"}, values(c.Complete("/model ")))
	assert.Equal(t, []string{"gemini-3-pro-preview"}, values(c.Complete("/model gemini-3")))
	assert.Equal(t, []string{"out.png"}, values(c.Complete("/save out.")))
	assert.Nil(t, c.Complete("/img a fox"))
}

func TestCompleterLines(t *testing.T) {
	c := newTestCompleter()

	assert.Equal(t, []string{"/model gemini-3-pro-preview"}, c.Lines("/model gemini-3"))
	assert.Contains(t, c.Lines("/cl"), "/clear")
	assert.Nil(t, c.Lines("plain text"))
}

func TestCalculateScore(t *testing.T) {
	assert.Greater(t, calculateScore("/help", "/help"), calculateScore("/help", "/he"))
	assert.Greater(t, calculateScore("/m", "/m"), calculateScore("/model", "/m"))
}

func TestSortCompletions(t *testing.T) {
	comps := []Completion{
		{Value: "b", Score: 10},
		{Value: "a", Score: 10},
		{Value: "c", Score: 50},
	}
	sortCompletions(comps)
	assert.Equal(t, []string{"c", "a", "b"}, values(comps))
}

func TestCompletionState(t *testing.T) {
	cs := NewCompletionState()
	assert.Equal(t, "", cs.Accept())

	cs.Update([]Completion{{Value: "/help"}, {Value: "/h"}})
	assert.True(t, cs.Visible)
	assert.Equal(t, "/help", cs.Accept())

	cs.Next()
	assert.Equal(t, "/h", cs.Accept())
	cs.Next()
	assert.Equal(t, "/help", cs.Accept())
	cs.Prev()
	assert.Equal(t, "/h", cs.Accept())

	cs.Clear()
	assert.False(t, cs.Visible)
	assert.Equal(t, -1, cs.Selected)
}
