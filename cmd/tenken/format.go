package main

import (
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/aretw0/tenken/pkg/core"
	"github.com/aretw0/tenken/pkg/report"
)

func statusBadge(s core.Status, l report.Locale) string {
	label := l.StatusLabel(s)
	switch s {
	case core.StatusOK:
		return color.New(color.FgGreen).Sprint(label)
	case core.StatusAttention:
		return color.New(color.FgYellow).Sprint(label)
	case core.StatusIssue:
		return color.New(color.FgRed, color.Bold).Sprint(label)
	default:
		return color.New(color.Faint).Sprint(label)
	}
}

func activeMarker(active bool) string {
	if active {
		return color.New(color.FgHiMagenta).Sprint("*")
	}
	return " "
}

// resolveArea accepts an area id, a 1-based position or an exact name.
func resolveArea(sess interface{ Areas() []core.Area }, ref string) (core.Area, error) {
	areas := sess.Areas()
	ref = strings.TrimSpace(ref)
	for _, a := range areas {
		if a.ID == ref {
			return a, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(areas) {
		return areas[n-1], nil
	}
	var found []core.Area
	for i, a := range areas {
		if a.DisplayName(i) == ref {
			found = append(found, a)
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	return core.Area{}, core.ErrAreaNotFound
}

func answerCount(areas []core.Area) int {
	n := 0
	for _, a := range areas {
		n += len(a.Items)
	}
	return n
}
