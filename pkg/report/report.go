// Package report renders the completed answers of a session as plain text,
// CSV and a mailto link.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aretw0/tenken/pkg/core"
)

// Counts tallies completed answers per status.
type Counts struct {
	OK        int `json:"ok"`
	Attention int `json:"attention"`
	Issue     int `json:"issue"`
}

// Total is the number of completed answers.
func (c Counts) Total() int {
	return c.OK + c.Attention + c.Issue
}

func (c *Counts) add(s core.Status) {
	switch s {
	case core.StatusOK:
		c.OK++
	case core.StatusAttention:
		c.Attention++
	case core.StatusIssue:
		c.Issue++
	}
}

// SectionGroup is one checklist category with its completed answers.
type SectionGroup struct {
	ID    string
	Title string
	Items []core.CompletedItem
}

// AreaGroup is one inspection area.
type AreaGroup struct {
	ID       string
	Name     string
	Notes    string
	Counts   Counts
	Sections []SectionGroup
}

// Report is the grouped view every renderer works from.
type Report struct {
	Form   core.FormMeta
	Areas  []AreaGroup
	Counts Counts
}

// Build groups the completed answers of snap by area, then by section, in
// schema order.
func Build(snap core.Snapshot) Report {
	r := Report{Form: snap.Form}
	for i, a := range snap.Areas {
		g := AreaGroup{ID: a.ID, Name: a.DisplayName(i), Notes: a.Notes}
		for _, item := range snap.CompletedItems(a.ID) {
			g.Counts.add(item.Status)
			r.Counts.add(item.Status)
			n := len(g.Sections)
			if n == 0 || g.Sections[n-1].ID != item.SectionID {
				g.Sections = append(g.Sections, SectionGroup{ID: item.SectionID, Title: item.Section})
				n++
			}
			g.Sections[n-1].Items = append(g.Sections[n-1].Items, item)
		}
		r.Areas = append(r.Areas, g)
	}
	return r
}

// Text renders the plain-text report meant for email or chat.
func Text(snap core.Snapshot, l Locale) string {
	r := Build(snap)
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("%s", l.Greeting)
	line("")
	line("%s: %s", l.Facility, l.orMissing(r.Form.FacilityName))
	line("%s: %s", l.Location, l.orMissing(r.Form.FacilityLocation))
	line("%s: %s", l.Date, l.FormatDate(r.Form.InspectionDate))
	line("%s: %s", l.Inspector, l.orMissing(r.Form.InspectorName))
	line("")
	line("%s", l.Results)

	for _, area := range r.Areas {
		line("◆ %s", area.Name)
		if len(area.Sections) == 0 {
			line("(%s)", l.NoRecords)
		}
		for _, sec := range area.Sections {
			line("【%s】", sec.Title)
			for _, it := range sec.Items {
				if it.Note != "" {
					line("- %s: %s / %s: %s", it.Title, l.StatusLabel(it.Status), l.NoteLabel, it.Note)
				} else {
					line("- %s: %s", it.Title, l.StatusLabel(it.Status))
				}
			}
		}
		if strings.TrimSpace(area.Notes) != "" {
			line("%s: %s", l.AreaNotes, area.Notes)
		}
		line("")
	}

	if strings.TrimSpace(r.Form.GlobalNotes) != "" {
		line("%s", l.Notes)
		line("%s", r.Form.GlobalNotes)
		line("")
	}
	b.WriteString(l.Closing)
	return b.String()
}

// WriteCSV writes a header row and one row per completed answer.
func WriteCSV(w io.Writer, snap core.Snapshot, l Locale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(l.CSVHeader); err != nil {
		return err
	}
	for _, area := range Build(snap).Areas {
		for _, sec := range area.Sections {
			for _, it := range sec.Items {
				row := []string{area.Name, sec.Title, it.ItemID, it.Title, l.StatusLabel(it.Status), it.Note}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// Subject returns the default mail subject for snap.
func Subject(snap core.Snapshot, l Locale) string {
	return fmt.Sprintf(l.Subject, l.orMissing(snap.Form.FacilityName))
}

// MailtoURL builds a mailto: link (RFC 6068). Spaces are encoded as %20 and
// line breaks as CRLF.
func MailtoURL(recipient, subject, body string) string {
	var b strings.Builder
	b.WriteString("mailto:")
	b.WriteString(mailtoEscape(strings.TrimSpace(recipient), true))

	var params []string
	if subject != "" {
		params = append(params, "subject="+mailtoEscape(subject, false))
	}
	if body != "" {
		body = strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n")
		params = append(params, "body="+mailtoEscape(body, false))
	}
	if len(params) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(params, "&"))
	}
	return b.String()
}

func mailtoEscape(s string, address bool) string {
	out := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	if address {
		out = strings.NewReplacer("%40", "@", "%2C", ",").Replace(out)
	}
	return out
}
