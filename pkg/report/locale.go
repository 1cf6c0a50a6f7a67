package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/tenken/pkg/core"
)

// Locale holds the user-facing strings of a report.
type Locale struct {
	Name       string
	Status     map[core.Status]string
	Missing    string
	Greeting   string
	Closing    string
	Facility   string
	Location   string
	Date       string
	Inspector  string
	Results    string
	Notes      string
	AreaNotes  string
	NoteLabel  string
	NoRecords  string
	Subject    string // fmt pattern taking the facility name
	DateLayout string
	CSVHeader  []string
}

// Japanese is the default locale.
var Japanese = Locale{
	Name: "ja",
	Status: map[core.Status]string{
		core.StatusOK:        "適合",
		core.StatusAttention: "注意",
		core.StatusIssue:     "不適合",
	},
	Missing:    "未入力",
	Greeting:   "以下のとおり施設安全点検を実施しました。",
	Closing:    "以上、確認をお願いいたします。",
	Facility:   "施設名",
	Location:   "所在地",
	Date:       "点検日",
	Inspector:  "点検者",
	Results:    "■ 点検結果",
	Notes:      "■ 特記事項",
	AreaNotes:  "エリア備考",
	NoteLabel:  "備考",
	NoRecords:  "記録なし",
	Subject:    "施設安全点検結果（%s）",
	DateLayout: "2006年01月02日",
	CSVHeader:  []string{"エリア", "カテゴリ", "項目ID", "項目", "ステータス", "備考"},
}

// English is the alternative locale.
var English = Locale{
	Name: "en",
	Status: map[core.Status]string{
		core.StatusOK:        "OK",
		core.StatusAttention: "Attention",
		core.StatusIssue:     "Issue",
	},
	Missing:    "not entered",
	Greeting:   "The facility safety inspection was carried out as follows.",
	Closing:    "Please review.",
	Facility:   "Facility",
	Location:   "Location",
	Date:       "Date",
	Inspector:  "Inspector",
	Results:    "■ Results",
	Notes:      "■ Remarks",
	AreaNotes:  "Area notes",
	NoteLabel:  "Note",
	NoRecords:  "no records",
	Subject:    "Facility safety inspection (%s)",
	DateLayout: "2006-01-02",
	CSVHeader:  []string{"Area", "Category", "Item ID", "Item", "Status", "Note"},
}

// LocaleFor returns the locale named by tag ("" means Japanese).
func LocaleFor(tag string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "ja", "ja-jp":
		return Japanese, nil
	case "en", "en-us", "en-gb":
		return English, nil
	default:
		return Locale{}, fmt.Errorf("unsupported locale %q (want ja or en)", tag)
	}
}

// StatusLabel returns the display label of s; unset renders as Missing.
func (l Locale) StatusLabel(s core.Status) string {
	if label, ok := l.Status[s]; ok {
		return label
	}
	return l.Missing
}

// FormatDate renders an ISO date (YYYY-MM-DD). Empty values render as
// Missing and unparsable values are returned unchanged.
func (l Locale) FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return l.Missing
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(l.DateLayout)
		}
	}
	return value
}

// FormatDate formats with the default locale.
func FormatDate(value string) string {
	return Japanese.FormatDate(value)
}

func (l Locale) orMissing(v string) string {
	if strings.TrimSpace(v) == "" {
		return l.Missing
	}
	return v
}
