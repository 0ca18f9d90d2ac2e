package profile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/JonMunkholm/csvlint/internal/csvcheck"
)

// Schema message codes. They start above the structural codes so the two
// ranges never collide in a report.
const (
	CodeMissingColumn    csvcheck.Code = 101
	CodeUnexpectedColumn csvcheck.Code = 102
	CodeColumnPosition   csvcheck.Code = 103
	CodeDuplicateColumn  csvcheck.Code = 104
)

// HeaderChecker compares a file's header names with the profile columns.
// Names are matched case-insensitively after surrounding quotes and blanks
// are removed. quote is the quoting rune the file was validated with.
func (p *Profile) HeaderChecker(quote rune) csvcheck.HeaderChecker {
	byName := make(map[string]Column, len(p.Columns))
	for _, c := range p.Columns {
		byName[strings.ToLower(c.Name)] = c
	}

	return csvcheck.HeaderCheckerFunc(func(names []string) []csvcheck.Message {
		var msgs []csvcheck.Message
		seen := make(map[string]bool, len(names))

		for i, raw := range names {
			label := HeaderLabel(raw, quote)
			if label == "" {
				continue
			}
			field := i + 1
			key := strings.ToLower(label)

			col, ok := byName[key]
			if !ok {
				msgs = append(msgs, schemaMessage(CodeUnexpectedColumn, csvcheck.SeverityWarning,
					fmt.Sprintf("column %q is not defined by profile %q", label, p.Name), field, label))
				continue
			}
			if seen[key] {
				msgs = append(msgs, schemaMessage(CodeDuplicateColumn, csvcheck.SeverityWarning,
					fmt.Sprintf("column %q appears more than once", label), field, label))
				continue
			}
			seen[key] = true

			if col.Ordinal != field {
				msgs = append(msgs, schemaMessage(CodeColumnPosition, csvcheck.SeverityInformation,
					fmt.Sprintf("column %q is at position %d, expected position %d", label, field, col.Ordinal), field, label))
			}
		}

		cols := append([]Column(nil), p.Columns...)
		sort.SliceStable(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })
		for _, c := range cols {
			if seen[strings.ToLower(c.Name)] {
				continue
			}
			sev, kind := csvcheck.SeverityWarning, "optional"
			if c.Required {
				sev, kind = csvcheck.SeverityError, "required"
			}
			msgs = append(msgs, schemaMessage(CodeMissingColumn, sev,
				fmt.Sprintf("%s column %q is missing", kind, c.Name), -1, c.Name))
		}

		return msgs
	})
}

// HeaderLabel returns the display form of a raw header name: blanks trimmed,
// enclosing quotes removed and doubled quotes collapsed.
func HeaderLabel(raw string, quote rune) string {
	s := strings.TrimSpace(raw)
	q := string(quote)
	if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
		s = s[len(q) : len(s)-len(q)]
		s = strings.ReplaceAll(s, q+q, q)
	}
	return strings.TrimSpace(s)
}

func schemaMessage(code csvcheck.Code, sev csvcheck.Severity, content string, field int, name string) csvcheck.Message {
	return csvcheck.Message{
		Code:      code,
		Severity:  sev,
		Content:   content,
		Kind:      csvcheck.KindSchema,
		Row:       1,
		Field:     field,
		FieldName: name,
		Offset:    -1,
	}
}
