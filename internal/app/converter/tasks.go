package converter

import (
	"strings"

	"github.com/quiettype/evernote2obsidian/internal/domain/evernote"
)

const taskTimeLayout = "2006-01-02 15:04:05 -07:00"

// FormatTaskGroups renders every task group of a note as checklist
// lines, keyed by the group id its placeholder block references. Tasks
// keep the order the archive returns them in.
func FormatTaskGroups(tasks []evernote.Task) map[string]string {
	if len(tasks) == 0 {
		return nil
	}
	groups := make(map[string][]string)
	for _, t := range tasks {
		groups[t.GroupID] = append(groups[t.GroupID], formatTask(t))
	}
	out := make(map[string]string, len(groups))
	for id, lines := range groups {
		out[id] = strings.Join(lines, "\n")
	}
	return out
}

func formatTask(t evernote.Task) string {
	var b strings.Builder
	if t.Completed() {
		b.WriteString("- [x] ")
	} else {
		b.WriteString("- [ ] ")
	}
	if t.Flag {
		b.WriteString("🚩 ")
	}
	b.WriteString(t.Label)
	if t.DueDate != 0 {
		b.WriteString(" 📅 ")
		b.WriteString(evernote.LocalTime(t.DueDate, t.TimeZone).Format(taskTimeLayout))
	}
	for _, r := range t.Reminders {
		if r.Active() {
			b.WriteString(" 🔔")
		} else {
			b.WriteString(" 🔕")
		}
		if r.ReminderDate != 0 {
			b.WriteString(" ")
			b.WriteString(evernote.LocalTime(r.ReminderDate, r.TimeZone).Format(taskTimeLayout))
		}
	}
	return b.String()
}
