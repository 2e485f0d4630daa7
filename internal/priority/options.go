// Package priority implements the task priority selector: the fixed option
// list, its icons and the open/pending state around a single task update.
package priority

import "taskspace/internal/model"

// Option is one selectable priority level.
type Option struct {
	Value model.Priority
	Label string
}

// Options lists the selectable priorities in display order.
var Options = []Option{
	{Value: model.PriorityNone, Label: "No Priority"},
	{Value: model.PriorityLow, Label: "Low"},
	{Value: model.PriorityMedium, Label: "Medium"},
	{Value: model.PriorityHigh, Label: "High"},
	{Value: model.PriorityUrgent, Label: "Urgent"},
}

// Label returns the display label for p, or "" for an unknown value.
func Label(p model.Priority) string {
	for _, o := range Options {
		if o.Value == p {
			return o.Label
		}
	}
	return ""
}

// IconProvider maps a priority to the icon rendered next to it.
type IconProvider interface {
	Icon(p model.Priority) string
}

// DefaultIcons is the icon set used when none is supplied.
var DefaultIcons IconProvider = iconMap{
	model.PriorityNone:   "priority-none",
	model.PriorityLow:    "priority-low",
	model.PriorityMedium: "priority-medium",
	model.PriorityHigh:   "priority-high",
	model.PriorityUrgent: "priority-urgent",
}

type iconMap map[model.Priority]string

func (m iconMap) Icon(p model.Priority) string {
	return m[p]
}
