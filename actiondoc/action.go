package actiondoc

import (
	"maps"
	"time"

	"github.com/shibukawa/sqlverify/queryaction"
	"github.com/shibukawa/sqlverify/statement"
)

// Defaults are used for settings a document leaves out.
type Defaults struct {
	MaxRetries   int
	RetryPause   time.Duration
	LegacyExport bool
}

// DefaultDefaults matches queryaction.NewAction.
func DefaultDefaults() Defaults {
	return Defaults{
		MaxRetries:   queryaction.DefaultMaxRetries,
		RetryPause:   queryaction.DefaultRetryPause,
		LegacyExport: true,
	}
}

// ToAction builds the query action described by the document.
func (d *Document) ToAction(defaults Defaults) *queryaction.Action {
	action := queryaction.NewAction(d.Name)

	action.MaxRetries = defaults.MaxRetries
	if d.MaxRetries != nil {
		action.MaxRetries = *d.MaxRetries
	}

	action.RetryPause = defaults.RetryPause
	if d.RetryPause != nil {
		action.RetryPause = *d.RetryPause
	}

	action.LegacyExport = defaults.LegacyExport
	if d.LegacyExport != nil {
		action.LegacyExport = *d.LegacyExport
	}

	action.Statements = append([]string(nil), d.Statements...)

	if d.StatementBlock != "" {
		label := d.Path
		if label == "" {
			label = d.Name
		}

		action.Resource = statement.TextResource{Label: label, Text: d.StatementBlock}
	}

	maps.Copy(action.Expected, d.Expected)
	maps.Copy(action.Extract, d.Extract)

	return action
}
