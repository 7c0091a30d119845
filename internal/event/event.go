// Package event builds CloudEvents for nightly pipeline callbacks.
package event

import (
	"nightly/pkg/cloudevent"
)

// Event types for pipeline callbacks
const (
	TypeStepStart        = "nightly.step.start"
	TypeStepExit         = "nightly.step.exit"
	TypeReportPublished  = "nightly.report.published"
	TypeArchivePublished = "nightly.archive.published"
)

// Builder builds CloudEvents for one machine's pipeline run.
type Builder struct {
	source  string
	machine string
}

// NewBuilder creates a Builder. The machine name becomes the event subject.
func NewBuilder(machine, source string) *Builder {
	return &Builder{
		source:  source,
		machine: machine,
	}
}

// Build creates a new CloudEvent with the given type and data.
func (b *Builder) Build(eventType string, data map[string]any) *cloudevent.CloudEvent {
	return cloudevent.New(eventType, b.source, b.machine, data)
}

// StepStart creates a step start event.
func (b *Builder) StepStart(stepName string) *cloudevent.CloudEvent {
	return b.Build(TypeStepStart, map[string]any{
		"machine": b.machine,
		"step":    stepName,
	})
}

// StepExit creates a step exit event.
func (b *Builder) StepExit(stepName string, exitCode int, err error) *cloudevent.CloudEvent {
	data := map[string]any{
		"machine":  b.machine,
		"step":     stepName,
		"exitCode": exitCode,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	return b.Build(TypeStepExit, data)
}

// ReportPublished creates a report event carrying the report summary.
func (b *Builder) ReportPublished(summary map[string]any) *cloudevent.CloudEvent {
	return b.Build(TypeReportPublished, summary)
}

// ArchivePublished creates an archive event for a committed report.
func (b *Builder) ArchivePublished(archived, fragment string) *cloudevent.CloudEvent {
	return b.Build(TypeArchivePublished, map[string]any{
		"machine":  b.machine,
		"archived": archived,
		"fragment": fragment,
	})
}
