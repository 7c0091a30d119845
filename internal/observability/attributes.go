// Package observability provides OpenTelemetry metrics for the pipeline.
package observability

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys
const (
	attrMachine = "machine"
	attrStep    = "step"
	attrSuccess = "success"
)

func machineAttr(machine string) attribute.KeyValue {
	return attribute.String(attrMachine, machine)
}

func stepAttr(step string) attribute.KeyValue {
	return attribute.String(attrStep, step)
}

func successAttr(success bool) attribute.KeyValue {
	return attribute.Bool(attrSuccess, success)
}
