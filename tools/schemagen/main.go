// Command schemagen emits a JSON Schema for the plan-submission wire
// format (orchestrator.StartPlanSpec / JobSpec, as parsed from a plan YAML
// file by cmd/missionctl), so external plan-authoring tooling can validate
// a plan file before calling `missionctl plan start`. StartPlanSpec and
// JobSpec carry no yaml tags, so the schema's property names are their Go
// field names (e.g. BaseBranch, TouchSet, LaunchSessionID), not the
// snake_case keys (base_branch, touch_set) that cmd/missionctl reads from
// the plan file; no property is marked required and additional properties
// are allowed. Grounded on the
// teacher's tools/schema-generator/main.go (invopop/jsonschema reflection
// over a Go struct, written to a *.schema.json file next to the binary).
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/nigel-dev/missionctl/internal/orchestrator"
)

func main() {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&orchestrator.StartPlanSpec{})
	schema.Title = "missionctl Plan"
	schema.Description = "Schema for a missionctl plan YAML file (plan start --file)."
	schema.Required = nil

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("marshaling plan schema: %v", err)
	}
	if err := os.WriteFile("plan.schema.json", data, 0644); err != nil {
		log.Fatalf("writing plan schema: %v", err)
	}
	log.Println("wrote plan.schema.json")

	jobSchema := r.Reflect(&orchestrator.JobSpec{})
	jobSchema.Title = "missionctl Job"
	jobSchema.Description = "Schema for a single job entry within a missionctl plan YAML file."
	jobSchema.Required = nil

	jobData, err := json.MarshalIndent(jobSchema, "", "  ")
	if err != nil {
		log.Fatalf("marshaling job schema: %v", err)
	}
	if err := os.WriteFile("plan-job.schema.json", jobData, 0644); err != nil {
		log.Fatalf("writing job schema: %v", err)
	}
	log.Println("wrote plan-job.schema.json")
}
