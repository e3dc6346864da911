package openapi

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-adminform/pkg/schema"
)

const specFixture = `
openapi: 3.0.3
info:
  title: Config Admin
  version: 1.0.0
paths: {}
components:
  schemas:
    Model:
      type: object
      title: Model
      required: [name]
      properties:
        name:
          type: string
          title: Name
          pattern: "^[a-z_]+$"
        retention:
          type: integer
          minimum: 1
        cached:
          type: boolean
          nullable: true
        engine:
          $ref: "#/components/schemas/Engine"
        fields:
          type: array
          minItems: 1
          items:
            $ref: "#/components/schemas/Column"
    Engine:
      type: string
      enum: [innodb, myisam]
    Column:
      type: object
      properties:
        name:
          type: string
      required: [name]
`

func loadFixture(t *testing.T) schema.Definitions {
	t.Helper()
	defs, err := Definitions(context.Background(), []byte(specFixture))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return defs
}

func TestDefinitions_ConvertsComponents(t *testing.T) {
	defs := loadFixture(t)

	for _, name := range []string{"Model", "Engine", "Column"} {
		if _, ok := defs[name]; !ok {
			t.Fatalf("missing definition %q", name)
		}
	}

	model := defs["Model"]
	if model.Type() != "object" || model.Title != "Model" {
		t.Fatalf("unexpected model: %+v", model)
	}
	if diff := cmp.Diff([]string{"name"}, model.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}

	name := model.Properties["name"]
	if name.Type() != "string" || name.Pattern != "^[a-z_]+$" {
		t.Fatalf("unexpected name property: %+v", name)
	}

	retention := model.Properties["retention"]
	if retention.Minimum == nil || *retention.Minimum != 1 {
		t.Fatalf("minimum not converted: %+v", retention)
	}

	cached := model.Properties["cached"]
	if !cached.AllowsNull() {
		t.Fatalf("nullable not converted: %+v", cached)
	}

	fields := model.Properties["fields"]
	if fields.MinItems == nil || *fields.MinItems != 1 {
		t.Fatalf("minItems not converted: %+v", fields)
	}
}

func TestDefinitions_RewritesReferences(t *testing.T) {
	defs := loadFixture(t)

	engineRef := defs["Model"].Properties["engine"]
	if engineRef.Ref != "#/definitions/Engine" {
		t.Fatalf("ref = %q", engineRef.Ref)
	}

	resolved, err := schema.Resolve("engine", engineRef, defs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.HasEnum() {
		t.Fatalf("resolved ref lost its enum: %+v", resolved)
	}

	items, err := schema.ResolveItems("fields", defs["Model"].Properties["fields"], defs)
	if err != nil {
		t.Fatalf("resolve items: %v", err)
	}
	if items.Type() != "object" {
		t.Fatalf("items type = %q", items.Type())
	}
}

func TestDocument_SelectsRoot(t *testing.T) {
	defs := loadFixture(t)

	doc, err := Document(defs, "Model")
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Root != defs["Model"] {
		t.Fatal("root is not the named component")
	}

	if _, err := Document(defs, "Engine"); err == nil {
		t.Fatal("non-object root accepted")
	}
	if _, err := Document(defs, "Missing"); err == nil {
		t.Fatal("unknown component accepted")
	}
}

func TestDefinitions_RejectsEmptyAndSchemaless(t *testing.T) {
	if _, err := Definitions(context.Background(), nil); err == nil {
		t.Fatal("empty payload accepted")
	}
	noComponents := []byte("openapi: 3.0.3\ninfo: {title: x, version: '1'}\npaths: {}\n")
	if _, err := Definitions(context.Background(), noComponents); err == nil {
		t.Fatal("document without components accepted")
	}
}
