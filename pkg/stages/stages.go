package stages

import (
	"github.com/nithiin7/lang2query/pkg/ports"
)

// Dependencies are the collaborators behind the built-in stages.
type Dependencies struct {
	Classifier ports.Classifier
	Responder  ports.MetadataResponder
	Catalog    ports.SchemaCatalog
	Planner    ports.QueryPlanner
	Generator  ports.QueryGenerator
	Validator  ports.QueryValidator
}

// All builds the full stage set in pipeline order, ready for registration.
func All(d Dependencies) []ports.Stage {
	return []ports.Stage{
		NewRouter(d.Classifier),
		NewMetadataAgent(d.Responder),
		NewDatabaseIdentifier(d.Catalog),
		NewTableIdentifier(d.Catalog),
		NewColumnIdentifier(d.Catalog),
		NewSchemaBuilder(d.Catalog),
		NewQueryPlanner(d.Planner),
		NewQueryGenerator(d.Generator),
		NewQueryValidator(d.Validator),
	}
}
