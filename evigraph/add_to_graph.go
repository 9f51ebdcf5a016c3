package evigraph

import "fmt"

// AddToGraphResult is the structured payload the add_to_graph tool returns
// on both success and rejection, mirroring the original Python
// implementation's isinstance(e, dict) runtime check: even though callers
// are expected to pass a typed shape, the actual check performed here is
// "is this a mapping with the right keys", and anything else fails the
// call outright rather than panicking or a type-assertion crash.
type AddToGraphResult struct {
	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	EntitiesCreated int    `json:"entities_created,omitempty"`
	RelationsAdded  int    `json:"relations_added,omitempty"`
}

// AddToGraph accepts a mapping-shaped payload of the form
//
//	{"entities": [{"name":..., "entity_type":..., "observations": [...]}, ...],
//	 "relations": [{"from":..., "to":..., "type":...}, ...]}
//
// decoded from JSON (or passed as map[string]any directly by a Go caller).
// Validation happens in full before anything is written: the first entity
// or relation entry that is not a mapping with the expected string fields
// aborts the entire call with Success: false and nothing is created, even
// if every other entry was valid. There is no partial creation.
func (m *Manager) AddToGraph(input map[string]any) AddToGraphResult {
	var entities []EntityInput
	var relations []Relation

	rawEntities, _ := input["entities"].([]any)
	for i, re := range rawEntities {
		em, ok := re.(map[string]any)
		if !ok {
			return AddToGraphResult{Success: false, Error: fmt.Sprintf("invalid entity format: entities[%d] is not a mapping", i)}
		}
		name, _ := em["name"].(string)
		entityType, hasType := em["entity_type"].(string)
		if name == "" || !hasType {
			return AddToGraphResult{Success: false, Error: fmt.Sprintf("entity missing required fields 'name' or 'entity_type': entities[%d]", i)}
		}
		var obs []string
		if rawObs, ok := em["observations"].([]any); ok {
			for _, o := range rawObs {
				if s, ok := o.(string); ok {
					obs = append(obs, s)
				}
			}
		}
		entities = append(entities, EntityInput{Name: name, EntityType: entityType, Observations: obs})
	}

	rawRelations, _ := input["relations"].([]any)
	for i, rr := range rawRelations {
		rm, ok := rr.(map[string]any)
		if !ok {
			return AddToGraphResult{Success: false, Error: fmt.Sprintf("invalid relation format: relations[%d] is not a mapping", i)}
		}
		from, _ := rm["from"].(string)
		to, _ := rm["to"].(string)
		typ, _ := rm["type"].(string)
		if from == "" || to == "" || typ == "" {
			return AddToGraphResult{Success: false, Error: fmt.Sprintf("relation missing required fields 'from', 'to', or 'type': relations[%d]", i)}
		}
		relations = append(relations, Relation{From: from, To: to, Type: typ})
	}

	if len(entities) == 0 && len(relations) == 0 {
		return AddToGraphResult{Success: false, Error: "no data provided: supply at least one of entities or relations"}
	}

	if len(entities) > 0 {
		if err := m.CreateEntities(entities); err != nil {
			return AddToGraphResult{Success: false, Error: err.Error()}
		}
	}
	if len(relations) > 0 {
		if err := m.CreateRelations(relations); err != nil {
			return AddToGraphResult{Success: false, Error: err.Error()}
		}
	}
	return AddToGraphResult{
		Success:         true,
		EntitiesCreated: len(entities),
		RelationsAdded:  len(relations),
	}
}
