package http

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services. Field names
// follow the JSON tags of the domain types so the default resolver applies.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	emissionFactorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "EmissionFactor",
		Fields: graphql.Fields{
			"mode":  &graphql.Field{Type: graphql.String},
			"perKm": &graphql.Field{Type: graphql.Float},
		},
	})

	accommodationFactorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AccommodationFactor",
		Fields: graphql.Fields{
			"type":       &graphql.Field{Type: graphql.String},
			"perNightKg": &graphql.Field{Type: graphql.Float},
		},
	})

	catalogType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FactorCatalog",
		Fields: graphql.Fields{
			"modes":            &graphql.Field{Type: graphql.NewList(emissionFactorType)},
			"accommodations":   &graphql.Field{Type: graphql.NewList(accommodationFactorType)},
			"defaultMode":      &graphql.Field{Type: graphql.String},
			"treeKgPerYear":    &graphql.Field{Type: graphql.Float},
			"ledBulbKgPerYear": &graphql.Field{Type: graphql.Float},
		},
	})

	modeEmissionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ModeEmissions",
		Fields: graphql.Fields{
			"mode":             &graphql.Field{Type: graphql.String},
			"label":            &graphql.Field{Type: graphql.String},
			"totalEmissionsKg": &graphql.Field{Type: graphql.Float},
			"perKm":            &graphql.Field{Type: graphql.Float},
		},
	})

	modeAmountType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ModeAmount",
		Fields: graphql.Fields{
			"mode":        &graphql.Field{Type: graphql.String},
			"emissionsKg": &graphql.Field{Type: graphql.Float},
		},
	})

	dailyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DailyEmissions",
		Fields: graphql.Fields{
			"day":        &graphql.Field{Type: graphql.String},
			"dayIndex":   &graphql.Field{Type: graphql.Int},
			"distanceKm": &graphql.Field{Type: graphql.Float},
			"byMode": &graphql.Field{
				Type: graphql.NewList(modeAmountType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					d, ok := p.Source.(domain.DailyEmissions)
					if !ok {
						return nil, nil
					}
					return modeAmounts(deps.Footprints.TransportModes(), d.ByMode), nil
				},
			},
		},
	})

	offsetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "OffsetSuggestion",
		Fields: graphql.Fields{
			"treesToPlant":       &graphql.Field{Type: graphql.Int},
			"ledBulbsEquivalent": &graphql.Field{Type: graphql.Int},
		},
	})

	accommodationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AccommodationEmissions",
		Fields: graphql.Fields{
			"type":       &graphql.Field{Type: graphql.String},
			"nights":     &graphql.Field{Type: graphql.Int},
			"perNightKg": &graphql.Field{Type: graphql.Float},
			"totalKg":    &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"minLat": &graphql.Field{Type: graphql.Float},
			"minLon": &graphql.Field{Type: graphql.Float},
			"maxLat": &graphql.Field{Type: graphql.Float},
			"maxLon": &graphql.Field{Type: graphql.Float},
		},
	})

	reportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "EmissionsReport",
		Fields: graphql.Fields{
			"totalDistanceKm":         &graphql.Field{Type: graphql.Float},
			"tripDurationDays":        &graphql.Field{Type: graphql.Int},
			"segmentCount":            &graphql.Field{Type: graphql.Int},
			"emissionsByMode":         &graphql.Field{Type: graphql.NewList(modeEmissionsType)},
			"dailyEmissions":          &graphql.Field{Type: graphql.NewList(dailyType)},
			"selectedMode":            &graphql.Field{Type: graphql.String},
			"selectedModeEmissionsKg": &graphql.Field{Type: graphql.Float},
			"offsetSuggestion":        &graphql.Field{Type: offsetType},
			"accommodation":           &graphql.Field{Type: accommodationType},
			"bounds":                  &graphql.Field{Type: boundsType},
		},
	})

	footprintType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Footprint",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.String},
			"source":    &graphql.Field{Type: graphql.String},
			"report":    &graphql.Field{Type: reportType},
			"createdAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	footprintPageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FootprintPage",
		Fields: graphql.Fields{
			"data":   &graphql.Field{Type: graphql.NewList(footprintType)},
			"offset": &graphql.Field{Type: graphql.Int},
			"limit":  &graphql.Field{Type: graphql.Int},
			"total":  &graphql.Field{Type: graphql.Int},
		},
	})

	stopInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "StopInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":        &graphql.InputObjectFieldConfig{Type: graphql.String},
			"coordinates": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	dayInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "DayInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"dayLabel": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"stops":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(stopInput)))},
		},
	})

	itineraryInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ItineraryInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"days": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(dayInput)))},
		},
	})

	footprintArgs := graphql.FieldConfigArgument{
		"itinerary":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(itineraryInput)},
		"selectedMode":      &graphql.ArgumentConfig{Type: graphql.String},
		"accommodationType": &graphql.ArgumentConfig{Type: graphql.String},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"transportModes": &graphql.Field{
				Type:        catalogType,
				Description: "Emission factors and offset constants in use",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Footprints.TransportModes(), nil
				},
			},
			"estimateFootprint": &graphql.Field{
				Type:        reportType,
				Description: "Estimate the emissions of an itinerary",
				Args:        footprintArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req, err := footprintRequestFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Footprints.EstimateRequest(p.Context, req)
				},
			},
			"footprint": &graphql.Field{
				Type:        footprintType,
				Description: "Get a stored footprint by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Footprints.Get(p.Context, p.Args["id"].(string))
				},
			},
			"footprints": &graphql.Field{
				Type:        footprintPageType,
				Description: "Stored footprints, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset, limit := usecases.ClampPage(p.Args["offset"].(int), p.Args["limit"].(int))
					records, total, err := deps.Footprints.List(p.Context, offset, limit)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"data":   records,
						"offset": offset,
						"limit":  limit,
						"total":  total,
					}, nil
				},
			},
		},
	})

	recordArgs := graphql.FieldConfigArgument{
		"source": &graphql.ArgumentConfig{Type: graphql.String},
	}
	for k, v := range footprintArgs {
		recordArgs[k] = v
	}

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"recordFootprint": &graphql.Field{
				Type:        footprintType,
				Description: "Estimate and store an itinerary footprint",
				Args:        recordArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req, err := footprintRequestFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Footprints.Record(p.Context, req)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// footprintRequestFromArgs converts GraphQL arguments into a request by way
// of the itinerary's JSON form.
func footprintRequestFromArgs(args map[string]interface{}) (*domain.FootprintRequest, error) {
	raw, err := json.Marshal(args["itinerary"])
	if err != nil {
		return nil, fmt.Errorf("encode itinerary: %w", err)
	}
	var it domain.Itinerary
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, fmt.Errorf("decode itinerary: %w", err)
	}

	req := &domain.FootprintRequest{Itinerary: &it}
	req.SelectedMode, _ = args["selectedMode"].(string)
	req.AccommodationType, _ = args["accommodationType"].(string)
	req.Source, _ = args["source"].(string)
	return req, nil
}

type modeAmount struct {
	Mode        string  `json:"mode"`
	EmissionsKg float64 `json:"emissionsKg"`
}

// modeAmounts lists per-mode amounts in factor-table order, with any modes
// missing from the table appended alphabetically.
func modeAmounts(cat domain.FactorCatalog, byMode map[string]float64) []modeAmount {
	out := make([]modeAmount, 0, len(byMode))
	seen := make(map[string]bool, len(byMode))
	for _, f := range cat.Modes {
		if v, ok := byMode[f.Mode]; ok {
			out = append(out, modeAmount{Mode: f.Mode, EmissionsKg: v})
			seen[f.Mode] = true
		}
	}
	var rest []string
	for mode := range byMode {
		if !seen[mode] {
			rest = append(rest, mode)
		}
	}
	sort.Strings(rest)
	for _, mode := range rest {
		out = append(out, modeAmount{Mode: mode, EmissionsKg: byMode[mode]})
	}
	return out
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
