package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Boundary",
		Fields: graphql.Fields{
			"kind":        &graphql.Field{Type: graphql.String},
			"point":       &graphql.Field{Type: geoPointType},
			"distance":    &graphql.Field{Type: graphql.Float},
			"sequence_id": &graphql.Field{Type: graphql.String},
		},
	})

	signType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PlacedSign",
		Fields: graphql.Fields{
			"sign_code": &graphql.Field{Type: graphql.String},
			"point":     &graphql.Field{Type: geoPointType},
			"rotation":  &graphql.Field{Type: graphql.Float},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Plan",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"road_ref":    &graphql.Field{Type: graphql.String},
			"sequence_id": &graphql.Field{Type: graphql.String},
			"boundaries":  &graphql.Field{Type: graphql.NewList(boundaryType)},
			"signs":       &graphql.Field{Type: graphql.NewList(signType)},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
			"updated_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	roadLinkType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoadLink",
		Fields: graphql.Fields{
			"start_position": &graphql.Field{Type: graphql.Float},
			"wkt":            &graphql.Field{Type: graphql.String},
			"srid":           &graphql.Field{Type: graphql.Int},
		},
	})

	roadSequenceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoadSequence",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"reference":       &graphql.Field{Type: graphql.String},
			"declared_length": &graphql.Field{Type: graphql.Float},
			"links":           &graphql.Field{Type: graphql.NewList(roadLinkType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"plan": &graphql.Field{
				Type:        planType,
				Description: "Get a traffic plan by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Plans.GetByID(p.Context, id)
				},
			},
			"plans": &graphql.Field{
				Type:        graphql.NewList(planType),
				Description: "List traffic plans, newest first",
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					limit := p.Args["limit"].(int)
					offset := p.Args["offset"].(int)
					return deps.Plans.List(p.Context, limit, offset)
				},
			},
			"sessionRoad": &graphql.Field{
				Type:        roadSequenceType,
				Description: "The road sequence currently selected for a session",
				Args: graphql.FieldConfigArgument{
					"session_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sessionID := p.Args["session_id"].(string)
					sel, err := deps.Roads.Selection(sessionID)
					if err != nil {
						return nil, err
					}
					return sel.Sequence, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
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
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
