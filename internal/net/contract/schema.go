// Package contract publishes a machine-readable schema for the daemon's JSON
// control surface, so dashboards and probes can validate what they consume.
package contract

import (
	"github.com/invopop/jsonschema"

	servernet "sightrelay/internal/net"
)

// StatsSchema reflects the /stats payload layout.
func StatsSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(servernet.StatsResponse))
	schema.Title = "Sightrelay Statistics"
	schema.Description = "Relay counts per jurisdiction index key, as served by /stats."
	return schema
}
