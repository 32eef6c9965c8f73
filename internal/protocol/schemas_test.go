package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	requestSchema := compile("request_all_items.schema.json")
	addSchema := compile("add_one.schema.json")
	removeSchema := compile("remove_one.schema.json")
	purchasedSchema := compile("purchased_grid.schema.json")

	var request any
	_ = json.Unmarshal([]byte(`{
	  "type":"REQUEST_ALL_ITEMS",
	  "protocol_version":"1.0",
	  "msg_id":"a7f2",
	  "node":"node_1"
	}`), &request)
	validate(requestSchema, request)

	var add any
	_ = json.Unmarshal([]byte(`{
	  "type":"ADD_ONE",
	  "protocol_version":"1.0",
	  "msg_id":"a7f3",
	  "node":"node_1",
	  "listing":{
	    "listing_id":"l1",
	    "name":"Miner Mk2",
	    "seller":"Bob",
	    "seller_id":76561198000000001,
	    "price":250000,
	    "grid_mass":123456.5,
	    "number_of_blocks":420,
	    "pcu":1500,
	    "built_percent":0.87,
	    "block_type_counts":{"Thruster":8},
	    "stored_resources":{"Iron":1500}
	  }
	}`), &add)
	validate(addSchema, add)

	var remove any
	_ = json.Unmarshal([]byte(`{
	  "type":"REMOVE_ONE",
	  "protocol_version":"1.0",
	  "msg_id":"a7f4",
	  "listing_id":"l1"
	}`), &remove)
	validate(removeSchema, remove)

	var purchased any
	_ = json.Unmarshal([]byte(`{
	  "type":"PURCHASED_GRID",
	  "protocol_version":"1.0",
	  "msg_id":"a7f5",
	  "listing_id":"l1",
	  "grid":{"name":"Miner Mk2","definition":"AQID","seller_id":11,"buyer_id":22},
	  "balances":[
	    {"platform_id":11,"amount":250000,"seq":3},
	    {"platform_id":22,"amount":-250000,"seq":7}
	  ]
	}`), &purchased)
	validate(purchasedSchema, purchased)

	// A request carrying listings must not validate.
	var bad any
	_ = json.Unmarshal([]byte(`{
	  "type":"REQUEST_ALL_ITEMS",
	  "protocol_version":"1.0",
	  "msg_id":"a7f6",
	  "listings":[{"listing_id":"l1"}]
	}`), &bad)
	if err := requestSchema.Validate(bad); err == nil {
		t.Fatalf("foreign payload should fail schema validation")
	}
}
