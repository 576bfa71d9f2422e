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

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	actSchema := compile("act.schema.json")
	ackSchema := compile("ack.schema.json")
	querySchema := compile("query.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"planner1",
	  "owner":"p1"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "city_params":{
	    "city_id":"city_1",
	    "grid_size":12,
	    "tick_rate_hz":5,
	    "day_ticks":50,
	    "seed":1337
	  },
	  "catalogs":{"buildings_digest":"deadbeef","building_count":12}
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var place any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "act_id":"A1",
	  "kind":"PLACE_BUILDING",
	  "row":5,
	  "col":5,
	  "building_id":"cottage"
	}`), &place)
	validate(actSchema, place)

	var road any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "act_id":"A2",
	  "kind":"BUILD_ROAD",
	  "edge":{"kind":"horizontal","row":5,"col":5},
	  "road_tier":"arterial"
	}`), &road)
	validate(actSchema, road)

	var ack any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACK",
	  "protocol_version":"1.0",
	  "ack_for":"A1",
	  "accepted":false,
	  "code":"E_OCCUPIED",
	  "message":"parcel already has a building",
	  "server_tick":42
	}`), &ack)
	validate(ackSchema, ack)

	var query any
	_ = json.Unmarshal([]byte(`{
	  "type":"QUERY",
	  "protocol_version":"1.0",
	  "query_id":"Q1",
	  "kind":"CONNECTED",
	  "row":0,
	  "col":0,
	  "to_row":5,
	  "to_col":5
	}`), &query)
	validate(querySchema, query)
}

func TestSchemas_RejectBadAct(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "act.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var bad any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "act_id":"A1",
	  "kind":"FLY"
	}`), &bad)
	if err := s.Validate(bad); err == nil {
		t.Fatalf("unknown act kind must fail validation")
	}
}
