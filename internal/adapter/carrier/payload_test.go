package carrier

import (
	"encoding/json"
	"testing"
)

// Package ids arrive as strings on one upstream and as numbers on another;
// both must coerce to the same domain shape, and fullPrice wins over price.
func TestToPackagesCoercion(t *testing.T) {
	raw := `{"packages":[
	  {"id":"12","name":"Voz","price":300},
	  {"id":7,"name":"Dados","price":90,"fullPrice":100}
	]}`
	var env packagesEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	pkgs := toPackages(env)
	if len(pkgs) != 2 {
		t.Fatalf("got %d packages", len(pkgs))
	}
	if pkgs[0].ID != "12" || pkgs[0].Price != 300 {
		t.Fatalf("string id package: %+v", pkgs[0])
	}
	if pkgs[1].ID != "7" || pkgs[1].Price != 100 {
		t.Fatalf("numeric id package: %+v", pkgs[1])
	}
}

func TestFlattenPreservesCampaignContext(t *testing.T) {
	var env zoneResponse
	if err := json.Unmarshal([]byte(mixedZonePayload), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	all := env.flatten("zone-a", false)
	if len(all) != 3 {
		t.Fatalf("unfiltered flatten: got %d", len(all))
	}
	for _, item := range all {
		if item.Campaign.ID != "c-1" || item.Source != "zone-a" {
			t.Fatalf("context lost: %+v", item)
		}
	}
	if len(all[0].Campaign.Offers) != 1 || all[0].Campaign.Offers[0].Amount != 5 {
		t.Fatalf("offers lost: %+v", all[0].Campaign.Offers)
	}

	videos := env.flatten("zone-a", true)
	if len(videos) != 1 || videos[0].Media.ID != "m-video" {
		t.Fatalf("video filter: %+v", videos)
	}
}
