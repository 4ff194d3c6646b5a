package places_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"vpkplaces/internal/places"
)

func TestDecodeKeepsOnlyPlaceEntities(t *testing.T) {
	lump := fakeLump{
		placeEntity("Long", "100 200 0"),
		fakeEntity{"classname": "env_player_start", "origin": "0 0 0"},
		fakeEntity{"origin": "1 1 1"},
		placeEntity("Long", "150 200 0"),
		placeEntity("CTSpawn", "5 6 7"),
	}

	records, err := places.Decode(lump)
	require.NoError(t, err)
	assert.Equal(t, []places.Record{
		{PlaceName: "Long", Origin: "100 200 0"},
		{PlaceName: "Long", Origin: "150 200 0"},
		{PlaceName: "CTSpawn", Origin: "5 6 7"},
	}, records)
}

func TestDecodeMissingProperty(t *testing.T) {
	cases := []struct {
		name     string
		entity   fakeEntity
		property string
	}{
		{name: "place_name", entity: fakeEntity{"classname": places.PlaceClassname, "origin": "1 2 3"}, property: "place_name"},
		{name: "origin", entity: fakeEntity{"classname": places.PlaceClassname, "place_name": "Mid"}, property: "origin"},
		{name: "empty place_name", entity: fakeEntity{"classname": places.PlaceClassname, "place_name": "", "origin": "1 2 3"}, property: "place_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lump := fakeLump{placeEntity("A", "0 0 0"), tc.entity}
			_, err := places.Decode(lump)

			var missing *places.MissingPropertyError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, 1, missing.Index)
			assert.Equal(t, tc.property, missing.Property)
		})
	}
}

func TestDecodeEmptyLump(t *testing.T) {
	records, err := places.Decode(fakeLump{})
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = places.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPropertyDecodePreservesPlaceOrder(t *testing.T) {
	classnames := []string{places.PlaceClassname, "info_player_terrorist", "prop_dynamic", "env_cs_place_helper"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 40).Draw(t, "entities")
		lump := make(fakeLump, 0, n)
		var want []places.Record
		for i := 0; i < n; i++ {
			cls := rapid.SampledFrom(classnames).Draw(t, "classname")
			name := rapid.StringMatching(`[A-Za-z]{1,8}`).Draw(t, "name")
			origin := rapid.StringMatching(`-?[0-9]{1,4} -?[0-9]{1,4} -?[0-9]{1,4}`).Draw(t, "origin")
			lump = append(lump, fakeEntity{"classname": cls, "place_name": name, "origin": origin})
			if cls == places.PlaceClassname {
				want = append(want, places.Record{PlaceName: name, Origin: origin})
			}
		}

		got, err := places.Decode(lump)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != len(want) {
			t.Fatalf("got %d records, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("record %d = %+v, want %+v", i, got[i], want[i])
			}
		}
	})
}
