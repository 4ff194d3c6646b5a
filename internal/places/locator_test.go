package places_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpkplaces/internal/places"
)

func newFixtureLocator() (*places.Locator, *fakeOpener) {
	opener := &fakeOpener{archives: map[string]*fakeArchive{
		"de_dust2.vpk": {
			entries: map[string][]string{
				"vmat_c":  {"materials/dust.vmat_c"},
				"vents_c": {"maps/de_dust2/entities/default_ents.vents_c", "maps/de_dust2/entities/extra.vents_c"},
			},
			files: map[string][]byte{
				"maps/de_dust2/entities/default_ents.vents_c": []byte("dust2"),
				"maps/de_dust2/entities/extra.vents_c":        []byte("extra"),
			},
		},
		"ar_empty.vpk": {
			entries: map[string][]string{"vmat_c": {"materials/x.vmat_c"}},
		},
		"de_broken.vpk": {
			entries: map[string][]string{"vents_c": {"maps/de_broken/entities/default_ents.vents_c"}},
			files: map[string][]byte{
				"maps/de_broken/entities/default_ents.vents_c": []byte("broken"),
			},
		},
	}}
	decoder := &fakeDecoder{lumps: map[string]fakeLump{
		"dust2": {
			placeEntity("Long", "100 200 0"),
			fakeEntity{"classname": "env_player_start", "origin": "9 9 9"},
			placeEntity("Long", "150 200 0"),
		},
		"extra": {placeEntity("Ignored", "0 0 0")},
		"broken": {
			placeEntity("Mid", "not a vector"),
		},
	}}
	return places.NewLocator(opener, decoder), opener
}

func TestExtractEndToEnd(t *testing.T) {
	loc, opener := newFixtureLocator()

	m, err := loc.Extract("de_dust2.vpk")
	require.NoError(t, err)
	assert.Equal(t, []string{"Long"}, m.Names())
	assert.Equal(t, []places.Vector3{{X: 100, Y: 200}, {X: 150, Y: 200}}, m.Vectors("Long"))
	assert.True(t, opener.archives["de_dust2.vpk"].closed, "archive should be closed after extraction")
}

func TestLocateMissingEntry(t *testing.T) {
	loc, opener := newFixtureLocator()

	_, err := loc.Locate("ar_empty.vpk")
	require.ErrorIs(t, err, places.ErrEntryNotFound)
	assert.True(t, opener.archives["ar_empty.vpk"].closed)
}

func TestLocateOpenFailure(t *testing.T) {
	loc, _ := newFixtureLocator()

	_, err := loc.Locate("missing.vpk")
	require.Error(t, err)
	assert.NotErrorIs(t, err, places.ErrEntryNotFound)
	assert.Contains(t, err.Error(), "open archive")
}

func TestExtractMalformedOrigin(t *testing.T) {
	loc, _ := newFixtureLocator()

	_, err := loc.Extract("de_broken.vpk")
	var perr *places.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "not a vector", perr.Origin)
}

func TestLocatorNotConfigured(t *testing.T) {
	var loc *places.Locator
	_, err := loc.Locate("x.vpk")
	require.Error(t, err)
}
