package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(nil)
	interests := AllInterests()

	tests := []struct {
		name  string
		place ExternalPlace
		want  []Interest
	}{
		{
			name:  "name match",
			place: ExternalPlace{Name: "Yasmine Beach"},
			want:  []Interest{InterestBeach},
		},
		{
			name:  "type tag substring",
			place: ExternalPlace{Name: "Mall of Sfax", Types: []string{"shopping_mall"}},
			want:  []Interest{InterestShopping},
		},
		{
			name:  "shared keyword",
			place: ExternalPlace{Name: "Dar El Jeld Restaurant"},
			want:  []Interest{InterestFoodGastronomy, InterestNightlife},
		},
		{
			name:  "case-insensitive",
			place: ExternalPlace{Name: "CARTHAGE MUSEUM"},
			want:  []Interest{InterestCultureHistory},
		},
		{
			name:  "missing name and types",
			place: ExternalPlace{ID: "empty"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := n.Normalize(tt.place, interests)
			assert.Equal(t, tt.want, got.MatchedInterests())
			assert.Len(t, got.Matches, len(interests))
			assert.Equal(t, tt.place.ID, got.ID)
		})
	}
}

func TestNormalize_OnlyRequestedInterests(t *testing.T) {
	n := NewNormalizer(nil)

	got := n.Normalize(ExternalPlace{Name: "Beach Spa Resort"}, []Interest{InterestBeach})
	assert.Equal(t, map[Interest]bool{InterestBeach: true}, got.Matches)
}

func TestNewNormalizer_ExtraKeywords(t *testing.T) {
	n := NewNormalizer(map[Interest][]string{
		InterestRelaxationSpa: {" Hammam ", ""},
	})

	assert.Contains(t, n.Keywords(InterestRelaxationSpa), "hammam")
	assert.NotContains(t, n.Keywords(InterestRelaxationSpa), "")

	got := n.Normalize(ExternalPlace{Name: "Hammam Sahib Ettabaa"}, []Interest{InterestRelaxationSpa})
	assert.True(t, got.Matches[InterestRelaxationSpa])

	// The defaults are not shared between normalizers.
	assert.NotContains(t, NewNormalizer(nil).Keywords(InterestRelaxationSpa), "hammam")
}

func TestDedupe(t *testing.T) {
	in := []ExternalPlace{{ID: "a", Name: "1"}, {ID: "b"}, {ID: "a", Name: "2"}, {}, {}}
	got := Dedupe(in)

	assert.Len(t, got, 4)
	assert.Equal(t, "1", got[0].Name)
	assert.Len(t, in, 5)
}
